package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/wirekit/component"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func checker(statuses ...component.HealthStatus) HealthChecker {
	return func(context.Context) []component.Health {
		out := make([]component.Health, len(statuses))
		for i, s := range statuses {
			out[i] = component.Health{Name: string(s) + "-component", Status: s}
		}
		return out
	}
}

func get(h gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]any) {
	engine := gin.New()
	engine.GET("/", h)
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))
	var body map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	return rr, body
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checker    HealthChecker
		wantCode   int
		wantStatus string
	}{
		{"no checker", nil, http.StatusOK, "healthy"},
		{"all healthy", checker(component.StatusHealthy), http.StatusOK, "healthy"},
		{"degraded", checker(component.StatusHealthy, component.StatusDegraded), http.StatusOK, "degraded"},
		{"unhealthy", checker(component.StatusDegraded, component.StatusUnhealthy), http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, body := get(Health("inventory", tt.checker))
			if rr.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("expected status %s, got %v", tt.wantStatus, body["status"])
			}
		})
	}
}

func TestReadiness(t *testing.T) {
	rr, body := get(Readiness("inventory", checker(component.StatusDegraded)))
	if rr.Code != http.StatusOK || body["status"] != "ready" {
		t.Errorf("degraded components should not block readiness, got %d %v", rr.Code, body)
	}
	if body["degraded"] == nil {
		t.Error("expected degraded components to be listed")
	}

	rr, body = get(Readiness("inventory", checker(component.StatusUnhealthy)))
	if rr.Code != http.StatusServiceUnavailable || body["status"] != "not_ready" {
		t.Errorf("expected not_ready, got %d %v", rr.Code, body)
	}
	if names, _ := body["unhealthy"].([]any); len(names) != 1 || names[0] != "unhealthy-component" {
		t.Errorf("expected the unhealthy component to be listed, got %v", body["unhealthy"])
	}
}

func TestInfo(t *testing.T) {
	rr, body := get(Info(Meta{Name: "inventory", Environment: "staging", Version: "1.2.0"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body["service"] != "inventory" || body["environment"] != "staging" || body["version"] != "1.2.0" {
		t.Errorf("unexpected identity fields: %v", body)
	}
	build, _ := body["build"].(map[string]any)
	if _, ok := build["go_version"]; !ok {
		t.Errorf("expected build info, got %v", body["build"])
	}
}
