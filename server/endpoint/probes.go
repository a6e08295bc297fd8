package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/wirekit/component"
)

// HealthChecker returns the health of every registered component.
type HealthChecker func(ctx context.Context) []component.Health

// report groups component results by status.
type report struct {
	components []component.Health
	degraded   []string
	unhealthy  []string
}

func check(ctx context.Context, checker HealthChecker) report {
	var r report
	if checker == nil {
		return r
	}
	r.components = checker(ctx)
	for _, h := range r.components {
		switch h.Status {
		case component.StatusUnhealthy:
			r.unhealthy = append(r.unhealthy, h.Name)
		case component.StatusDegraded:
			r.degraded = append(r.degraded, h.Name)
		}
	}
	return r
}

func (r report) status() string {
	switch {
	case len(r.unhealthy) > 0:
		return "unhealthy"
	case len(r.degraded) > 0:
		return "degraded"
	default:
		return "healthy"
	}
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// Health reports the aggregate status with every component's result. Only
// an unhealthy component turns the answer into a 503.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := check(c.Request.Context(), checker)
		httpStatus := http.StatusOK
		if len(r.unhealthy) > 0 {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, gin.H{
			"status":     r.status(),
			"service":    serviceName,
			"timestamp":  now(),
			"components": r.components,
		})
	}
}

// Readiness answers readiness probes. A degraded component, such as a docs
// index still scanning sources, is listed but does not block traffic.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := check(c.Request.Context(), checker)
		body := gin.H{
			"status":    "ready",
			"service":   serviceName,
			"timestamp": now(),
		}
		if len(r.degraded) > 0 {
			body["degraded"] = r.degraded
		}
		if len(r.unhealthy) > 0 {
			body["status"] = "not_ready"
			body["unhealthy"] = r.unhealthy
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	}
}
