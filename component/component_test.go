package component

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// mockComponent implements Component for testing.
type mockComponent struct {
	name       string
	startErr   error
	stopErr    error
	health     Health
	startOrder *[]string
	stopOrder  *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	if m.startOrder != nil {
		*m.startOrder = append(*m.startOrder, m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	if m.stopOrder != nil {
		*m.stopOrder = append(*m.stopOrder, m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health {
	return m.health
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(&mockComponent{name: "http-server"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "http-server"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestGet(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&mockComponent{name: "docs-index"})

	got := r.Get("docs-index")
	if got == nil || got.Name() != "docs-index" {
		t.Fatalf("expected docs-index, got %v", got)
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for unregistered component")
	}
	if len(r.All()) != 1 {
		t.Errorf("expected 1 component, got %d", len(r.All()))
	}
}

func TestStartAllOrder(t *testing.T) {
	r := NewRegistry(nil)
	order := []string{}
	r.Register(&mockComponent{name: "telemetry", startOrder: &order})
	r.Register(&mockComponent{name: "docs-index", startOrder: &order})
	r.Register(&mockComponent{name: "http-server", startOrder: &order})

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	want := []string{"telemetry", "docs-index", "http-server"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("expected start order %v, got %v", want, order)
	}

	// Already started components are not started again.
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("second StartAll failed: %v", err)
	}
	if len(order) != 3 {
		t.Errorf("expected no restarts, got %v", order)
	}
}

func TestStartAllErrorStopsStartedOnes(t *testing.T) {
	r := NewRegistry(nil)
	stops := []string{}
	r.Register(&mockComponent{name: "telemetry", stopOrder: &stops})
	r.Register(&mockComponent{name: "http-server", startErr: fmt.Errorf("address in use"), stopOrder: &stops})

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected error from StartAll")
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(stops) != 1 || stops[0] != "telemetry" {
		t.Errorf("expected only telemetry to be stopped, got %v", stops)
	}
}

func TestStopAllReverseOrder(t *testing.T) {
	r := NewRegistry(nil)
	order := []string{}
	r.Register(&mockComponent{name: "telemetry", stopOrder: &order})
	r.Register(&mockComponent{name: "docs-index", stopOrder: &order})
	r.Register(&mockComponent{name: "http-server", stopOrder: &order})

	r.StartAll(context.Background())
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	want := []string{"http-server", "docs-index", "telemetry"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("expected stop order %v, got %v", want, order)
	}
}

func TestStopAllWithErrors(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&mockComponent{name: "http-server", stopErr: fmt.Errorf("stop failed")})
	r.StartAll(context.Background())

	if err := r.StopAll(context.Background()); err == nil {
		t.Error("expected error from StopAll")
	}
}

func TestHealthAll(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&mockComponent{
		name:   "http-server",
		health: Health{Name: "http-server", Status: StatusHealthy},
	})
	r.Register(&mockComponent{
		name:   "docs-index",
		health: Health{Name: "docs-index", Status: StatusDegraded, Message: "indexing"},
	})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Status != StatusHealthy {
		t.Errorf("expected server healthy, got %s", results[0].Status)
	}
	if results[1].Status != StatusDegraded || results[1].Message != "indexing" {
		t.Errorf("unexpected docs health %+v", results[1])
	}
}

type slowComponent struct {
	mockComponent
	delay time.Duration
}

func (s *slowComponent) Health(context.Context) Health {
	time.Sleep(s.delay)
	return Health{Name: s.name, Status: StatusHealthy}
}

func TestHealthAllTimesOut(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&slowComponent{mockComponent: mockComponent{name: "docs-index"}, delay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	results := r.HealthAll(ctx)
	if len(results) != 1 || results[0].Status != StatusUnhealthy || results[0].Name != "docs-index" {
		t.Errorf("expected a timed out check to be unhealthy, got %+v", results)
	}
}

func TestHealthAllFillsMissingName(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&mockComponent{name: "telemetry", health: Health{Status: StatusHealthy}})

	results := r.HealthAll(context.Background())
	if results[0].Name != "telemetry" {
		t.Errorf("expected the component name, got %q", results[0].Name)
	}
}

func TestStopAllJoinsErrors(t *testing.T) {
	r := NewRegistry(nil)
	first := fmt.Errorf("first")
	second := fmt.Errorf("second")
	r.Register(&mockComponent{name: "a", stopErr: first})
	r.Register(&mockComponent{name: "b", stopErr: second})
	r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Errorf("expected both stop errors, got %v", err)
	}
}
