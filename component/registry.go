package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/wirekit/logger"
)

const (
	stopTimeout   = 10 * time.Second
	healthTimeout = 2 * time.Second
)

type entry struct {
	component Component
	started   bool
}

// Registry owns the lifecycle of an application's components. Components
// start in registration order and stop in reverse.
type Registry struct {
	mu      sync.RWMutex
	entries []*entry
	byName  map[string]*entry
	log     *logger.Logger
}

// NewRegistry creates an empty registry. A nil logger falls back to the
// global one.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Registry{
		byName: make(map[string]*entry),
		log:    log.WithComponent("components"),
	}
}

// Register adds c. Names must be unique; register dependencies first.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}
	e := &entry{component: c}
	r.entries = append(r.entries, e)
	r.byName[name] = e

	r.log.Debug("Component registered", map[string]interface{}{logger.FieldComponent: name})
	return nil
}

// StartAll starts every component not yet started and stops at the first
// failure. Components started before the failure stay started so that
// StopAll can release them.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := 0
	for _, e := range r.entries {
		if e.started {
			continue
		}
		name := e.component.Name()
		begin := time.Now()
		if err := e.component.Start(ctx); err != nil {
			fields := logger.ErrorFields("start", err)
			fields[logger.FieldComponent] = name
			r.log.Error("Component start failed", fields)
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		e.started = true
		started++

		fields := logger.DurationFields("start", time.Since(begin))
		fields[logger.FieldComponent] = name
		r.log.Debug("Component started", fields)
	}

	r.log.Info("Components started", map[string]interface{}{"count": started})
	return nil
}

// StopAll stops started components in reverse registration order, giving
// each its own deadline. Every failure is reported in the joined error.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if !e.started {
			continue
		}
		name := e.component.Name()
		stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
		err := e.component.Stop(stopCtx)
		cancel()
		e.started = false

		if err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", name, err))
			fields := logger.ErrorFields("stop", err)
			fields[logger.FieldComponent] = name
			r.log.Error("Component stop failed", fields)
			continue
		}
		r.log.Debug("Component stopped", map[string]interface{}{logger.FieldComponent: name})
	}
	return errors.Join(errs...)
}

// HealthAll checks every component concurrently and returns the results in
// registration order. A component that does not answer in time is reported
// unhealthy.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	components := r.All()
	results := make([]Health, len(components))

	var wg sync.WaitGroup
	for i, c := range components {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = checkHealth(ctx, c)
		}()
	}
	wg.Wait()
	return results
}

func checkHealth(ctx context.Context, c Component) Health {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	done := make(chan Health, 1)
	go func() { done <- c.Health(ctx) }()

	select {
	case h := <-done:
		if h.Name == "" {
			h.Name = c.Name()
		}
		return h
	case <-ctx.Done():
		return Health{Name: c.Name(), Status: StatusUnhealthy, Message: "health check timed out"}
	}
}

// Get returns the component registered under name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.byName[name]; ok {
		return e.component
	}
	return nil
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Component, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.component
	}
	return out
}
