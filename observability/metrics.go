package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName names the tracer and meter used by dispatch.
const InstrumentationName = "github.com/kbukum/wirekit/dispatch"

// Attribute keys recorded on endpoint spans and metrics.
const (
	AttrEndpoint   = "wirekit.endpoint"
	AttrController = "wirekit.controller"
	AttrRoute      = "http.route"
	AttrMethod     = "http.request.method"
	AttrStatus     = "http.response.status_code"
	AttrOutcome    = "outcome"
)

// Outcomes of one endpoint invocation.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeComplete = "completed"
)

// EndpointMetrics holds the instruments recorded for every dispatched request.
type EndpointMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
	bindErrs metric.Int64Counter
}

// NewEndpointMetrics creates the endpoint instruments on meter.
func NewEndpointMetrics(meter metric.Meter) (*EndpointMetrics, error) {
	requests, err := meter.Int64Counter("wirekit.endpoint.requests",
		metric.WithDescription("Dispatched endpoint requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating wirekit.endpoint.requests counter: %w", err)
	}

	duration, err := meter.Float64Histogram("wirekit.endpoint.duration",
		metric.WithDescription("Endpoint handling duration, binding included"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating wirekit.endpoint.duration histogram: %w", err)
	}

	active, err := meter.Int64UpDownCounter("wirekit.endpoint.active",
		metric.WithDescription("Endpoint requests in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating wirekit.endpoint.active counter: %w", err)
	}

	bindErrs, err := meter.Int64Counter("wirekit.binding.errors",
		metric.WithDescription("Requests whose parameter extraction failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating wirekit.binding.errors counter: %w", err)
	}

	return &EndpointMetrics{
		requests: requests,
		duration: duration,
		active:   active,
		bindErrs: bindErrs,
	}, nil
}

// Started marks a request in flight.
func (m *EndpointMetrics) Started(ctx context.Context, route string) {
	m.active.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrRoute, route)))
}

// Finished records a completed request.
func (m *EndpointMetrics) Finished(ctx context.Context, method, route, outcome string, status int, d time.Duration) {
	m.active.Add(ctx, -1, metric.WithAttributes(attribute.String(AttrRoute, route)))
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrMethod, method),
		attribute.String(AttrRoute, route),
		attribute.String(AttrOutcome, outcome),
		attribute.Int(AttrStatus, status),
	))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(AttrMethod, method),
		attribute.String(AttrRoute, route),
	))
}

// BindingFailed counts a request rejected during parameter extraction.
func (m *EndpointMetrics) BindingFailed(ctx context.Context, route string) {
	m.bindErrs.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrRoute, route)))
}
