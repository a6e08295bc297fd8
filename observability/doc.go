// Package observability installs OpenTelemetry tracer and meter providers and
// defines the instruments recorded around every dispatched endpoint.
//
//	providers, err := observability.Init(ctx, observability.ServiceInfo{Name: "inventory"}, cfg.Telemetry)
//	defer providers.Shutdown(ctx)
//
//	metrics, err := observability.NewEndpointMetrics(observability.Meter(observability.InstrumentationName))
//	metrics.Finished(ctx, "GET", "/items/:id", observability.OutcomeOK, 200, elapsed)
package observability
