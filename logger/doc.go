// Package logger provides structured logging on top of zerolog.
//
// Loggers are component-scoped and take their fields as maps:
//
//	log := logger.NewDefault("inventory").WithComponent("dispatch")
//	log.Info("Endpoint mounted", map[string]interface{}{"path": "/items/:id"})
//
// WithContext adds the request ID set by the request-ID middleware and the
// trace and span IDs of the active OpenTelemetry span.
package logger
