package dispatch

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/wirekit/logger"
	"github.com/kbukum/wirekit/observability"
	"github.com/kbukum/wirekit/server"
)

// Formatter turns an endpoint result into the JSON response body.
type Formatter func(result any) any

// ErrorHandler receives every error raised while handling a request.
type ErrorHandler func(c *gin.Context, err error)

// Option configures the handlers built by NewHandler and Mount.
type Option func(*options)

type options struct {
	formatter    Formatter
	errorHandler ErrorHandler
	log          *logger.Logger
	metrics      *observability.EndpointMetrics
	tracer       trace.Tracer
}

func newOptions(opts []Option) *options {
	o := &options{
		formatter:    func(result any) any { return result },
		errorHandler: RespondWithError,
		tracer:       otel.Tracer(observability.InstrumentationName),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger().WithComponent("dispatch")
	}
	return o
}

// WithFormatter sets the result formatter. The default writes results as is.
func WithFormatter(f Formatter) Option {
	return func(o *options) {
		if f != nil {
			o.formatter = f
		}
	}
}

// WithErrorHandler replaces RespondWithError.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.errorHandler = h
		}
	}
}

// WithLogger sets the dispatch logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l.WithComponent("dispatch")
		}
	}
}

// WithMetrics records endpoint instruments for every request.
func WithMetrics(m *observability.EndpointMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer replaces the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// RespondWithError is the default ErrorHandler. It records err on the Gin
// context and renders it through the shared error envelope unless a
// response has already been written.
func RespondWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	if c.Writer.Written() {
		return
	}
	server.RespondWithError(c, err)
}
