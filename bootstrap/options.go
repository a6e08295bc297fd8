package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/wirekit/dispatch"
	"github.com/kbukum/wirekit/logger"
	"github.com/kbukum/wirekit/registry"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	registry        *registry.Registry
	gracefulTimeout *time.Duration
	dispatch        []dispatch.Option
	summaryOut      io.Writer
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger. Without it the logger is initialized from
// the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithRegistry uses a registry populated elsewhere instead of a new one.
func WithRegistry(r *registry.Registry) Option {
	return func(o *appOptions) {
		o.registry = r
	}
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithDispatchOptions passes options such as a custom formatter or error
// handler to every mounted endpoint.
func WithDispatchOptions(opts ...dispatch.Option) Option {
	return func(o *appOptions) {
		o.dispatch = append(o.dispatch, opts...)
	}
}

// WithSummaryOutput sets where the startup summary is printed; nil
// disables it. Defaults to stdout.
func WithSummaryOutput(w io.Writer) Option {
	return func(o *appOptions) {
		o.summaryOut = w
		if w == nil {
			o.summaryOut = io.Discard
		}
	}
}
