package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/wirekit/component"
	"github.com/kbukum/wirekit/di"
	"github.com/kbukum/wirekit/dispatch"
	"github.com/kbukum/wirekit/docs"
	"github.com/kbukum/wirekit/logger"
	"github.com/kbukum/wirekit/observability"
	"github.com/kbukum/wirekit/registry"
	"github.com/kbukum/wirekit/server"
	"github.com/kbukum/wirekit/server/endpoint"
)

// App is a wirekit application: a registry of controllers and services, the
// resolver that wires them, and the HTTP server the endpoints are mounted on.
// The type parameter C is the config type; any struct embedding
// config.ServiceConfig satisfies Config.
//
// Example:
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.Registry.RegisterController(registry.Controller("items", &ItemController{}).
//	    Get("Get", ":id", getItem, registry.Bind(binding.Path(2, "id"))))
//	app.Run(context.Background())
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Registry   *registry.Registry
	Resolver   *di.Resolver
	Server     *server.Server
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary

	// Routes lists the mounted endpoints once Build has run.
	Routes []dispatch.Route
	// Comments is the documentation comment index, nil when docs are disabled.
	Comments *docs.CommentIndex

	gracefulTimeout time.Duration
	dispatchOpts    []dispatch.Option
	summaryOut      io.Writer
	telemetry       *observability.Providers
	built           bool
	onConfigure     []func(ctx context.Context, app *App[C]) error

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp creates a new application instance from a typed config.
// It applies defaults, validates the config, initializes the logger and
// registers the HTTP server component.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetServiceConfig()
	o := resolveOptions(opts)

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		Registry:        o.registry,
		gracefulTimeout: 15 * time.Second,
		dispatchOpts:    o.dispatch,
		summaryOut:      o.summaryOut,
	}
	if app.Registry == nil {
		app.Registry = registry.New()
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if app.summaryOut == nil {
		app.summaryOut = os.Stdout
	}

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	app.Components = component.NewRegistry(app.Logger)
	app.Server = server.New(base.Server, app.Logger)
	if err := app.Components.Register(server.NewComponent(app.Server)); err != nil {
		return nil, err
	}

	app.Summary = NewSummary(base.Name, base.Version)
	return app, nil
}

// RegisterComponent adds a component to the application's registry.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnConfigure registers a callback run at the start of Build, before any
// controller is wired. Use it to declare controllers and services that
// depend on the typed config.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// Build wires every controller and mounts its endpoints together with the
// not-found handler, health and info endpoints and, when enabled, the docs
// listing. A service that cannot be resolved fails the build. Build runs at
// most once; Run calls it.
func (a *App[C]) Build(ctx context.Context) (err error) {
	if a.built {
		return nil
	}
	defer func() {
		if err != nil {
			a.releaseTelemetry()
		}
	}()
	base := a.Cfg.GetServiceConfig()

	if err := a.configure(ctx); err != nil {
		return fmt.Errorf("configuration failed: %w", err)
	}

	metrics, err := a.initTelemetry(ctx)
	if err != nil {
		return err
	}

	a.Resolver = di.NewResolver(a.Registry, base.ResolverSettings(), di.WithLogger(a.Logger))
	controllers := a.Registry.Controllers()
	for _, ctl := range controllers {
		if err := a.Resolver.Wire(ctl.Instance, ctl.AutowireFields); err != nil {
			return fmt.Errorf("wiring controller %s: %w", ctl.Name, err)
		}
	}

	a.Server.ApplyMiddleware()

	opts := []dispatch.Option{dispatch.WithLogger(a.Logger), dispatch.WithMetrics(metrics)}
	routes, err := dispatch.Mount(a.Server.GinEngine(), controllers, append(opts, a.dispatchOpts...)...)
	if err != nil {
		return fmt.Errorf("mounting endpoints: %w", err)
	}
	a.Routes = routes

	a.Server.RegisterDefaultEndpoints(endpoint.Meta{
		Name:        a.Name,
		Environment: base.Environment,
		Version:     a.Version,
	}, a.Components.HealthAll)

	if base.Docs.Enabled {
		a.Comments = docs.NewCommentIndex(base.Docs.Roots, a.Logger)
		if err := a.Components.Register(a.Comments); err != nil {
			return err
		}
		a.Server.GinEngine().GET(base.Docs.Path, docs.Handler(docs.NewBridge(a.Registry, a.Comments)))
	}

	a.built = true
	a.Logger.Info("Application built", map[string]interface{}{
		"controllers": len(controllers),
		"routes":      len(routes),
		"services":    len(a.Resolver.Registrations()),
	})
	return nil
}

func (a *App[C]) initTelemetry(ctx context.Context) (*observability.EndpointMetrics, error) {
	base := a.Cfg.GetServiceConfig()
	providers, err := observability.Init(ctx, base.ServiceInfo(), base.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	a.telemetry = providers
	return observability.NewEndpointMetrics(observability.Meter(observability.InstrumentationName))
}

// releaseTelemetry shuts down providers installed by a Build that failed.
func (a *App[C]) releaseTelemetry() {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()
	if err := a.shutdownTelemetry(ctx); err != nil {
		a.Logger.Warn("Telemetry shutdown after failed build", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (a *App[C]) shutdownTelemetry(ctx context.Context) error {
	if a.telemetry == nil {
		return nil
	}
	err := a.telemetry.Shutdown(ctx)
	a.telemetry = nil
	return err
}

// Handler returns the root HTTP handler. Call Build first.
func (a *App[C]) Handler() http.Handler {
	return a.Server.Handler()
}

// ReadyCheck verifies that all registered components are healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	results := a.Components.HealthAll(ctx)
	var unhealthy []string
	for _, h := range results {
		if h.Status != component.StatusHealthy {
			detail := h.Name + "=" + string(h.Status)
			if h.Message != "" {
				detail += "(" + h.Message + ")"
			}
			unhealthy = append(unhealthy, detail)
		}
	}
	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy components: %v", unhealthy)
	}
	return nil
}

// Run executes the full application lifecycle:
// Build → start components → OnStart hooks → ReadyCheck → OnReady hooks →
// block on signal → OnStop hooks → graceful shutdown.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.stop()
}

func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()

	a.Logger.Info("Starting application", map[string]interface{}{
		"name":    a.Name,
		"version": a.Version,
	})

	if err := a.Build(ctx); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if err := a.Components.StartAll(ctx); err != nil {
		// Release whatever did start before the failure.
		_ = a.stop()
		return fmt.Errorf("initialization failed: %w", err)
	}

	if err := runHooks(ctx, a.onStart); err != nil {
		_ = a.stop()
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("Ready check reported issues", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := runHooks(ctx, a.onReady); err != nil {
		_ = a.stop()
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Summary.SetStartupDuration(time.Since(start))
	a.DisplaySummary(ctx)
	return nil
}

// DisplaySummary prints the startup summary to the configured output.
func (a *App[C]) DisplaySummary(ctx context.Context) {
	var services []di.RegistrationInfo
	if a.Resolver != nil {
		services = a.Resolver.Registrations()
	}
	a.Summary.Render(ctx, a.summaryOut, a.Components, services, a.Routes)
}

func (a *App[C]) configure(ctx context.Context) error {
	if len(a.onConfigure) == 0 {
		return nil
	}

	a.Logger.Debug("Running configuration callbacks", map[string]interface{}{
		"count": len(a.onConfigure),
	})

	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// WaitForSignal blocks until an OS interrupt/term signal or context cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal, graceful shutdown starting", map[string]interface{}{
			"signal": sig.String(),
		})
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown performs graceful shutdown. Use when managing your own lifecycle.
func (a *App[C]) Shutdown(ctx context.Context) error {
	return a.stop()
}

// stop runs the OnStop hooks, stops all components and flushes telemetry
// within the graceful timeout.
func (a *App[C]) stop() error {
	a.Logger.Info("Shutting down application", map[string]interface{}{
		"timeout": a.gracefulTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("OnStop hook error", map[string]interface{}{
			"error": err.Error(),
		})
		shutdownErr = err
	}

	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("Shutdown completed with errors", map[string]interface{}{
			"error": err.Error(),
		})
		shutdownErr = err
	}

	// Providers flush after the server has drained.
	if err := a.shutdownTelemetry(ctx); err != nil {
		a.Logger.Error("Telemetry shutdown error", map[string]interface{}{
			"error": err.Error(),
		})
		if shutdownErr == nil {
			shutdownErr = err
		}
	}

	a.Logger.Info("Application shutdown complete")
	return shutdownErr
}
