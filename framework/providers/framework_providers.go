package providers

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/km-arc/go-injector/framework/config"
	"github.com/km-arc/go-injector/framework/container"
	"github.com/km-arc/go-injector/framework/metrics"
	"github.com/km-arc/go-injector/framework/routing"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads the application configuration from .env and
// shares it in the container as "config". Every env file key also becomes a
// "$name" value binding, so MAILER_HOST fills a field named Host tagged
// `inject:"mailerHost"`.
//
// Bound abstracts:
//   - "config"  → *config.Config
//   - container.Key[config.Config]() (alias of "config")
//   - "$appPort", "$mailerHost", ... → string values
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->instance('config', $config = new Repository($items));
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string

	// Config is shared as is when set; EnvFiles are not read.
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(app *container.Container) {
	cfg := p.Config
	if cfg == nil {
		cfg = config.Load(p.EnvFiles...)
	}
	app.Share("config", cfg)
	app.Alias(container.Key[config.Config](), "config")

	for name, value := range cfg.Params() {
		app.Bind("$"+name, container.Value(value))
	}
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider binds the application logger.
//
// Bound abstracts:
//   - "log" → *zap.Logger
//   - container.Key[zap.Logger]() (alias of "log")
//
// Laravel equivalent:
//
//	// Illuminate\Log\LogServiceProvider
//	$app->singleton('log', fn($app) => new LogManager($app));
type LogServiceProvider struct {
	container.BaseProvider

	// Logger is shared as is when set; otherwise one is built from "config".
	Logger *zap.Logger
}

func (p *LogServiceProvider) Register(app *container.Container) {
	if p.Logger != nil {
		app.Share("log", p.Logger)
	} else {
		app.Singleton("log", container.Closure(func(c *container.Container, _ container.Params) (any, error) {
			cfg, err := container.Resolve[*config.Config](c, "config")
			if err != nil {
				return nil, err
			}
			return NewLogger(cfg.App)
		}))
	}
	app.Alias(container.Key[zap.Logger](), "log")
}

// NewLogger builds a zap logger for the application: a development logger
// when debugging, a production JSON logger otherwise, at app.LogLevel.
func NewLogger(app config.AppConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(app.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", app.LogLevel, err)
	}

	zc := zap.NewProductionConfig()
	if app.Debug {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	log, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("app", app.Name), zap.String("env", app.Env)), nil
}

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider binds the Prometheus registry and the resolution
// metrics collector. Pass the collector the container was created with
// (container.WithObserver) so the metrics it serves are the live ones.
//
// Bound abstracts:
//   - "metrics.registry" → *prometheus.Registry
//   - "metrics"          → *metrics.Collector
type MetricsServiceProvider struct {
	container.BaseProvider
	Registry  *prometheus.Registry
	Collector *metrics.Collector
}

func (p *MetricsServiceProvider) Register(app *container.Container) {
	reg := p.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	app.Share("metrics.registry", reg)
	app.Alias(container.Key[prometheus.Registry](), "metrics.registry")

	if p.Collector != nil {
		app.Share("metrics", p.Collector)
	} else {
		app.Singleton("metrics", container.Closure(func(*container.Container, container.Params) (any, error) {
			return metrics.New(reg)
		}))
	}
	app.Alias(container.Key[metrics.Collector](), "metrics")
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router. At boot it serves
// /metrics when a registry is bound, and /debug/bindings in debug mode.
//
// Bound abstracts:
//   - "router"  → *routing.Router
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) {
	app.Singleton("router", container.Closure(func(c *container.Container, _ container.Params) (any, error) {
		// the router outlives this resolution, so it keeps the root container
		root, err := container.Resolve[*container.Container](c, "container")
		if err != nil {
			return nil, err
		}
		log := zap.NewNop()
		if c.Bound("log") {
			if log, err = container.Resolve[*zap.Logger](c, "log"); err != nil {
				return nil, err
			}
		}
		return routing.New(root, log.Named("http")), nil
	}))
	app.Alias(container.Key[routing.Router](), "router")
}

func (p *RoutingServiceProvider) Boot(app *container.Container) {
	router := container.MustResolve[*routing.Router](app, "router")

	if app.Bound("metrics.registry") {
		reg := container.MustResolve[*prometheus.Registry](app, "metrics.registry")
		router.Mount("/metrics", metrics.Handler(reg))
	}

	if cfg, err := container.Resolve[*config.Config](app, "config"); err == nil && cfg.App.Debug {
		router.Get("/debug/bindings", router.Action(func(c *container.Container) []string {
			return c.Bindings()
		}, "app"))
	}
}
