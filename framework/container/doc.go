// Package container provides a Laravel-compatible IoC (Inversion of Control)
// container and Service Provider system for Go.
//
// # Overview
//
// The container maps abstractions (string keys, usually derived from Go types
// with Key or TypeKey) to bindings, and builds object graphs by reflecting
// over struct fields and constructor signatures. It supports transient and
// shared bindings, pre-built instances, aliases, contextual bindings, function
// injection, tags and extension (decoration).
//
// It mirrors the public API of Laravel's Illuminate\Container\Container as
// closely as Go's type system allows. Go has no constructor parameter names,
// so a struct's exported fields play the role of constructor parameters, and
// constructor functions name theirs explicitly.
//
// # Container Lifecycle
//
//  1. Create: c := container.New(container.WithLogger(log))
//  2. Register providers: registry.Register(&MyProvider{})
//  3. Boot: registry.Boot() (safe to resolve everything after this)
//  4. Serve requests
//
// # Bindings
//
//	// Transient: new instance every Make()
//	// Laravel: $app->bind(Mailer::class, SmtpMailer::class)
//	c.Bind(container.Key[Mailer](), container.Class[*SMTPMailer]())
//
//	// Singleton: created once, reused
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache)
//	c.Singleton("cache", container.Closure(func(c *container.Container, _ container.Params) (any, error) {
//	    cfg, err := container.Resolve[*config.Config](c, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return cache.NewRedis(cfg), nil
//	}))
//
//	// Constructor function, parameters named for explicit params
//	c.Bind(container.Key[Store](), container.Constructor(NewSQLStore, "dsn"))
//
//	// Pre-built value
//	// Laravel: $app->instance(Config::class, $config)
//	c.Share("config", cfg)
//
//	// Alias
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cache", container.Key[Cache]())
//
// # Resolving
//
//	// Untyped
//	// Laravel: $app->make(Cache::class)
//	raw, err := c.Make("cache")
//
//	// Generic (no type assertion required)
//	cache, err := container.Resolve[*RedisCache](c, "cache")
//	svc, err := container.Get[*ReportService](c) // autowired
//
// # Autowiring
//
// Exported struct fields are resolved in order. Interface, struct and
// pointer-to-struct fields are resolved from the container by their type key.
// Other fields are primitives: they take an explicit param, then a "$name"
// value binding, then their default tag.
//
//	type ReportService struct {
//	    Store   Store
//	    Mailer  Mailer        `inject:",optional"`
//	    Timeout time.Duration `default:"5s"`
//	}
//
//	c.Bind("$timeout", container.Value(30*time.Second))
//
// # Contextual Binding
//
//	// Laravel: $app->when(PhotoController::class)
//	//              ->needs(Filesystem::class)
//	//              ->give(S3Filesystem::class)
//	c.When(container.Key[PhotoController]()).
//	    Needs(container.Key[Filesystem]()).
//	    Give(container.Class[*S3Filesystem]())
//
//	// Primitive override for a single class
//	c.When(container.Key[PhotoController]()).Needs("$path").GiveValue("/tmp/photos")
//
// # Factories
//
// A Closure receives the resolution view it runs in. Resolve dependencies
// through that c, not through a root *Container captured by the closure: the
// view carries the construction stack used for contextual bindings and cycle
// detection, and the caller's context. A singleton factory that resolves its
// own abstraction through a captured root handle starts a new resolution that
// waits on the build it is part of, and never returns.
//
//	c.Singleton("mailer", container.Closure(func(c *container.Container, _ container.Params) (any, error) {
//	    cfg, err := container.Resolve[*config.Config](c, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewMailer(cfg), nil
//	}))
//
// # Function Injection
//
//	// Laravel: $app->call([$report, 'send'], ['month' => 3])
//	out, err := c.Call(container.Func(report.Send, "month", "mailer"), container.Params{"month": 3})
//
// # Tags
//
//	c.Tag([]string{"CpuReport", "MemReport"}, "reports")
//	reports, err := c.Tagged("reports")  // []any
//
// # Extend / Decorate
//
//	c.Extend("logger", func(instance any, c *container.Container) any {
//	    return &TimestampLogger{Inner: instance.(*Logger)}
//	})
//
// # Errors
//
// Failures are returned, never panicked: UninstantiableError,
// NotResolvableError, CircularAliasError, CircularDependencyError and
// BuildError, each matchable with errors.Is against its Err* sentinel.
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) {
//	    app.Singleton(container.Key[Mailer](), container.Class[*SMTPMailer]())
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot()
//
// # Deferred Providers
//
//	type HeavyProvider struct{ container.BaseProvider }
//
//	func (p *HeavyProvider) IsDeferred() bool     { return true }
//	func (p *HeavyProvider) Provides() []string   { return []string{"heavy"} }
//	func (p *HeavyProvider) Register(app *container.Container) {
//	    app.Singleton("heavy", container.Closure(heavySetup)) // only on first app.Make("heavy")
//	}
package container
