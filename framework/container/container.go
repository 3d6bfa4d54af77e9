package container

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Extender decorates a resolved instance.
type Extender func(instance any, c *Container) any

// state is everything a Container and its resolution views share.
type state struct {
	aliases   *aliasTable
	bindings  *bindingStore
	instances *instanceCache
	types     *typeRegistry
	inspector Inspector
	log       *zap.Logger
	observer  Observer

	mu               sync.RWMutex
	extenders        map[string][]Extender
	tags             map[string][]string
	reboundCallbacks map[string][]func(any)
	afterResolving   []func(string, any)
	resolved         map[string]bool
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the IoC container, mirroring Laravel's Illuminate\Container\Container.
//
// It supports:
//   - Bind / Singleton / Share / Alias / Unbind / Drop
//   - Make / MakeWith / MakeContext, generic Resolve and Get
//   - Autowiring of struct types through their exported fields
//   - Contextual binding (when A is built, give it C instead of B)
//   - Wrap / Call (function injection) and Factory closures
//   - Tags, Extend, rebound and resolved callbacks
//
// The root Container returned by New is safe for concurrent use. Factories
// receive a resolution view of it that carries the current construction
// stack; a view belongs to a single resolution and must not be shared.
type Container struct {
	*state

	ctx   context.Context
	stack *constructionStack
}

// New creates an empty container.
func New(opts ...Option) *Container {
	s := &state{
		aliases:   newAliasTable(),
		bindings:  newBindingStore(),
		instances: newInstanceCache(),
		types:     &typeRegistry{},
		inspector: NewReflectInspector(),
		log:       zap.NewNop(),
		observer:  nopObserver{},
	}
	s.resetCallbacks()
	for _, opt := range opts {
		opt(s)
	}
	c := &Container{state: s}
	c.seed()
	return c
}

// seed binds the container to itself, like Laravel's $app->instance('app', $app).
func (c *Container) seed() {
	key := Key[*Container]()
	c.instances.set(key, c)
	c.aliases.set("container", key)
}

func (s *state) resetCallbacks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extenders = make(map[string][]Extender)
	s.tags = make(map[string][]string)
	s.reboundCallbacks = make(map[string][]func(any))
	s.afterResolving = nil
	s.resolved = make(map[string]bool)
}

// root returns a handle without a construction stack.
func (c *Container) root() *Container {
	if c.stack == nil {
		return c
	}
	return &Container{state: c.state}
}

// session returns the view a resolution runs in. A root handle starts a new
// stack; a view keeps resolving on its own.
func (c *Container) session(ctx context.Context) *Container {
	if c.stack != nil {
		return &Container{state: c.state, ctx: ctx, stack: c.stack}
	}
	return &Container{state: c.state, ctx: ctx, stack: &constructionStack{}}
}

func (c *Container) context() context.Context {
	if c.ctx != nil {
		return c.ctx
	}
	return context.Background()
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient binding: every Make builds a new instance.
//
//	// Laravel: $app->bind(UserRepository::class, EloquentUserRepository::class)
//	c.Bind(container.Key[UserRepository](), container.Class[*SQLUserRepository]())
func (c *Container) Bind(abstraction string, target Target) {
	c.bind(abstraction, target, false)
}

// Singleton registers a shared binding: it is built once and reused.
//
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache($app))
//	c.Singleton("cache", container.Closure(func(c *container.Container, _ container.Params) (any, error) {
//	    return cache.NewRedis(), nil
//	}))
func (c *Container) Singleton(abstraction string, target Target) {
	c.bind(abstraction, target, true)
}

func (c *Container) bind(abstraction string, target Target, shared bool) {
	c.rememberTarget(target)

	// Drop stale state so the new binding takes precedence
	c.aliases.remove(abstraction)
	hadInstance := c.instances.delete(abstraction)
	wasResolved := hadInstance || c.wasResolved(abstraction)

	c.bindings.bind(abstraction, &binding{target: target, shared: shared}, "")
	c.log.Debug("bound",
		zap.String("abstraction", abstraction),
		zap.Stringer("target", target),
		zap.Bool("shared", shared))

	if wasResolved {
		c.rebound(abstraction)
	}
}

// bindDeferred installs a placeholder that runs load on first resolution.
// Like bind, it clears any shared instance or alias under that name.
func (c *Container) bindDeferred(abstraction string, load func()) {
	c.aliases.remove(abstraction)
	c.instances.delete(abstraction)
	c.forgetResolved(abstraction)
	c.bindings.bind(abstraction, &binding{load: load}, "")
}

// rememberTarget records a class target's type so it can be autowired by name.
func (c *Container) rememberTarget(target Target) {
	if target.kind != classTarget || target.class.typ == nil || target.class.fn.IsValid() {
		return
	}
	t := target.class.typ
	if target.class.ptr {
		t = reflect.PointerTo(t)
	}
	c.types.remember(t)
}

// Share registers a pre-built value as the shared instance of abstraction.
// Any binding or alias registered under that name is cleared.
//
//	// Laravel: $app->instance(Config::class, $config)
//	c.Share("config", cfg)
func (c *Container) Share(abstraction string, instance any) {
	wasBound := c.Bound(abstraction)
	c.aliases.remove(abstraction)
	c.bindings.unbind(abstraction, "")
	c.instances.set(abstraction, instance)
	if wasBound {
		c.fireRebound(abstraction, instance)
	}
}

// Alias registers name as another name for target.
//
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cache", container.Key[Cache]())
func (c *Container) Alias(name, target string) {
	c.aliases.set(name, target)
}

// Unalias removes the alias called name.
func (c *Container) Unalias(name string) {
	c.aliases.remove(name)
}

// Unbind removes the unscoped binding of abstraction and its shared instance.
// Contextual bindings are untouched; use When(scope).Unbind for those.
func (c *Container) Unbind(abstraction string) {
	c.bindings.unbind(abstraction, "")
	c.instances.delete(abstraction)
	c.forgetResolved(abstraction)
}

// Drop forgets everything registered under abstraction: its binding, every
// contextual binding of it, its shared instance and an alias of that name.
//
//	// Laravel: $app->offsetUnset(Cache::class)
func (c *Container) Drop(abstraction string) {
	c.bindings.drop(abstraction)
	c.instances.delete(abstraction)
	c.aliases.remove(abstraction)
	c.forgetResolved(abstraction)
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves an abstraction from the container.
//
//	// Laravel: $app->make(UserRepository::class)
//	repo, err := c.Make(container.Key[UserRepository]())
func (c *Container) Make(abstraction string) (any, error) {
	return c.MakeContext(c.context(), abstraction, nil)
}

// MakeWith resolves an abstraction with explicit parameters for its own
// constructor. The result is never taken from nor stored in the shared cache.
//
//	// Laravel: $app->makeWith(Report::class, ['month' => 3])
func (c *Container) MakeWith(abstraction string, params Params) (any, error) {
	return c.MakeContext(c.context(), abstraction, params)
}

// MakeContext is MakeWith with a context. ctx only bounds the time spent
// waiting for another goroutine to finish building a shared instance.
func (c *Container) MakeContext(ctx context.Context, abstraction string, params Params) (any, error) {
	return c.session(ctx).resolve(abstraction, params, nil)
}

// Factory returns a closure that resolves abstraction on every call.
//
//	newReport := c.Factory("report", container.Params{"month": 3})
//	r1, _ := newReport()
func (c *Container) Factory(abstraction string, overrides Params) func() (any, error) {
	root := c.root()
	return func() (any, error) {
		return root.MakeWith(abstraction, overrides)
	}
}

// resolve is the internal make. hint is the declared Go type when resolving a
// class parameter; it lets unbound structs be autowired.
func (c *Container) resolve(abstraction string, params Params, hint reflect.Type) (any, error) {
	key, err := c.aliases.resolve(abstraction)
	if err != nil {
		return nil, err
	}
	b, scoped := c.bindings.lookup(key, c.stack.scopes()...)
	if b != nil && b.load != nil {
		b.load()
		if next, _ := c.bindings.lookup(key); next == b {
			return nil, &UninstantiableError{
				Abstraction: key,
				Cause:       errors.New("deferred provider did not register it"),
			}
		}
		return c.resolve(abstraction, params, hint)
	}
	if b != nil && c.stack.building(b) {
		return nil, &CircularDependencyError{Abstraction: key, Path: c.stack.path(c.stack.depth(), key)}
	}
	contextual := scoped || len(params) > 0

	if !contextual {
		if inst, ok := c.instances.get(key); ok {
			c.observer.SharedHit(key)
			return inst, nil
		}
	}

	if b == nil {
		t := c.autowireType(key, hint)
		if t == nil {
			return nil, &UninstantiableError{Abstraction: key}
		}
		b = &binding{target: ClassOf(t)}
	}

	if b.shared && !contextual {
		inst, hit, err := c.instances.resolve(c.context(), key, func() (any, error) {
			return c.produce(key, b, params)
		})
		if hit && err == nil {
			c.observer.SharedHit(key)
		}
		return inst, err
	}
	return c.produce(key, b, params)
}

// autowireType returns the struct type to build for an unbound key, or nil.
func (c *Container) autowireType(key string, hint reflect.Type) reflect.Type {
	t := c.types.lookup(key)
	if hint != nil && typeName(hint) == key {
		t = hint
	}
	if !c.inspector.Instantiable(t) {
		return nil
	}
	return t
}

// ── Introspection ─────────────────────────────────────────────────────────────

// Bound returns true if an abstraction has a binding, a shared instance, or is an alias.
//
//	// Laravel: $app->bound(UserRepository::class)
func (c *Container) Bound(abstraction string) bool {
	if c.aliases.isAlias(abstraction) {
		return true
	}
	key := c.aliases.canonical(abstraction)
	if c.bindings.bound(key) {
		return true
	}
	_, ok := c.instances.get(key)
	return ok
}

// Knows reports whether Make could possibly succeed for abstraction: it is
// bound, contextually bound somewhere, or an autowirable struct type.
func (c *Container) Knows(abstraction string) bool {
	if c.Bound(abstraction) {
		return true
	}
	key := c.aliases.canonical(abstraction)
	return c.bindings.hasScoped(key) || c.inspector.Instantiable(c.types.lookup(key))
}

// Resolved returns true if the abstraction has been resolved at least once.
//
//	// Laravel: $app->resolved(Cache::class)
func (c *Container) Resolved(abstraction string) bool {
	key := c.aliases.canonical(abstraction)
	if _, ok := c.instances.get(key); ok {
		return true
	}
	return c.wasResolved(key)
}

// Bindings returns the sorted abstractions with a binding or shared instance.
func (c *Container) Bindings() []string {
	out := append(c.bindings.keys(), c.instances.keys()...)
	slices.Sort(out)
	return slices.Compact(out)
}

// Flush resets the entire container.
func (c *Container) Flush() {
	c.aliases.reset()
	c.bindings.reset()
	c.instances.reset()
	c.resetCallbacks()
	c.seed()
}

func (s *state) wasResolved(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolved[key]
}

func (s *state) markResolved(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved[key] = true
}

func (s *state) forgetResolved(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resolved, key)
}
