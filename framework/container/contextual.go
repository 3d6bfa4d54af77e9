package container

// ContextualBinder is a view of the container's bindings that applies only
// while scope is being built. It stores nothing itself.
//
//	// Laravel: $app->when(PhotoController::class)->needs(Filesystem::class)->give(S3::class)
//	c.When(container.Key[PhotoController]()).Bind(container.Key[Filesystem](), container.Class[*S3]())
type ContextualBinder struct {
	container *Container
	scope     string
}

// When starts a contextual binding for scope, the abstraction or class whose
// construction the bindings apply to.
func (c *Container) When(scope string) *ContextualBinder {
	return &ContextualBinder{container: c, scope: c.aliases.canonical(scope)}
}

// Bind overrides abstraction while the scope is being built. Contextual
// instances are never shared.
func (b *ContextualBinder) Bind(abstraction string, target Target) {
	b.container.rememberTarget(target)
	b.container.bindings.bind(b.container.aliases.canonical(abstraction), &binding{target: target}, b.scope)
}

// Unbind removes the override of abstraction for the scope.
func (b *ContextualBinder) Unbind(abstraction string) bool {
	return b.container.bindings.unbind(b.container.aliases.canonical(abstraction), b.scope)
}

// Needs starts the fluent form of Bind.
//
//	c.When("PhotoController").Needs("$path").GiveValue("/tmp/photos")
func (b *ContextualBinder) Needs(abstraction string) *ContextualBuilder {
	return &ContextualBuilder{binder: b, needs: abstraction}
}

// ContextualBuilder implements the fluent contextual binding API.
type ContextualBuilder struct {
	binder *ContextualBinder
	needs  string
}

// Give provides the target used when the scope resolves the needed abstract.
func (b *ContextualBuilder) Give(target Target) {
	b.binder.Bind(b.needs, target)
}

// GiveFactory is Give with a closure.
func (b *ContextualBuilder) GiveFactory(f Factory) {
	b.Give(Closure(f))
}

// GiveValue is a shorthand for Give when the value is a simple scalar or
// pre-built instance (no factory logic needed).
//
//	// Laravel: ->give('/tmp/photos')
//	c.When("PhotoController").Needs("$storagePath").GiveValue("/tmp/photos")
func (b *ContextualBuilder) GiveValue(value any) {
	b.Give(Value(value))
}
