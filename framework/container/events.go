package container

import "go.uber.org/zap"

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates the resolved instance of an abstract.
//
//	// Laravel: $app->extend(Logger::class, fn($logger, $app) => new TimestampLogger($logger))
//	c.Extend("logger", func(instance any, c *container.Container) any {
//	    return logging.NewTimestampWrapper(instance.(*Logger))
//	})
func (c *Container) Extend(abstraction string, fn Extender) {
	key := c.aliases.canonical(abstraction)
	c.mu.Lock()
	c.extenders[key] = append(c.extenders[key], fn)
	c.mu.Unlock()

	// Already resolved as singleton: decorate it in place and refire rebound
	if inst, ok := c.instances.get(key); ok {
		extended := fn(inst, c.root())
		c.instances.set(key, extended)
		c.fireRebound(key, extended)
	}
}

func (c *Container) applyExtenders(key string, instance any) any {
	c.mu.RLock()
	exts := c.extenders[key]
	c.mu.RUnlock()
	for _, ext := range exts {
		instance = ext(instance, c)
	}
	return instance
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates multiple abstracts under a named group.
//
//	// Laravel: $app->tag([CpuReport::class, MemoryReport::class], 'reports')
//	c.Tag([]string{"CpuReport", "MemoryReport"}, "reports")
func (c *Container) Tag(abstractions []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], abstractions...)
}

// Tagged resolves all abstracts registered under a tag, in tagging order.
//
//	// Laravel: $app->tagged('reports')
//	reports, err := c.Tagged("reports")
func (c *Container) Tagged(tag string) ([]any, error) {
	c.mu.RLock()
	abstractions := append([]string(nil), c.tags[tag]...)
	c.mu.RUnlock()

	result := make([]any, 0, len(abstractions))
	for _, abs := range abstractions {
		inst, err := c.Make(abs)
		if err != nil {
			return nil, err
		}
		result = append(result, inst)
	}
	return result, nil
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// Rebinding registers a callback called with the fresh instance whenever an
// already resolved abstract is bound again.
//
//	// Laravel: $app->rebinding(UserRepository::class, fn($app, $repo) => ...)
func (c *Container) Rebinding(abstraction string, cb func(any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reboundCallbacks[abstraction] = append(c.reboundCallbacks[abstraction], cb)
}

// AfterResolving registers a callback fired after any abstract is built.
// Instances served from the shared cache do not fire it again.
//
//	// Laravel: $app->afterResolving(fn($object, $app) => ...)
func (c *Container) AfterResolving(cb func(abstraction string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

// rebound resolves abstraction again and hands it to its rebound callbacks.
func (c *Container) rebound(abstraction string) {
	c.mu.RLock()
	n := len(c.reboundCallbacks[abstraction])
	c.mu.RUnlock()
	if n == 0 {
		return
	}
	inst, err := c.root().Make(abstraction)
	if err != nil {
		c.log.Warn("rebound resolution failed", zap.String("abstraction", abstraction), zap.Error(err))
		return
	}
	c.fireRebound(abstraction, inst)
}

func (c *Container) fireRebound(abstraction string, instance any) {
	c.mu.RLock()
	cbs := c.reboundCallbacks[abstraction]
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(instance)
	}
}

func (c *Container) fireAfterResolving(abstraction string, instance any) {
	c.mu.RLock()
	cbs := c.afterResolving
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(abstraction, instance)
	}
}
