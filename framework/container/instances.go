package container

import (
	"context"
	"fmt"
	"sync"
)

// instanceCache holds resolved singletons. Builds of the same key are
// claimed so only one goroutine ever runs the constructor; the others wait
// for it to publish.
type instanceCache struct {
	mu       sync.Mutex
	values   map[string]any
	inflight map[string]*claim
}

// claim is an in-progress build of a shared abstraction.
type claim struct {
	done  chan struct{}
	value any
	err   error
}

func newInstanceCache() *instanceCache {
	return &instanceCache{
		values:   make(map[string]any),
		inflight: make(map[string]*claim),
	}
}

func (c *instanceCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// set stores v and invalidates any build in flight for key, so the late
// result of that build is handed to its waiters but never stored.
func (c *instanceCache) set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = v
	delete(c.inflight, key)
}

// delete forgets key, reporting whether an instance was cached.
func (c *instanceCache) delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	delete(c.values, key)
	delete(c.inflight, key)
	return ok
}

func (c *instanceCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.values))
	for k := range c.values {
		out = append(out, k)
	}
	return out
}

// resolve returns the cached instance for key, or claims the key and runs
// build. Concurrent callers for the same key block until the claimant
// publishes, or until their ctx is done. A failed build stores nothing and its
// error is returned to every waiter.
//
// hit reports whether the value came from the cache or another goroutine's build.
func (c *instanceCache) resolve(ctx context.Context, key string, build func() (any, error)) (v any, hit bool, err error) {
	c.mu.Lock()
	if v, ok := c.values[key]; ok {
		c.mu.Unlock()
		return v, true, nil
	}
	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-cl.done:
			return cl.value, true, cl.err
		case <-ctx.Done():
			return nil, false, fmt.Errorf("container: waiting for shared [%s]: %w", key, ctx.Err())
		}
	}
	cl := &claim{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.inflight[key] == cl {
			delete(c.inflight, key)
			if cl.err == nil {
				c.values[key] = cl.value
			}
		}
		c.mu.Unlock()
		close(cl.done)
	}()

	// stays set if build panics, so nothing is published
	cl.err = fmt.Errorf("container: build of shared [%s] aborted", key)
	cl.value, cl.err = build()
	return cl.value, false, cl.err
}

func (c *instanceCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]any)
	c.inflight = make(map[string]*claim)
}
