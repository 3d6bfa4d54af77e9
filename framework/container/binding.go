package container

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// ── Targets ───────────────────────────────────────────────────────────────────

// Params carries explicit constructor or function arguments keyed by
// parameter name. Matching is exact and case-sensitive.
type Params map[string]any

// Factory builds a value for an abstraction. c is the resolving container:
// calls to c.Make from inside the factory see the factory's abstraction as the
// current scope. params are the explicit parameters handed to MakeWith.
// Resolve through c rather than a captured root handle; a shared factory
// resolving its own abstraction from the root deadlocks.
//
//	// Laravel: $app->bind(Cache::class, fn($app, $params) => new RedisCache($app))
type Factory func(c *Container, params Params) (any, error)

type targetKind uint8

const (
	classTarget targetKind = iota + 1
	factoryTarget
	valueTarget
)

func (k targetKind) String() string {
	switch k {
	case classTarget:
		return "class"
	case factoryTarget:
		return "closure"
	case valueTarget:
		return "value"
	default:
		return "none"
	}
}

// Target is what a binding turns an abstraction into: a concrete class, a
// closure, or a raw value. Build one with Class, Constructor, Closure or Value.
type Target struct {
	kind    targetKind
	class   *concrete
	factory Factory
	value   any
}

// concrete is an instantiable class: either a struct type populated field by
// field, or a constructor function called with resolved arguments.
type concrete struct {
	name  string
	typ   reflect.Type // struct type, or the constructor's first result type
	ptr   bool         // struct classes: produce *S instead of S
	fn    reflect.Value
	names []string
}

// Class targets the struct type T (S or *S). Its exported fields are resolved
// as constructor parameters.
//
//	c.Bind(container.Key[Mailer](), container.Class[*SMTPMailer]())
func Class[T any]() Target {
	return Target{kind: classTarget, class: classOf(reflect.TypeFor[T]())}
}

// ClassOf is Class for a reflect.Type known only at runtime.
func ClassOf(t reflect.Type) Target {
	return Target{kind: classTarget, class: classOf(t)}
}

func classOf(t reflect.Type) *concrete {
	if t == nil {
		return &concrete{name: "<nil>"}
	}
	cl := &concrete{name: typeName(t), typ: t}
	if t.Kind() == reflect.Pointer {
		cl.typ, cl.ptr = t.Elem(), true
	}
	return cl
}

// Constructor targets a constructor function returning T or (T, error). Its
// parameters are resolved in order; names label them positionally so they can
// receive explicit params and "$name" value bindings. Parameters past the
// given names are called arg<N>.
//
// Constructor panics if fn is not a valid constructor.
//
//	c.Bind(container.Key[Store](), container.Constructor(NewSQLStore, "dsn", "logger"))
func Constructor(fn any, names ...string) Target {
	v := reflect.ValueOf(fn)
	if err := checkConstructor(v); err != nil {
		panic(err.Error())
	}
	out := v.Type().Out(0)
	return Target{kind: classTarget, class: &concrete{
		name:  typeName(out),
		typ:   out,
		fn:    v,
		names: names,
	}}
}

func checkConstructor(v reflect.Value) error {
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Errorf("container: constructor must be a function, got %s", describe(v))
	}
	t := v.Type()
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errorType {
			return fmt.Errorf("container: constructor %s must return a value or (value, error)", t)
		}
	default:
		return fmt.Errorf("container: constructor %s must return a value or (value, error)", t)
	}
	return nil
}

// Closure targets a factory function.
func Closure(f Factory) Target {
	return Target{kind: factoryTarget, factory: f}
}

// Value targets a raw value, returned as is.
//
//	c.Bind("$timeout", container.Value(30*time.Second))
func Value(v any) Target {
	return Target{kind: valueTarget, value: v}
}

// String describes the target for logs and debugging.
func (t Target) String() string {
	switch t.kind {
	case classTarget:
		return "class " + t.class.name
	case factoryTarget:
		return "closure"
	case valueTarget:
		return fmt.Sprintf("value %T", t.value)
	default:
		return "none"
	}
}

// ── BindingStore ──────────────────────────────────────────────────────────────

// binding is a registered rule for an abstraction.
type binding struct {
	target Target
	shared bool

	// load is set on deferred provider placeholders. It registers the
	// provider, which replaces the placeholder with the real binding.
	load func()
}

type scopedKey struct {
	abstraction string
	scope       string
}

// bindingStore holds plain bindings and contextual ones keyed by the scope
// under which they apply. It is the single source of truth for both.
type bindingStore struct {
	mu     sync.RWMutex
	plain  map[string]*binding
	scoped map[scopedKey]*binding
}

func newBindingStore() *bindingStore {
	return &bindingStore{
		plain:  make(map[string]*binding),
		scoped: make(map[scopedKey]*binding),
	}
}

// bind stores or overwrites a binding. An empty scope stores it unscoped.
func (s *bindingStore) bind(abstraction string, b *binding, scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scope == "" {
		s.plain[abstraction] = b
		return
	}
	s.scoped[scopedKey{abstraction, scope}] = b
}

// lookup returns the first scoped binding matching one of scopes, then the
// unscoped binding. scoped reports which one was found.
func (s *bindingStore) lookup(abstraction string, scopes ...string) (b *binding, scoped bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, scope := range scopes {
		if scope == "" {
			continue
		}
		if b, ok := s.scoped[scopedKey{abstraction, scope}]; ok {
			return b, true
		}
	}
	return s.plain[abstraction], false
}

func (s *bindingStore) bound(abstraction string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.plain[abstraction]
	return ok
}

func (s *bindingStore) hasScoped(abstraction string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k := range s.scoped {
		if k.abstraction == abstraction {
			return true
		}
	}
	return false
}

// unbind removes the entry for (abstraction, scope), reporting whether it existed.
func (s *bindingStore) unbind(abstraction, scope string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scope == "" {
		_, ok := s.plain[abstraction]
		delete(s.plain, abstraction)
		return ok
	}
	k := scopedKey{abstraction, scope}
	_, ok := s.scoped[k]
	delete(s.scoped, k)
	return ok
}

// drop removes the abstraction's plain binding and every scoped one.
func (s *bindingStore) drop(abstraction string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plain, abstraction)
	for k := range s.scoped {
		if k.abstraction == abstraction {
			delete(s.scoped, k)
		}
	}
}

// keys returns the unscoped abstractions, sorted.
func (s *bindingStore) keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.plain))
	for k := range s.plain {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (s *bindingStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plain = make(map[string]*binding)
	s.scoped = make(map[scopedKey]*binding)
}
