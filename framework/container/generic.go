package container

import (
	"fmt"
	"reflect"
)

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Make and type-asserts the result.
//
//	// Instead of: v, err := c.Make("db"); db := v.(*sql.DB)
//	// Write:      db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, abstraction string) (T, error) {
	inst, err := c.Make(abstraction)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](abstraction, inst)
}

// MustResolve is like Resolve but panics on failure. Meant for bootstrap code.
func MustResolve[T any](c *Container, abstraction string) T {
	v, err := Resolve[T](c, abstraction)
	if err != nil {
		panic(err)
	}
	return v
}

// Get resolves T by its type key. Unbound struct types are autowired.
//
//	svc, err := container.Get[*ReportService](c)
func Get[T any](c *Container) (T, error) {
	t := reflect.TypeFor[T]()
	c.types.remember(t)
	key := typeName(t)
	inst, err := c.session(c.context()).resolve(key, nil, t)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](key, inst)
}

func as[T any](abstraction string, inst any) (T, error) {
	if typed, ok := inst.(T); ok {
		return typed, nil
	}
	// *S bound where S was asked for
	if rv := reflect.ValueOf(inst); rv.Kind() == reflect.Pointer && !rv.IsNil() {
		if typed, ok := rv.Elem().Interface().(T); ok {
			return typed, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("container: [%s] resolved to %T, not %s", abstraction, inst, reflect.TypeFor[T]())
}
