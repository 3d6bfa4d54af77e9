package container

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// produce builds key from its binding and runs the post-build pipeline:
// extenders, resolved bookkeeping and callbacks.
func (c *Container) produce(key string, b *binding, params Params) (any, error) {
	start := time.Now()
	inst, err := c.instantiate(key, b, params)
	c.observer.Built(key, time.Since(start), err)
	if err != nil {
		c.log.Debug("build failed", zap.String("abstraction", key), zap.Error(err))
		return nil, err
	}

	inst = c.applyExtenders(key, inst)
	c.markResolved(key)
	c.fireAfterResolving(key, inst)

	c.log.Debug("built",
		zap.String("abstraction", key),
		zap.Stringer("target", b.target),
		zap.Duration("elapsed", time.Since(start)))
	return inst, nil
}

// instantiate turns a binding into a value while key is on the stack. The
// frame is popped whatever happens.
func (c *Container) instantiate(key string, b *binding, params Params) (any, error) {
	c.stack.push(key, b)
	defer c.stack.pop()

	switch b.target.kind {
	case valueTarget:
		return b.target.value, nil
	case factoryTarget:
		return c.callFactory(key, b.target.factory, params)
	case classTarget:
		return c.build(b.target.class, params)
	default:
		return nil, &UninstantiableError{Abstraction: key, Cause: errors.New("binding has no target")}
	}
}

func (c *Container) callFactory(key string, f Factory, params Params) (inst any, err error) {
	if f == nil {
		return nil, &UninstantiableError{Abstraction: key, Cause: errors.New("nil closure")}
	}
	defer func() {
		if r := recover(); r != nil {
			inst, err = nil, &BuildError{Abstraction: key, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	inst, err = f(c, params)
	if err != nil {
		return nil, &BuildError{Abstraction: key, Cause: err}
	}
	return inst, nil
}

// ── Builder ───────────────────────────────────────────────────────────────────

// build instantiates a class. The class becomes the scope contextual bindings
// are looked up under while its parameters resolve.
func (c *Container) build(cl *concrete, params Params) (any, error) {
	if cl == nil || cl.typ == nil {
		return nil, &UninstantiableError{Abstraction: "<nil>"}
	}
	if below := c.stack.depth() - 1; c.stack.hasConcrete(cl.name, below) {
		return nil, &CircularDependencyError{Abstraction: cl.name, Path: c.stack.path(below, cl.name)}
	}
	c.stack.setConcrete(cl.name)

	if cl.fn.IsValid() {
		return c.construct(cl, params)
	}

	if !c.inspector.Instantiable(cl.typ) {
		return nil, &UninstantiableError{Abstraction: cl.name}
	}
	sig, err := c.inspector.Constructor(cl.typ)
	if err != nil {
		return nil, &UninstantiableError{Abstraction: cl.name, Cause: err}
	}

	ptr := reflect.New(cl.typ)
	obj := ptr.Elem()
	for _, p := range sig.Params {
		v, err := c.resolveParam(sig.Owner, p, params)
		if err != nil {
			return nil, err
		}
		obj.FieldByIndex(p.field).Set(v)
	}

	if cl.ptr {
		return ptr.Interface(), nil
	}
	return obj.Interface(), nil
}

// construct calls a constructor function with resolved arguments.
func (c *Container) construct(cl *concrete, params Params) (any, error) {
	sig, err := c.inspector.Function(cl.fn.Type(), cl.names)
	if err != nil {
		return nil, &UninstantiableError{Abstraction: cl.name, Cause: err}
	}
	sig.Owner = cl.name

	args, err := c.resolveArgs(sig, params)
	if err != nil {
		return nil, err
	}
	out, err := invoke(cl.name, cl.fn, args)
	if err != nil {
		return nil, err
	}
	if len(out) == 2 && !out[1].IsNil() {
		return nil, &BuildError{Abstraction: cl.name, Cause: out[1].Interface().(error)}
	}
	return out[0].Interface(), nil
}

// resolveArgs resolves every parameter of sig in declaration order.
func (c *Container) resolveArgs(sig Signature, params Params) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(sig.Params))
	for i, p := range sig.Params {
		v, err := c.resolveParam(sig.Owner, p, params)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// resolveParam fills one parameter. Explicit params win; class parameters
// come from the container; primitives come from the "$name" abstraction, then
// from their default.
func (c *Container) resolveParam(owner string, p Param, params Params) (reflect.Value, error) {
	if v, ok := params[p.Name]; ok {
		return assign(owner, p, v)
	}

	if p.Class {
		c.types.remember(p.Type)
		inst, err := c.resolve(typeName(p.Type), nil, p.Type)
		if err != nil {
			if p.Optional && isResolutionFailure(err) {
				return p.fallback(), nil
			}
			if errors.Is(err, ErrCircularDependency) {
				return reflect.Value{}, err
			}
			return reflect.Value{}, &NotResolvableError{Param: p.Name, Owner: owner, Cause: err}
		}
		return assign(owner, p, inst)
	}

	// "$name" resolves like any abstraction: aliases, shared values and
	// bindings scoped to the class being built all apply.
	v, err := c.resolve("$"+p.Name, nil, nil)
	if err == nil {
		return assign(owner, p, v)
	}
	if _, missing := err.(*UninstantiableError); !missing {
		return reflect.Value{}, err
	}
	if p.HasDefault || p.Optional {
		return p.fallback(), nil
	}
	return reflect.Value{}, &NotResolvableError{Param: p.Name, Owner: owner}
}

// assign converts v to the parameter's type.
func assign(owner string, p Param, v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(p.Type), nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(p.Type):
		return rv, nil
	case rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Type().AssignableTo(p.Type):
		return rv.Elem(), nil
	case convertible(rv.Type(), p.Type):
		return rv.Convert(p.Type), nil
	}
	return reflect.Value{}, &BuildError{
		Abstraction: owner,
		Cause:       fmt.Errorf("parameter %q: cannot use %s as %s", p.Name, rv.Type(), p.Type),
	}
}

// convertible allows numeric to numeric and string to string conversions only.
func convertible(from, to reflect.Type) bool {
	switch {
	case isNumeric(from.Kind()) && isNumeric(to.Kind()):
		return true
	case from.Kind() == reflect.String && to.Kind() == reflect.String:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

// invoke calls fn, turning a panic into a BuildError.
func invoke(owner string, fn reflect.Value, args []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &BuildError{Abstraction: owner, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	if fn.Type().IsVariadic() {
		return fn.CallSlice(args), nil
	}
	return fn.Call(args), nil
}
