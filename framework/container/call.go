package container

import (
	"context"
	"errors"
	"maps"
	"reflect"
)

// Callable is a function with named parameters, for Wrap and Call.
type Callable struct {
	fn    reflect.Value
	names []string
}

// Func names the parameters of fn positionally so they can be given explicit
// params and "$name" value bindings.
//
//	c.Call(container.Func(sendReport, "month", "mailer"), container.Params{"month": 3})
func Func(fn any, names ...string) Callable {
	return Callable{fn: reflect.ValueOf(fn), names: names}
}

// Deferred is a function whose parameters are injected when it is invoked.
type Deferred struct {
	c      *Container
	fn     reflect.Value
	sig    Signature
	params Params
}

// Wrap prepares fn for injection. fn is a func or a Callable; params are
// captured now and override injected values.
//
//	// Laravel: $app->wrap([$report, 'send'], ['month' => 3])
//	send, err := c.Wrap(container.Func(report.Send, "month"), container.Params{"month": 3})
//	out, err := send.Invoke(nil)
func (c *Container) Wrap(fn any, params Params) (*Deferred, error) {
	fv, names := reflect.ValueOf(fn), []string(nil)
	if cb, ok := fn.(Callable); ok {
		fv, names = cb.fn, cb.names
	}
	if !fv.IsValid() || fv.Kind() != reflect.Func || fv.IsNil() {
		return nil, &UninstantiableError{Abstraction: describe(fv), Cause: errors.New("not a function")}
	}

	owner := funcName(fv)
	sig, err := c.inspector.Function(fv.Type(), names)
	if err != nil {
		return nil, &UninstantiableError{Abstraction: owner, Cause: err}
	}
	sig.Owner = owner

	return &Deferred{c: c.root(), fn: fv, sig: sig, params: maps.Clone(params)}, nil
}

// Call wraps fn and invokes it at once.
//
//	// Laravel: $app->call([$report, 'send'])
func (c *Container) Call(fn any, params Params) ([]any, error) {
	d, err := c.Wrap(fn, params)
	if err != nil {
		return nil, err
	}
	return d.InvokeContext(c.context(), nil)
}

// Invoke calls the function. params override those captured by Wrap, which
// override injected values.
//
// The function's results are returned in order. If its last result is a
// non-nil error, that error is also returned as err.
func (d *Deferred) Invoke(params Params) ([]any, error) {
	return d.InvokeContext(context.Background(), params)
}

// InvokeContext is Invoke with a context bounding waits on shared instances.
func (d *Deferred) InvokeContext(ctx context.Context, params Params) ([]any, error) {
	merged := make(Params, len(d.params)+len(params))
	maps.Copy(merged, d.params)
	maps.Copy(merged, params)

	s := d.c.session(ctx)
	args, err := s.resolveArgs(d.sig, merged)
	if err != nil {
		return nil, err
	}
	out, err := invoke(d.sig.Owner, d.fn, args)
	if err != nil {
		return nil, err
	}

	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	if n := len(out); n > 0 && d.fn.Type().Out(n-1) == errorType && !out[n-1].IsNil() {
		return results, out[n-1].Interface().(error)
	}
	return results, nil
}
