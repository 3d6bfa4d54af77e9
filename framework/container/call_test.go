package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-injector/framework/container"
)

// ── Wrap / Call ───────────────────────────────────────────────────────────────

func TestWrap_ParamPrecedence(t *testing.T) {
	c := newGraph(t)
	c.Bind("$month", container.Value(1))

	report := func(month int, a AInterface) int {
		if a == nil {
			return -1
		}
		return month
	}

	injected, err := c.Wrap(container.Func(report, "month"), nil)
	require.NoError(t, err)
	out, err := injected.Invoke(nil)
	require.NoError(t, err)
	assert.Equal(t, []any{1}, out, "value binding fills the primitive")

	wrapped, err := c.Wrap(container.Func(report, "month"), container.Params{"month": 2})
	require.NoError(t, err)
	out, err = wrapped.Invoke(nil)
	require.NoError(t, err)
	assert.Equal(t, []any{2}, out, "wrap-time params beat bindings")

	out, err = wrapped.Invoke(container.Params{"month": 3})
	require.NoError(t, err)
	assert.Equal(t, []any{3}, out, "invocation params beat wrap-time params")
}

func TestCall_InjectsClassParameters(t *testing.T) {
	c := newGraph(t)

	out, err := c.Call(func(d DInterface, b BInterface) string {
		return d.Dependency().Name() + b.Name()
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"BB"}, out)
}

func TestCall_ReturnsTrailingError(t *testing.T) {
	c := container.New()

	out, err := c.Call(func() (int, error) { return 7, errBoom }, nil)
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, []any{7, errBoom}, out)

	out, err = c.Call(func() (int, error) { return 7, nil }, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 7, out[0])
	assert.Nil(t, out[1])
}

func TestCall_UnnamedPrimitiveIsNotResolvable(t *testing.T) {
	c := container.New()

	_, err := c.Call(func(string) {}, nil)
	require.ErrorIs(t, err, container.ErrNotResolvable)

	var nerr *container.NotResolvableError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "arg0", nerr.Param)
}

func TestCall_VariadicIsOptional(t *testing.T) {
	c := container.New()

	out, err := c.Call(func(names ...string) int { return len(names) }, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{0}, out)

	out, err = c.Call(container.Func(func(names ...string) int { return len(names) }, "names"),
		container.Params{"names": []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []any{2}, out)
}

func TestCall_PanicIsBuildFailure(t *testing.T) {
	c := container.New()

	_, err := c.Call(func() { panic("handler exploded") }, nil)
	assert.ErrorIs(t, err, container.ErrBuildFailed)
}

func TestWrap_RejectsNonFunctions(t *testing.T) {
	c := container.New()

	for _, fn := range []any{nil, 42, "f", container.Func(nil)} {
		_, err := c.Wrap(fn, nil)
		assert.ErrorIs(t, err, container.ErrUninstantiable, "%#v", fn)
	}
}

func TestWrap_ResolvesAtInvocationTime(t *testing.T) {
	c := container.New()
	fn, err := c.Wrap(func(a AInterface) string { return a.Name() }, nil)
	require.NoError(t, err)

	_, err = fn.Invoke(nil)
	require.ErrorIs(t, err, container.ErrNotResolvable)

	c.Bind(keyA, container.Class[*A]())
	out, err := fn.Invoke(nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"A"}, out)
}
