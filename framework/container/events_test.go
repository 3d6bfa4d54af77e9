package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-injector/framework/container"
)

// ── Extend ────────────────────────────────────────────────────────────────────

func wrapInService(instance any, _ *container.Container) any {
	return &Service{A: instance.(AInterface), Name: "wrapped"}
}

func TestExtend_DecoratesNewInstances(t *testing.T) {
	c := container.New()
	c.Bind(keyA, container.Class[*A]())
	c.Extend(keyA, wrapInService)

	v, err := c.Make(keyA)
	require.NoError(t, err)
	svc, ok := v.(*Service)
	require.True(t, ok)
	assert.IsType(t, &A{}, svc.A)
}

func TestExtend_DecoratesCachedSingleton(t *testing.T) {
	c := container.New()
	c.Singleton(keyA, container.Class[*A]())
	original, err := c.Make(keyA)
	require.NoError(t, err)

	var rebound any
	c.Rebinding(keyA, func(v any) { rebound = v })
	c.Extend(keyA, wrapInService)

	v, err := c.Make(keyA)
	require.NoError(t, err)
	svc := v.(*Service)
	assert.Same(t, original, svc.A)
	assert.Same(t, svc, rebound)

	again, err := c.Make(keyA)
	require.NoError(t, err)
	assert.Same(t, svc, again, "the decorated singleton is cached")
}

func TestExtend_ThroughAlias(t *testing.T) {
	c := container.New()
	c.Bind(keyA, container.Class[*A]())
	c.Alias("a", keyA)
	c.Extend("a", wrapInService)

	v, err := c.Make(keyA)
	require.NoError(t, err)
	assert.IsType(t, &Service{}, v)
}

// ── Tags ──────────────────────────────────────────────────────────────────────

func TestTagged_ResolvesInOrder(t *testing.T) {
	c := newGraph(t)
	c.Tag([]string{keyB, keyA}, "letters")
	c.Tag([]string{keyC}, "letters")

	got, err := c.Tagged("letters")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.IsType(t, &B{}, got[0])
	assert.IsType(t, &A{}, got[1])
	assert.IsType(t, &C{}, got[2])
}

func TestTagged_UnknownTagIsEmpty(t *testing.T) {
	c := container.New()

	got, err := c.Tagged("nothing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTagged_FailsOnUnresolvableMember(t *testing.T) {
	c := newGraph(t)
	c.Tag([]string{keyA, keyE}, "mixed")

	_, err := c.Tagged("mixed")
	assert.ErrorIs(t, err, container.ErrUninstantiable)
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

func TestRebinding_FiresOnlyAfterResolution(t *testing.T) {
	c := newGraph(t)
	var got []any
	c.Rebinding(keyA, func(v any) { got = append(got, v) })

	c.Bind(keyA, container.Class[*A]())
	assert.Empty(t, got, "not resolved yet")

	_, err := c.Make(keyA)
	require.NoError(t, err)
	c.Bind(keyA, container.Closure(func(*container.Container, container.Params) (any, error) {
		return &A{n: 2}, nil
	}))

	require.Len(t, got, 1)
	assert.Equal(t, &A{n: 2}, got[0])
}

func TestRebinding_FiresOnShare(t *testing.T) {
	c := newGraph(t)
	var got any
	c.Rebinding(keyA, func(v any) { got = v })

	replacement := &A{n: 9}
	c.Share(keyA, replacement)
	assert.Same(t, replacement, got)
}

func TestAfterResolving_SeesEveryBuild(t *testing.T) {
	c := newGraph(t)
	c.Singleton(keyB, container.Class[*B]())

	built := map[string]int{}
	c.AfterResolving(func(abstraction string, _ any) { built[abstraction]++ })

	for range 2 {
		_, err := c.Make(keyD)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, built[keyD])
	assert.Equal(t, 1, built[keyB], "shared instances fire once")
	assert.Equal(t, 1, built[keyA], "A is only built with the shared B")
}

func TestAfterResolving_NotFiredOnFailure(t *testing.T) {
	c := container.New()
	fired := false
	c.AfterResolving(func(string, any) { fired = true })

	_, err := c.Make(keyE)
	require.Error(t, err)
	assert.False(t, fired)
}
