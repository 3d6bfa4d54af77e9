package container

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── aliasTable ────────────────────────────────────────────────────────────────

func TestAliasTable_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		aliases map[string]string
		in      string
		want    string
		wantErr bool
	}{
		{"unaliased", nil, "x", "x", false},
		{"single hop", map[string]string{"x": "y"}, "x", "y", false},
		{"chain", map[string]string{"x": "y", "y": "z"}, "x", "z", false},
		{"two-cycle", map[string]string{"x": "y", "y": "x"}, "x", "", true},
		{"cycle off the start", map[string]string{"w": "x", "x": "y", "y": "x"}, "w", "", true},
		{"cycle not reached", map[string]string{"x": "y", "y": "x"}, "z", "z", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAliasTable()
			for k, v := range tt.aliases {
				a.set(k, v)
			}
			got, err := a.resolve(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrCircularAlias)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAliasTable_RemoveAndReset(t *testing.T) {
	a := newAliasTable()
	a.set("x", "y")
	assert.True(t, a.isAlias("x"))
	assert.True(t, a.remove("x"))
	assert.False(t, a.remove("x"))

	a.set("x", "y")
	a.reset()
	assert.Equal(t, "x", a.canonical("x"))
}

// ── bindingStore ──────────────────────────────────────────────────────────────

func TestBindingStore_ScopedBeforePlain(t *testing.T) {
	s := newBindingStore()
	plain := &binding{target: Value("plain")}
	inD := &binding{target: Value("in D")}
	s.bind("iface", plain, "")
	s.bind("iface", inD, "D")

	b, scoped := s.lookup("iface", "D", "DInterface")
	assert.Same(t, inD, b)
	assert.True(t, scoped)

	b, scoped = s.lookup("iface", "C")
	assert.Same(t, plain, b)
	assert.False(t, scoped)

	b, scoped = s.lookup("iface")
	assert.Same(t, plain, b)
	assert.False(t, scoped)
}

func TestBindingStore_ScopeOrder(t *testing.T) {
	s := newBindingStore()
	byClass := &binding{target: Value("class")}
	byAbstraction := &binding{target: Value("abstraction")}
	s.bind("iface", byClass, "D")
	s.bind("iface", byAbstraction, "DInterface")

	b, _ := s.lookup("iface", "D", "DInterface")
	assert.Same(t, byClass, b)
}

func TestBindingStore_UnbindAndDrop(t *testing.T) {
	s := newBindingStore()
	s.bind("iface", &binding{}, "")
	s.bind("iface", &binding{}, "D")
	s.bind("iface", &binding{}, "E")

	assert.True(t, s.unbind("iface", ""))
	assert.False(t, s.bound("iface"))
	assert.True(t, s.hasScoped("iface"))

	assert.True(t, s.unbind("iface", "D"))
	assert.False(t, s.unbind("iface", "D"))

	s.drop("iface")
	assert.False(t, s.hasScoped("iface"))
	b, _ := s.lookup("iface", "E")
	assert.Nil(t, b)
}

func TestBindingStore_KeysAreUnscopedAndSorted(t *testing.T) {
	s := newBindingStore()
	s.bind("b", &binding{}, "")
	s.bind("a", &binding{}, "")
	s.bind("scoped-only", &binding{}, "X")

	assert.Equal(t, []string{"a", "b"}, s.keys())
}

// ── instanceCache ─────────────────────────────────────────────────────────────

func TestInstanceCache_ResolveStoresSuccess(t *testing.T) {
	c := newInstanceCache()

	v, hit, err := c.resolve(context.Background(), "k", func() (any, error) { return 1, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, v)

	v, hit, err = c.resolve(context.Background(), "k", func() (any, error) { return 2, nil })
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, v)
}

func TestInstanceCache_ResolveDoesNotStoreFailure(t *testing.T) {
	c := newInstanceCache()
	boom := errors.New("boom")

	_, _, err := c.resolve(context.Background(), "k", func() (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	_, ok := c.get("k")
	assert.False(t, ok)
}

func TestInstanceCache_PanicPublishesNothing(t *testing.T) {
	c := newInstanceCache()

	assert.Panics(t, func() {
		_, _, _ = c.resolve(context.Background(), "k", func() (any, error) { panic("x") })
	})
	_, ok := c.get("k")
	assert.False(t, ok)

	v, _, err := c.resolve(context.Background(), "k", func() (any, error) { return "again", nil })
	require.NoError(t, err)
	assert.Equal(t, "again", v)
}

func TestInstanceCache_SetDuringBuildWins(t *testing.T) {
	c := newInstanceCache()
	building, release := make(chan struct{}), make(chan struct{})

	done := make(chan any)
	go func() {
		v, _, _ := c.resolve(context.Background(), "k", func() (any, error) {
			close(building)
			<-release
			return "late", nil
		})
		done <- v
	}()

	<-building
	c.set("k", "shared")
	close(release)

	assert.Equal(t, "late", <-done, "the builder still gets its own value")
	v, ok := c.get("k")
	require.True(t, ok)
	assert.Equal(t, "shared", v, "a late build never overwrites Share")
}

func TestInstanceCache_WaiterTimesOut(t *testing.T) {
	c := newInstanceCache()
	building, release := make(chan struct{}), make(chan struct{})
	defer close(release)

	go func() {
		_, _, _ = c.resolve(context.Background(), "k", func() (any, error) {
			close(building)
			<-release
			return nil, nil
		})
	}()
	<-building

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, _, err := c.resolve(ctx, "k", func() (any, error) { return "never", nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ── constructionStack ─────────────────────────────────────────────────────────

func TestConstructionStack_ScopesAndPath(t *testing.T) {
	var s constructionStack
	assert.Nil(t, s.scopes())

	first, second := &binding{}, &binding{}
	s.push("DInterface", first)
	assert.Equal(t, []string{"DInterface"}, s.scopes())

	s.setConcrete("D")
	assert.Equal(t, []string{"D", "DInterface"}, s.scopes())
	assert.True(t, s.building(first))
	assert.False(t, s.building(second))

	s.push("BInterface", second)
	s.setConcrete("B")
	assert.True(t, s.hasConcrete("D", 1))
	assert.False(t, s.hasConcrete("B", 1))
	assert.Equal(t, "D -> B -> D", joinPath(s.path(s.depth(), "D")))

	s.pop()
	s.pop()
	s.pop()
	assert.Zero(t, s.depth())
}

func TestConstructionStack_NilIsEmpty(t *testing.T) {
	var s *constructionStack
	assert.Zero(t, s.depth())
	assert.Nil(t, s.scopes())
	assert.False(t, s.building(&binding{}))
	assert.Equal(t, []string{"x"}, s.path(0, "x"))
}

func TestResolve_StackBalancedAfterFailure(t *testing.T) {
	c := New()
	c.Bind("broken", Closure(func(*Container, Params) (any, error) { return nil, errors.New("no") }))

	view := c.session(context.Background())
	_, err := view.resolve("broken", nil, nil)
	require.ErrorIs(t, err, ErrBuildFailed)
	assert.Zero(t, view.stack.depth())
}
