package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-injector/framework/container"
	"github.com/km-arc/go-injector/framework/metrics"
)

type widget struct {
	Size int `default:"1"`
}

func newObserved(t *testing.T) (*container.Container, *metrics.Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	return container.New(container.WithObserver(m)), m, reg
}

// counter returns the value of the series of name whose labels include want.
func counter(t *testing.T, reg prometheus.Gatherer, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v != lp.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func series(t *testing.T, reg prometheus.Gatherer, name string) int {
	t.Helper()
	n, err := testutil.GatherAndCount(reg, name)
	require.NoError(t, err)
	return n
}

func TestCollector_CountsBuildsAndHits(t *testing.T) {
	c, _, reg := newObserved(t)
	c.Singleton("widget", container.Class[*widget]())

	for range 3 {
		_, err := c.Make("widget")
		require.NoError(t, err)
	}

	assert.InDelta(t, 1, counter(t, reg, "injector_resolutions_total",
		map[string]string{"abstraction": "widget", "outcome": "ok"}), 0)
	assert.InDelta(t, 2, counter(t, reg, "injector_shared_hits_total",
		map[string]string{"abstraction": "widget"}), 0)
	assert.Equal(t, 1, series(t, reg, "injector_build_duration_seconds"))
}

func TestCollector_LabelsFailures(t *testing.T) {
	c, m, reg := newObserved(t)
	c.Bind("broken", container.Closure(func(*container.Container, container.Params) (any, error) {
		return nil, errors.New("no")
	}))

	_, err := c.Make("broken")
	require.Error(t, err)
	m.Built("broken", 0, errors.New("again"))

	assert.InDelta(t, 1, counter(t, reg, "injector_resolutions_total",
		map[string]string{"abstraction": "broken", "outcome": "build_failed"}), 0)
	assert.InDelta(t, 1, counter(t, reg, "injector_resolutions_total",
		map[string]string{"abstraction": "broken", "outcome": "error"}), 0)
	// failed builds are counted but not timed
	assert.Zero(t, series(t, reg, "injector_build_duration_seconds"))
}

func TestCollector_TransientBuildsAreNotHits(t *testing.T) {
	c, _, reg := newObserved(t)
	c.Bind("widget", container.Class[*widget]())

	for range 2 {
		_, err := c.Make("widget")
		require.NoError(t, err)
	}

	assert.InDelta(t, 2, counter(t, reg, "injector_resolutions_total",
		map[string]string{"abstraction": "widget"}), 0)
	assert.Zero(t, series(t, reg, "injector_shared_hits_total"))
}

func TestNew_DuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New(reg)
	require.NoError(t, err)

	_, err = metrics.New(reg)
	assert.Error(t, err)
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&container.UninstantiableError{Abstraction: "x"}, "uninstantiable"},
		{&container.NotResolvableError{Param: "p", Owner: "x"}, "not_resolvable"},
		{&container.BuildError{Abstraction: "x", Cause: errors.New("no")}, "build_failed"},
		{&container.CircularDependencyError{Abstraction: "x"}, "circular"},
		{&container.CircularAliasError{Name: "x"}, "circular_alias"},
		{errors.New("other"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, metrics.Outcome(tt.err))
	}
}

func TestHandler_ServesTextFormat(t *testing.T) {
	c, _, reg := newObserved(t)
	c.Bind("widget", container.Class[*widget]())
	_, err := c.Make("widget")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `injector_resolutions_total{abstraction="widget",outcome="ok"} 1`)
}
