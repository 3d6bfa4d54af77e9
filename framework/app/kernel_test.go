package app_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-injector/framework/app"
	"github.com/km-arc/go-injector/framework/container"
	"github.com/km-arc/go-injector/framework/routing"
)

func newApp(t *testing.T) *app.Application {
	t.Helper()
	t.Setenv("APP_ENV", "testing")
	t.Setenv("APP_DEBUG", "false")
	t.Setenv("LOG_LEVEL", "error")
	a, err := app.New("testdata/none.env")
	require.NoError(t, err)
	return a
}

func TestNew_RegistersFrameworkBindings(t *testing.T) {
	a := newApp(t)

	for _, abstraction := range []string{"config", "log", "metrics", "metrics.registry", "router", "container"} {
		assert.True(t, a.Bound(abstraction), abstraction)
	}
	assert.True(t, a.IsTesting())
	assert.False(t, a.IsDebug())
	assert.Len(t, a.Providers.Providers(), 4)
	assert.Equal(t, app.Version, a.Version())
}

func TestNew_RejectsBadLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "shouty")
	_, err := app.New("testdata/none.env")
	assert.Error(t, err)
}

type Status struct {
	Env string `inject:"appEnv,optional"`
}

func TestServe_ServesRoutesAndMetricsUntilCancelled(t *testing.T) {
	a := newApp(t)
	a.Register(&statusProvider{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	body := get(t, base+"/status")
	assert.JSONEq(t, `{"data":{"Env":""}}`, body)

	metricsBody := get(t, base+"/metrics")
	assert.Contains(t, metricsBody, "injector_resolutions_total")
	assert.Contains(t, metricsBody, "go_goroutines")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

// statusProvider registers a route through the router like an application would.
type statusProvider struct {
	container.BaseProvider
}

func (p *statusProvider) Register(*container.Container) {}

func (p *statusProvider) Boot(c *container.Container) {
	r := container.MustResolve[*routing.Router](c, "router")
	r.Get("/status", r.Action(func(s *Status) *Status { return s }, "status"))
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
