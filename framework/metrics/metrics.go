// Package metrics exports container resolution statistics to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-injector/framework/container"
)

const namespace = "injector"

// Collector is a container.Observer backed by Prometheus vectors.
//
//	reg := prometheus.NewRegistry()
//	m, err := metrics.New(reg)
//	c := container.New(container.WithObserver(m))
type Collector struct {
	resolutions *prometheus.CounterVec
	sharedHits  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

var _ container.Observer = (*Collector)(nil)

// New creates a Collector and registers its vectors with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	m := &Collector{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Build attempts per abstraction, by outcome.",
		}, []string{"abstraction", "outcome"}),
		sharedHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shared_hits_total",
			Help:      "Shared instances served from the cache.",
		}, []string{"abstraction"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent building an abstraction, dependencies included.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"abstraction"}),
	}

	for _, col := range []prometheus.Collector{m.resolutions, m.sharedHits, m.duration} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("metrics: register collector: %w", err)
		}
	}
	return m, nil
}

// Built records one build attempt.
func (m *Collector) Built(abstraction string, elapsed time.Duration, err error) {
	m.resolutions.WithLabelValues(abstraction, Outcome(err)).Inc()
	if err == nil {
		m.duration.WithLabelValues(abstraction).Observe(elapsed.Seconds())
	}
}

// SharedHit records a cache hit.
func (m *Collector) SharedHit(abstraction string) {
	m.sharedHits.WithLabelValues(abstraction).Inc()
}

// Outcome classifies a build result for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, container.ErrCircularDependency):
		return "circular"
	case errors.Is(err, container.ErrCircularAlias):
		return "circular_alias"
	case errors.Is(err, container.ErrBuildFailed):
		return "build_failed"
	case errors.Is(err, container.ErrNotResolvable):
		return "not_resolvable"
	case errors.Is(err, container.ErrUninstantiable):
		return "uninstantiable"
	default:
		return "error"
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
