package container

import (
	"time"

	"go.uber.org/zap"
)

// Observer receives resolution events. framework/metrics provides a
// Prometheus implementation.
type Observer interface {
	// Built is called after every build attempt of an abstraction.
	Built(abstraction string, elapsed time.Duration, err error)
	// SharedHit is called when a shared instance is served from the cache.
	SharedHit(abstraction string)
}

type nopObserver struct{}

func (nopObserver) Built(string, time.Duration, error) {}
func (nopObserver) SharedHit(string)                   {}

// Option configures a Container.
type Option func(*state)

// WithLogger sets the logger used for resolution tracing. Defaults to zap.NewNop().
func WithLogger(log *zap.Logger) Option {
	return func(s *state) {
		if log != nil {
			s.log = log.Named("container")
		}
	}
}

// WithObserver sets the Observer notified of builds and cache hits.
func WithObserver(o Observer) Option {
	return func(s *state) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithInspector replaces the reflection-backed signature Inspector.
func WithInspector(i Inspector) Option {
	return func(s *state) {
		if i != nil {
			s.inspector = i
		}
	}
}
