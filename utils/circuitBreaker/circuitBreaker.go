// Package circuitBreaker builds gobreaker breakers for outbound sinks such as the
// training event publisher.
package circuitBreaker

import (
	"time"

	"github.com/sony/gobreaker"
)

// Option tweaks the breaker settings before construction.
type Option func(*gobreaker.Settings)

func WithName(name string) Option {
	return func(s *gobreaker.Settings) { s.Name = name }
}

// WithTimeout sets how long the breaker stays open before probing again.
func WithTimeout(d time.Duration) Option {
	return func(s *gobreaker.Settings) { s.Timeout = d }
}

// WithTripAfter opens the breaker after n consecutive failures.
func WithTripAfter(n uint32) Option {
	return func(s *gobreaker.Settings) {
		s.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= n }
	}
}

// WithStateChange is called on every open/half-open/closed transition.
func WithStateChange(fn func(name string, from, to gobreaker.State)) Option {
	return func(s *gobreaker.Settings) { s.OnStateChange = fn }
}

// New returns a breaker with the package defaults overridden by opts.
func New(opts ...Option) *gobreaker.CircuitBreaker {
	s := gobreaker.Settings{
		Name:        DefaultName,
		Timeout:     DefaultOpenTimeout,
		MaxRequests: DefaultHalfOpenProbes,
		Interval:    DefaultCountWindow,
	}
	WithTripAfter(DefaultTripFailures)(&s)
	for _, opt := range opts {
		opt(&s)
	}
	return gobreaker.NewCircuitBreaker(s)
}
