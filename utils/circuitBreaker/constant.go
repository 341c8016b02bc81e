package circuitBreaker

import "time"

const (
	DefaultName = "synapse-breaker"
	// DefaultOpenTimeout is how long publishes fail fast once the breaker opens.
	DefaultOpenTimeout = 10 * time.Second
	// DefaultCountWindow resets the failure counts while closed.
	DefaultCountWindow    = 30 * time.Second
	DefaultHalfOpenProbes = 5
	DefaultTripFailures   = 3
)
