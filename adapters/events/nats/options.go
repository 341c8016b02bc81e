package nats

import (
	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/utils/circuitBreaker"
	"github.com/abhissng/synapse/utils/types"
	"github.com/sony/gobreaker"
)

// Option defines a functional option for configuring NATSManager.
type Option func(*NATSManager)

// WithLogger sets the logger for the manager.
func WithLogger(log *log.Log) Option {
	return func(w *NATSManager) {
		w.logger = log
	}
}

// WithSubject sets the subject prefix events are published under.
func WithSubject(subject string) Option {
	return func(w *NATSManager) {
		if subject != "" {
			w.subject = subject
		}
	}
}

// WithRunID stamps every published message with the run id header.
func WithRunID(id types.RunID) Option {
	return func(w *NATSManager) {
		w.middlewares = append(w.middlewares, AddHeaderMiddleware(RunIDHeader, id.String()))
	}
}

// WithMiddlewares appends publish middlewares.
func WithMiddlewares(middlewares ...MiddlewareFunc) Option {
	return func(w *NATSManager) {
		w.middlewares = append(w.middlewares, middlewares...)
	}
}

// WithCircuitBreaker guards publishing with a circuit breaker. Transitions are
// logged as warnings.
func WithCircuitBreaker(options ...circuitBreaker.Option) Option {
	return func(w *NATSManager) {
		logTransition := circuitBreaker.WithStateChange(func(name string, from, to gobreaker.State) {
			if w.logger != nil {
				w.logger.Warn(BreakerStateChanged, log.String("breaker", name), log.String("from", from.String()), log.String("to", to.String()))
			}
		})
		opts := append([]circuitBreaker.Option{circuitBreaker.WithName(BreakerName), logTransition}, options...)
		w.breaker = circuitBreaker.New(opts...)
	}
}

// withConn injects a connection, used by tests.
func withConn(conn msgConn) Option {
	return func(w *NATSManager) {
		w.nc = conn
	}
}
