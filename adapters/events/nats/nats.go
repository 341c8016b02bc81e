// Package nats publishes trainer lifecycle events to a NATS subject.
package nats

import (
	"errors"
	"sync"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/blame"
	"github.com/abhissng/synapse/utils/constant"
	"github.com/abhissng/synapse/utils/helpers"
	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker"
)

// Header names stamped on every event message.
const (
	MessageIDHeader = constant.MessageIdHeader
	RunIDHeader     = constant.RunIdHeader
)

// msgConn is the part of *nats.Conn the publisher needs.
type msgConn interface {
	PublishMsg(m *nats.Msg) error
	Flush() error
	Drain() error
	IsConnected() bool
	IsClosed() bool
}

// NATSManager owns the connection, the breaker and the publish middleware chain.
type NATSManager struct {
	mu          sync.Mutex
	nc          msgConn
	logger      *log.Log
	breaker     *gobreaker.CircuitBreaker
	subject     string
	middlewares []MiddlewareFunc
}

// NewNATSManager connects to url and returns a publisher configured by options.
func NewNATSManager(url string, options ...Option) (*NATSManager, error) {
	manager := &NATSManager{
		logger:  log.NewBasicLogger(helpers.IsProdEnvironment()),
		subject: DefaultSubject,
	}
	for _, opt := range options {
		opt(manager)
	}

	if manager.nc == nil {
		logger := manager.logger
		nc, err := nats.Connect(url,
			nats.Name(helpers.GetServiceName()),
			nats.MaxReconnects(DefaultMaxReconnects),
			nats.ReconnectWait(DefaultReconnectWait),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("NATS disconnected", log.Err(err))
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				logger.Info("NATS reconnected", log.String("url", nc.ConnectedUrl()))
			}),
		)
		if err != nil {
			return nil, blame.AdapterInitialisationError("nats", err)
		}
		manager.nc = nc
	}

	manager.logger.Info(constant.AdapterInitialize, log.String("adapter", "nats"), log.String("subject", manager.subject))
	return manager, nil
}

// Ping checks the health of the NATS connection.
func (w *NATSManager) Ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.nc != nil && w.nc.IsConnected() {
		return nil
	}
	return errors.New(ConnectionFailedMessage)
}

// Close flushes pending messages and drains the connection.
func (w *NATSManager) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.nc == nil || w.nc.IsClosed() {
		return
	}
	if err := w.nc.Flush(); err != nil {
		w.logger.Warn(constant.AdapterError, log.String("adapter", "nats"), log.Err(err))
	}
	_ = w.nc.Drain()
	w.logger.Info(constant.AdapterStop, log.String("adapter", "nats"))
}
