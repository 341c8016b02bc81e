package nats

import "time"

const (
	BreakerName             = "TrainEvents"
	DefaultReconnectWait    = 2 * time.Second
	DefaultMaxReconnects    = 10
	DefaultSubject          = "synapse.events"
	ConnectionFailedMessage = "connection to NATS is not yet established or failed"
	BreakerStateChanged     = "event breaker changed state"
)
