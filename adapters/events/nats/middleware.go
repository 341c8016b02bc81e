package nats

import (
	"github.com/abhissng/synapse/blame"
	"github.com/nats-io/nats.go"
)

// NATSMsgProcessor defines the signature for a message processor.
type NATSMsgProcessor func(msg *nats.Msg) blame.Blame

// MiddlewareFunc defines the signature for a middleware function.
type MiddlewareFunc func(NATSMsgProcessor) NATSMsgProcessor

// applyMiddleware applies the middleware chain to a processor. The first middleware
// in the list runs first.
func applyMiddleware(processor NATSMsgProcessor, middlewares ...MiddlewareFunc) NATSMsgProcessor {
	for i := len(middlewares) - 1; i >= 0; i-- {
		processor = middlewares[i](processor)
	}
	return processor
}

// AddHeaderMiddleware returns a middleware that sets a header key/value on the message.
func AddHeaderMiddleware(key, value string) MiddlewareFunc {
	return func(next NATSMsgProcessor) NATSMsgProcessor {
		return func(msg *nats.Msg) blame.Blame {
			msg.Header.Set(key, value)
			return next(msg)
		}
	}
}
