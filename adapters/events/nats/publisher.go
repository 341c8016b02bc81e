package nats

import (
	"strings"
	"time"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/blame"
	"github.com/abhissng/synapse/utils/codec"
	"github.com/abhissng/synapse/utils/constant"
	"github.com/abhissng/synapse/utils/random"
	"github.com/abhissng/synapse/utils/types"
	"github.com/nats-io/nats.go"
)

// Event is the JSON body published for every trainer event.
type Event struct {
	Name    string    `json:"name"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload,omitempty"`
}

// SubjectFor maps an event name such as "epoch:after" onto "<prefix>.epoch.after".
func (w *NATSManager) SubjectFor(name types.EventName) string {
	return w.subject + "." + strings.ReplaceAll(name.String(), ":", ".")
}

// PublishEvent publishes a trainer event.
func (w *NATSManager) PublishEvent(name types.EventName, payload any) error {
	if err := w.Publish(w.SubjectFor(name), Event{Name: name.String(), Time: time.Now().UTC(), Payload: payload}); err != nil {
		return err
	}
	return nil
}

// Publish publishes payload as JSON to subject. With a breaker configured, repeated
// failures open the breaker and later publishes fail fast.
func (w *NATSManager) Publish(subject string, payload any) blame.Blame {
	data, err := codec.Encode(payload, codec.JSON)
	if err != nil {
		w.logger.Error(constant.EventPublishedFailed, log.Err(err))
		return blame.MarshalError(codec.JSON, err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set(MessageIDHeader, random.GenerateUUIDString())

	finalHandler := func(msg *nats.Msg) blame.Blame {
		if pubErr := w.nc.PublishMsg(msg); pubErr != nil {
			return blame.PublishMessageError(subject, pubErr)
		}
		return nil
	}
	handler := applyMiddleware(finalHandler, w.middlewares...)

	var pubErr blame.Blame
	if w.breaker != nil {
		_, err = w.breaker.Execute(func() (any, error) {
			if b := handler(msg); b != nil {
				return nil, b
			}
			return nil, nil
		})
		if err != nil {
			pubErr = blame.PublishMessageError(subject, err)
		}
	} else {
		pubErr = handler(msg)
	}

	if pubErr != nil {
		w.logger.Warn(constant.EventPublishedFailed, log.String("subject", subject), log.Blame(pubErr))
		return pubErr
	}
	w.logger.Debug(constant.EventPublished, log.String("subject", subject), log.String(MessageIDHeader, msg.Header.Get(MessageIDHeader)))
	return nil
}
