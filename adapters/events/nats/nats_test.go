package nats

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/utils/circuitBreaker"
	"github.com/abhissng/synapse/utils/types"
	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	sent   []*nats.Msg
	fail   error
	closed bool
}

func (f *fakeConn) PublishMsg(m *nats.Msg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, m)
	return nil
}
func (f *fakeConn) Flush() error      { return nil }
func (f *fakeConn) Drain() error      { f.closed = true; return nil }
func (f *fakeConn) IsConnected() bool { return !f.closed }
func (f *fakeConn) IsClosed() bool    { return f.closed }

func TestPublishEventSetsHeadersAndSubject(t *testing.T) {
	conn := &fakeConn{}
	run := types.NewRunID()
	mgr, err := NewNATSManager("", withConn(conn), WithLogger(log.NewNopLogger()), WithSubject("lab.events"), WithRunID(run))
	require.NoError(t, err)

	require.NoError(t, mgr.PublishEvent("epoch:after", map[string]any{"epoch": 3}))
	require.Len(t, conn.sent, 1)

	msg := conn.sent[0]
	assert.Equal(t, "lab.events.epoch.after", msg.Subject)
	assert.Equal(t, run.String(), msg.Header.Get(RunIDHeader))
	assert.NotEmpty(t, msg.Header.Get(MessageIDHeader))

	var ev Event
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.Equal(t, "epoch:after", ev.Name)

	assert.NoError(t, mgr.Ping())
	mgr.Close()
	assert.Error(t, mgr.Ping())
}

func TestBreakerFailsFast(t *testing.T) {
	conn := &fakeConn{fail: errors.New("no responders")}
	mgr, err := NewNATSManager("", withConn(conn), WithLogger(log.NewNopLogger()),
		WithCircuitBreaker(circuitBreaker.WithTripAfter(1)))
	require.NoError(t, err)

	first := mgr.Publish("a", 1)
	require.Error(t, first)
	assert.ErrorIs(t, first, conn.fail)

	second := mgr.Publish("a", 1)
	require.Error(t, second)
	assert.ErrorIs(t, second, gobreaker.ErrOpenState)
}
