package circuitBreaker

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var transitions []gobreaker.State
	cb := New(
		WithName("events"),
		WithTripAfter(2),
		WithStateChange(func(_ string, _, to gobreaker.State) { transitions = append(transitions, to) }),
	)

	fail := func() (any, error) { return nil, errors.New("down") }
	_, _ = cb.Execute(fail)
	_, _ = cb.Execute(fail)

	_, err := cb.Execute(func() (any, error) { return "ok", nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
	assert.Equal(t, "events", cb.Name())
}

func TestDefaultsTripAfterThreeFailures(t *testing.T) {
	cb := New()
	assert.Equal(t, DefaultName, cb.Name())

	fail := func() (any, error) { return nil, errors.New("down") }
	for range DefaultTripFailures - 1 {
		_, _ = cb.Execute(fail)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	_, _ = cb.Execute(fail)
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}
