package graceful

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGracefulShutdownRunsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	called := make(chan time.Duration, 1)

	go cancel()
	err := GracefulShutdown(ctx, ShutdownFunc(func(c context.Context) error {
		deadline, ok := c.Deadline()
		assert.True(t, ok)
		called <- time.Until(deadline)
		return nil
	}), time.Second)

	assert.NoError(t, err)
	assert.LessOrEqual(t, <-called, time.Second)
}

func TestGracefulShutdownReturnsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	boom := errors.New("boom")
	err := GracefulShutdown(ctx, ShutdownFunc(func(context.Context) error { return boom }), 0)
	assert.ErrorIs(t, err, boom)
}
