package graceful

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhissng/synapse/utils/constant"
	"github.com/abhissng/synapse/utils/helpers"
)

// Shutdowner is an interface that defines a Shutdown method.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// ShutdownFunc is a function type that matches the Shutdown method signature.
type ShutdownFunc func(ctx context.Context) error

// Shutdown implements the Shutdowner interface for ShutdownFunc.
func (f ShutdownFunc) Shutdown(ctx context.Context) error {
	return f(ctx)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// GracefulShutdown waits until ctx is done and then gives service at most timeout
// to shut down. It returns the shutdown error, if any.
func GracefulShutdown(ctx context.Context, service Shutdowner, timeout time.Duration) error {
	<-ctx.Done()

	if timeout <= 0 {
		timeout = constant.ServiceDefaultGracefulTime
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := service.Shutdown(shutdownCtx); err != nil {
		helpers.Println(constant.ERROR, "Error during shutdown: "+err.Error())
		return err
	}
	helpers.Println(constant.INFO, "Service stopped")
	return nil
}
