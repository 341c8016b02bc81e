package context

import (
	"context"
	"errors"

	"github.com/abhissng/synapse/utils/graceful"
)

// Shutdown terminates the shared worker pool, closes the event publisher,
// writes the metrics snapshot and syncs the logger.
func (ctx *AppContext) Shutdown(context.Context) error {
	var errs []error
	if ctx.runtime != nil {
		ctx.runtime.Shutdown()
	}
	if ctx.events != nil {
		ctx.events.Close()
	}
	if ctx.snapshotPath != "" && ctx.metrics != nil {
		if err := ctx.metrics.WriteToTextfile(ctx.snapshotPath); err != nil {
			errs = append(errs, err)
		}
	}
	if ctx.Log != nil {
		// Sync on a terminal returns EINVAL; the log is still flushed.
		_ = ctx.Log.Sync()
	}
	return errors.Join(errs...)
}

var _ graceful.Shutdowner = (*AppContext)(nil)
