package context

import (
	"context"
	"time"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/utils/types"
)

type runKey struct{}

// RunContext pairs a standard context with the AppContext of the run.
type RunContext struct {
	context.Context
	*AppContext
}

// NewRunContext creates a RunContext over parent.
func NewRunContext(parent context.Context, app *AppContext) *RunContext {
	if parent == nil {
		parent = context.Background()
	}
	return &RunContext{
		Context:    context.WithValue(parent, runKey{}, app.RunID()),
		AppContext: app,
	}
}

func (s *RunContext) derive(ctx context.Context) *RunContext {
	return &RunContext{Context: ctx, AppContext: s.AppContext}
}

// WithCancel creates a new RunContext with a cancel function.
func (s *RunContext) WithCancel() (*RunContext, context.CancelFunc) {
	ctx, cancel := context.WithCancel(s.Context)
	return s.derive(ctx), cancel
}

// WithTimeout creates a new RunContext with a timeout.
func (s *RunContext) WithTimeout(timeout time.Duration) (*RunContext, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(s.Context, timeout)
	return s.derive(ctx), cancel
}

// WithValue adds a key-value pair to the RunContext.
func (s *RunContext) WithValue(key, val any) *RunContext {
	return s.derive(context.WithValue(s.Context, key, val))
}

// RunIDFrom returns the run ID stored in ctx by NewRunContext.
func RunIDFrom(ctx context.Context) (types.RunID, bool) {
	id, ok := ctx.Value(runKey{}).(types.RunID)
	return id, ok
}

// Slog prefixes withFields with the run ID field.
func (s *RunContext) Slog(withFields ...types.Field) []types.Field {
	fields := make([]types.Field, 0, 1+len(withFields))
	fields = append(fields, log.String("run_id", s.RunID().String()))
	return append(fields, withFields...)
}
