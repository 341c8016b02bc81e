package context

import (
	"github.com/abhissng/synapse/adapters/events/nats"
	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/adapters/prometheus"
	"github.com/abhissng/synapse/utils/deprecated"
	"github.com/abhissng/synapse/utils/helpers"
	"github.com/abhissng/synapse/utils/types"
	"github.com/abhissng/synapse/utils/workerpool"
)

// AppContext holds the process-scoped services of a run.
type AppContext struct {
	*log.Log
	metrics      *prometheus.MetricsCollector
	notifier     *deprecated.Notifier
	runtime      *workerpool.Runtime
	events       *nats.NATSManager
	runID        types.RunID
	snapshotPath string
}

// AppContextOption is a function that modifies the AppContext.
type AppContextOption func(*AppContext)

// NewAppContext creates a new AppContext with the given options. Services not
// supplied through options get defaults built on the context's logger.
func NewAppContext(opts ...AppContextOption) (*AppContext, error) {
	appCtx := &AppContext{runID: types.NewRunID()}
	for _, opt := range opts {
		opt(appCtx)
	}

	if appCtx.Log == nil {
		appCtx.Log = log.NewBasicLogger(helpers.IsProdEnvironment())
	}
	if appCtx.metrics == nil {
		appCtx.metrics = prometheus.NewMetricsCollector(prometheus.WithServiceName(helpers.GetServiceName()))
	}
	if appCtx.notifier == nil {
		notifier, err := deprecated.NewNotifier(appCtx.Log, deprecated.DefaultCapacity)
		if err != nil {
			return nil, err
		}
		appCtx.notifier = notifier
	}
	if appCtx.runtime == nil {
		appCtx.runtime = workerpool.NewRuntime(
			workerpool.WithLogger(appCtx.Log),
			workerpool.WithMetrics(appCtx.metrics),
		)
	}
	return appCtx, nil
}

// WithRunID sets the run ID for the AppContext.
func WithRunID(id types.RunID) AppContextOption {
	return func(ctx *AppContext) {
		ctx.runID = id
	}
}

// WithLogger sets the logger for the AppContext.
func WithLogger(logger *log.Log) AppContextOption {
	return func(ctx *AppContext) {
		ctx.Log = logger
	}
}

// WithMetrics sets the metrics collector for the AppContext.
func WithMetrics(mc *prometheus.MetricsCollector) AppContextOption {
	return func(ctx *AppContext) {
		ctx.metrics = mc
	}
}

// WithMetricsSnapshot writes the metrics as a textfile to path on shutdown.
func WithMetricsSnapshot(path string) AppContextOption {
	return func(ctx *AppContext) {
		ctx.snapshotPath = path
	}
}

// WithNotifier sets the deprecation notifier for the AppContext.
func WithNotifier(n *deprecated.Notifier) AppContextOption {
	return func(ctx *AppContext) {
		ctx.notifier = n
	}
}

// WithRuntime sets the worker-pool runtime for the AppContext.
func WithRuntime(rt *workerpool.Runtime) AppContextOption {
	return func(ctx *AppContext) {
		ctx.runtime = rt
	}
}

// WithNATSManager sets the event publisher for the AppContext.
func WithNATSManager(m *nats.NATSManager) AppContextOption {
	return func(ctx *AppContext) {
		ctx.events = m
	}
}

// RunID returns the ID of the current run.
func (ctx *AppContext) RunID() types.RunID { return ctx.runID }

// Metrics returns the metrics collector.
func (ctx *AppContext) Metrics() *prometheus.MetricsCollector { return ctx.metrics }

// Notifier returns the deprecation notifier.
func (ctx *AppContext) Notifier() *deprecated.Notifier { return ctx.notifier }

// Runtime returns the worker-pool runtime.
func (ctx *AppContext) Runtime() *workerpool.Runtime { return ctx.runtime }

// Events returns the event publisher, or nil when none was configured.
func (ctx *AppContext) Events() *nats.NATSManager { return ctx.events }
