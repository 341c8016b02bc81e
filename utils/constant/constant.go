package constant

import (
	"time"

	"github.com/abhissng/synapse/utils/types"
)

// These are generic constant for the application
const (
	ServiceName        = "ServiceName"
	Environment        = "Environment"
	RunMode            = "RunMode"
	LogRotationEnabled = "LogRotationEnabled"
	EnvPrefix          = "SYNAPSE"
	DefaultServiceName = "synapse"
)

// Status constants
const (
	Pending   types.Status = "pending"
	Completed types.Status = "completed"
	Failed    types.Status = "failed"
	Success   types.Status = "success"
)

// Trainer lifecycle events.
const (
	EventEpochBefore types.EventName = "epoch:before"
	EventEpochAfter  types.EventName = "epoch:after"
	EventStepBefore  types.EventName = "step:before"
	EventStepAfter   types.EventName = "step:after"

	EventForwardBefore  types.EventName = "forward:before"
	EventForwardAfter   types.EventName = "forward:after"
	EventOptimizeBefore types.EventName = "optimize:before"
	EventOptimizeAfter  types.EventName = "optimize:after"
)

// Run layout.
const (
	DefaultSeriesName  = "default"
	DefaultDumpRoot    = "dumps"
	CheckpointDir      = "checkpoints"
	MetaDir            = "meta"
	TensorboardDir     = "tensorboard"
	RunNameTimeFormat  = "2006-01-02-15-04-05"
	CheckpointTemplate = "epoch_%d.pth"
)

// GraceFul Shutdown Constants
const (
	ServiceDefaultGracefulTime time.Duration = 5 * time.Second
)
