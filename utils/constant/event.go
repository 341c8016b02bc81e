package constant

// constants for common log messages
const (
	// Adapter related messages
	AdapterInitialize = "AdapterInitialize"
	AdapterStop       = "AdapterStop"
	AdapterError      = "AdapterError"

	// Event related messages
	EventPublished       = "EventPublished"
	EventPublishedFailed = "EventPublishedFailed"

	// Pool related messages
	PoolStarted       = "PoolStarted"
	PoolTerminated    = "PoolTerminated"
	WorkerException   = "Worker got exception"
	ChunkDispatched   = "ChunkDispatched"
	CallCountReported = "CallCountReported"

	// Trainer related messages
	CheckpointSaved  = "CheckpointSaved"
	CheckpointLoaded = "CheckpointLoaded"
	WeightsLoaded    = "WeightsLoaded"
	CheckpointMirror = "CheckpointMirrored"
)

// Message headers for published events.
const (
	MessageIdHeader = "X-Message-Id"
	RunIdHeader     = "X-Run-Id"
)
