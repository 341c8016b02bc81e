package workerpool

import (
	"errors"
	"runtime"
	"sync"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/adapters/prometheus"
	"github.com/abhissng/synapse/result"
	"github.com/abhissng/synapse/utils/concurrent/concurrentMap"
	"github.com/abhissng/synapse/utils/helpers"
	"github.com/abhissng/synapse/utils/progress"
	"github.com/abhissng/synapse/utils/types"
)

// Pool lifecycle errors.
var (
	ErrAlreadyStarted = errors.New("workerpool: pool already started")
	ErrPoolTerminated = errors.New("workerpool: pool terminated")
)

// DefaultQueueFactor sizes the task and result queues as a multiple of the worker count.
const DefaultQueueFactor = 8

// State is the lifecycle state of a pool.
type State int

const (
	StateUnstarted State = iota
	StateStarted
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "UNSTARTED"
	case StateStarted:
		return "STARTED"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// ErrorPolicy decides what Map does when a worker reports an exception.
type ErrorPolicy int

const (
	// TruncateOnError logs a warning and returns the results gathered so far with a nil error.
	TruncateOnError ErrorPolicy = iota
	// PropagateOnError returns the results gathered so far together with the worker error.
	PropagateOnError
)

// Kind tags an Envelope.
type Kind int

const (
	KindCount Kind = iota
	KindResult
	KindExc
)

// MapFunc is applied to every item of a Map call.
type MapFunc[T, U any] func(T) (U, error)

// IndexedValue pairs a value with its position in the input sequence.
type IndexedValue[T any] struct {
	Index int
	Value T
}

// Envelope is one message on the result channel. Count is set for KindCount,
// Pairs for KindResult and Exc for KindExc.
type Envelope[U any] struct {
	CallID types.CallID
	Kind   Kind
	Count  int
	Pairs  []IndexedValue[U]
	Exc    string
}

// chunk is the payload of one queued task.
type chunk[T, U any] struct {
	fn    MapFunc[T, U]
	pairs []IndexedValue[T]
}

// call describes one Map invocation handed to the dispatcher.
type call[T, U any] struct {
	id        types.CallID
	fn        MapFunc[T, U]
	items     []T
	chunkSize int
}

// Pool applies functions to slices on a fixed set of worker goroutines.
type Pool[T any, U any] struct {
	numWorkers  int
	queueFactor int
	policy      ErrorPolicy
	log         *log.Log
	metrics     *prometheus.MetricsCollector

	mu    sync.RWMutex
	state State

	taskQueue      chan result.Task[chunk[T, U]]
	resultQueue    chan Envelope[U]
	dispatchQueue  chan *call[T, U]
	inboxes        *concurrentMap.ConcurrentMap[types.CallID, chan Envelope[U]]
	workers        sync.WaitGroup
	dispatcherDone chan struct{}
	routerDone     chan struct{}
}

// config holds the pool settings shared by every element type.
type config struct {
	numWorkers  int
	queueFactor int
	policy      ErrorPolicy
	log         *log.Log
	metrics     *prometheus.MetricsCollector
}

// Option is a function type for configuring the Pool.
type Option func(*config)

// WithNumWorkers sets the number of workers in the pool.
func WithNumWorkers(numWorkers int) Option {
	return func(c *config) {
		if numWorkers > 0 {
			c.numWorkers = numWorkers
		}
	}
}

// WithQueueFactor sets the queue depth as a multiple of the worker count.
func WithQueueFactor(factor int) Option {
	return func(c *config) {
		if factor > 0 {
			c.queueFactor = factor
		}
	}
}

// WithErrorPolicy chooses between truncating and propagating on worker exceptions.
func WithErrorPolicy(policy ErrorPolicy) Option {
	return func(c *config) {
		c.policy = policy
	}
}

// WithLogger sets logger for worker pool.
func WithLogger(l *log.Log) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics records dispatched chunks, processed items and worker exceptions.
func WithMetrics(mc *prometheus.MetricsCollector) Option {
	return func(c *config) {
		c.metrics = mc
	}
}

// NewPool creates an unstarted pool. Workers default to the number of CPUs.
func NewPool[T any, U any](options ...Option) *Pool[T, U] {
	cfg := &config{
		numWorkers:  runtime.NumCPU(),
		queueFactor: DefaultQueueFactor,
		policy:      TruncateOnError,
	}
	for _, option := range options {
		option(cfg)
	}
	if cfg.log == nil {
		cfg.log = log.NewBasicLogger(helpers.IsProdEnvironment())
	}

	return &Pool[T, U]{
		numWorkers:  cfg.numWorkers,
		queueFactor: cfg.queueFactor,
		policy:      cfg.policy,
		log:         cfg.log,
		metrics:     cfg.metrics,
		state:       StateUnstarted,
		inboxes:     concurrentMap.NewConcurrentMap[types.CallID, chan Envelope[U]](),
	}
}

// mapConfig holds per-call settings.
type mapConfig struct {
	chunkSize    int
	sort         bool
	callback     func(i int, v any)
	progressDesc *string
	progressOpts []progress.Option
	report       *CallReport
}

// CallReport describes how a Map call ended.
type CallReport struct {
	CallID    types.CallID
	Count     int
	Received  int
	Truncated bool
	Exception string
}

// MapOption configures a single Map call.
type MapOption func(*mapConfig)

// WithChunkSize groups items into chunks of n; values below one mean one.
func WithChunkSize(n int) MapOption {
	return func(c *mapConfig) {
		if n < 1 {
			n = 1
		}
		c.chunkSize = n
	}
}

// WithSort toggles stable sorting of results by input index.
func WithSort(sort bool) MapOption {
	return func(c *mapConfig) {
		c.sort = sort
	}
}

// WithCallback invokes fn for every (index, output) pair as it arrives.
func WithCallback[U any](fn func(i int, v U)) MapOption {
	return func(c *mapConfig) {
		c.callback = func(i int, v any) {
			out, _ := v.(U)
			fn(i, out)
		}
	}
}

// WithReport fills r once the call returns.
func WithReport(r *CallReport) MapOption {
	return func(c *mapConfig) {
		c.report = r
	}
}
