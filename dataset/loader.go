package dataset

import (
	"math/rand"
	"sync"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/adapters/prometheus"
	"github.com/abhissng/synapse/train"
	"github.com/abhissng/synapse/utils/random"
	"github.com/abhissng/synapse/utils/workerpool"
)

// DataLoader yields collated batches of a Dataset. Batches are built on a
// worker pool, a window of them per Map call.
type DataLoader struct {
	ds        Dataset
	batchSize int
	shuffle   bool
	dropLast  bool
	seed      int64
	workers   int
	logger    *log.Log
	metrics   *prometheus.MetricsCollector

	mu   sync.Mutex
	rng  *rand.Rand
	pool *workerpool.Pool[[]int, train.FeedDict]
}

// LoaderOption configures a DataLoader.
type LoaderOption func(*DataLoader)

// WithBatchSize sets the batch size (default 1).
func WithBatchSize(n int) LoaderOption {
	return func(l *DataLoader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithShuffle reshuffles the order every epoch from seed. Seed 0 uses the clock.
func WithShuffle(shuffle bool, seed int64) LoaderOption {
	return func(l *DataLoader) {
		l.shuffle, l.seed = shuffle, seed
	}
}

// WithDropLast drops a trailing partial batch.
func WithDropLast(drop bool) LoaderOption {
	return func(l *DataLoader) {
		l.dropLast = drop
	}
}

// WithNumWorkers sets the number of collating workers (default 1).
func WithNumWorkers(n int) LoaderOption {
	return func(l *DataLoader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithLoaderLogger sets the logger used by the loader and its pool.
func WithLoaderLogger(logger *log.Log) LoaderOption {
	return func(l *DataLoader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLoaderMetrics records pool metrics on mc.
func WithLoaderMetrics(mc *prometheus.MetricsCollector) LoaderOption {
	return func(l *DataLoader) {
		l.metrics = mc
	}
}

// NewDataLoader builds a loader and starts its worker pool. Close releases it.
func NewDataLoader(ds Dataset, opts ...LoaderOption) (*DataLoader, error) {
	l := &DataLoader{ds: ds, batchSize: 1, workers: 1, logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(l)
	}
	l.rng = random.NewRand(l.seed)
	l.pool = workerpool.NewPool[[]int, train.FeedDict](
		workerpool.WithNumWorkers(l.workers),
		workerpool.WithErrorPolicy(workerpool.PropagateOnError),
		workerpool.WithLogger(l.logger.With(log.String("component", "dataloader"))),
		workerpool.WithMetrics(l.metrics),
	)
	if err := l.pool.Start(); err != nil {
		return nil, err
	}
	return l, nil
}

// Len returns the number of batches per epoch.
func (l *DataLoader) Len() int {
	n := l.ds.Len()
	if l.dropLast {
		return n / l.batchSize
	}
	return (n + l.batchSize - 1) / l.batchSize
}

// Close terminates the worker pool.
func (l *DataLoader) Close() {
	l.pool.Terminate()
}

// epochBatches returns the index lists of one epoch.
func (l *DataLoader) epochBatches() [][]int {
	n := l.ds.Len()
	var order []int
	l.mu.Lock()
	if l.shuffle {
		order = l.rng.Perm(n)
	} else {
		order = make([]int, n)
		for i := range order {
			order[i] = i
		}
	}
	l.mu.Unlock()

	batches := make([][]int, 0, l.Len())
	for start := 0; start < n; start += l.batchSize {
		end := min(start+l.batchSize, n)
		if end-start < l.batchSize && l.dropLast {
			break
		}
		batches = append(batches, order[start:end])
	}
	return batches
}

func (l *DataLoader) collate(indices []int) (train.FeedDict, error) {
	examples := make([]train.FeedDict, len(indices))
	for i, idx := range indices {
		ex, err := l.ds.Get(idx)
		if err != nil {
			return nil, err
		}
		examples[i] = ex
	}
	return Collate(examples)
}

// Iter returns an iterator over the batches of one epoch.
func (l *DataLoader) Iter() *Iterator {
	return &Iterator{loader: l, batches: l.epochBatches(), window: 2 * l.workers}
}

// Iterator walks the batches of an epoch, prefetching a window at a time.
// When cycle is set it moves on to a freshly shuffled epoch instead of ending.
type Iterator struct {
	loader  *DataLoader
	batches [][]int
	window  int
	next    int
	ready   []train.FeedDict
	cycle   bool
}

// Cycle makes the iterator restart with a new epoch order when exhausted.
func (it *Iterator) Cycle() *Iterator {
	it.cycle = true
	return it
}

// Next returns the next batch. ok is false once the epoch is exhausted.
func (it *Iterator) Next() (batch train.FeedDict, ok bool, err error) {
	if len(it.ready) == 0 {
		if it.next >= len(it.batches) {
			if !it.cycle || len(it.batches) == 0 {
				return nil, false, nil
			}
			it.batches, it.next = it.loader.epochBatches(), 0
		}
		end := min(it.next+it.window, len(it.batches))
		out, err := it.loader.pool.Map(it.loader.collate, it.batches[it.next:end])
		if err != nil {
			return nil, false, err
		}
		it.ready, it.next = out, end
	}
	batch, it.ready = it.ready[0], it.ready[1:]
	return batch, true, nil
}
