package workerpool

import (
	"fmt"
	"runtime/debug"
	"slices"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/blame"
	"github.com/abhissng/synapse/result"
	"github.com/abhissng/synapse/utils/constant"
	"github.com/abhissng/synapse/utils/progress"
	"github.com/abhissng/synapse/utils/types"
)

// Start launches the workers, the dispatcher and the result router.
func (wp *Pool[T, U]) Start() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.startLocked()
}

// TryStart starts the pool unless it is already running.
func (wp *Pool[T, U]) TryStart() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.state == StateStarted {
		return nil
	}
	return wp.startLocked()
}

func (wp *Pool[T, U]) startLocked() error {
	switch wp.state {
	case StateStarted:
		return ErrAlreadyStarted
	case StateTerminated:
		return ErrPoolTerminated
	}

	depth := wp.numWorkers * wp.queueFactor
	wp.taskQueue = make(chan result.Task[chunk[T, U]], depth)
	wp.resultQueue = make(chan Envelope[U], depth)
	wp.dispatchQueue = make(chan *call[T, U], 1)
	wp.dispatcherDone = make(chan struct{})
	wp.routerDone = make(chan struct{})

	for i := 0; i < wp.numWorkers; i++ {
		wp.workers.Add(1)
		go wp.worker(wp.log.With(log.Int("worker", i)))
	}
	go wp.dispatcher()
	go wp.router()

	wp.state = StateStarted
	wp.log.Debug(constant.PoolStarted, log.Int("workers", wp.numWorkers), log.Int("queue_depth", depth))
	return nil
}

// State reports the lifecycle state.
func (wp *Pool[T, U]) State() State {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	return wp.state
}

// NumWorkers returns the number of worker goroutines.
func (wp *Pool[T, U]) NumWorkers() int {
	return wp.numWorkers
}

// Terminate stops the dispatcher and joins every worker. Calls queued before
// Terminate are dispatched and drained first, so they normally complete with a
// nil error. A call whose inbox is closed before its results arrive returns the
// results it holds together with ErrPoolTerminated.
func (wp *Pool[T, U]) Terminate() {
	wp.mu.Lock()
	if wp.state != StateStarted {
		wp.state = StateTerminated
		wp.mu.Unlock()
		return
	}
	wp.state = StateTerminated
	wp.dispatchQueue <- nil
	wp.mu.Unlock()

	<-wp.dispatcherDone
	wp.workers.Wait()
	close(wp.resultQueue)
	<-wp.routerDone
	wp.log.Debug(constant.PoolTerminated)
}

// worker maps every item of each chunk it pulls. A failing item turns the whole
// chunk into a single EXC envelope.
func (wp *Pool[T, U]) worker(logger *log.Log) {
	defer wp.workers.Done()
	for task := range wp.taskQueue {
		tr := result.NewTaskResult(task.CallID, task.ChunkID, wp.process(task.CallID, task.Input))
		if tr.Output.IsError() {
			logger.Debug(constant.WorkerException, log.String("call", tr.CallID.String()), log.Int("chunk", tr.ChunkID))
		}
		wp.resultQueue <- envelopeFromTaskResult(tr)
	}
}

func (wp *Pool[T, U]) process(callID types.CallID, c chunk[T, U]) (res result.Result[[]IndexedValue[U]]) {
	defer func() {
		if r := recover(); r != nil {
			res = result.NewFailure[[]IndexedValue[U]](blame.WorkerError(callID, fmt.Sprintf("panic: %v\n%s", r, debug.Stack())))
		}
	}()

	out := make([]IndexedValue[U], 0, len(c.pairs))
	for _, p := range c.pairs {
		v, err := c.fn(p.Value)
		if err != nil {
			return result.From(&out, blame.WorkerError(callID, fmt.Sprintf("item %d: %+v", p.Index, err)))
		}
		out = append(out, IndexedValue[U]{Index: p.Index, Value: v})
	}
	if wp.metrics != nil {
		wp.metrics.ItemsProcessed().Add(float64(len(out)))
	}
	return result.NewSuccess(&out)
}

// envelopeFromTaskResult turns a failed chunk into a bare EXC envelope. Pairs the
// chunk mapped before failing are not delivered.
func envelopeFromTaskResult[U any](tr result.TaskResult[[]IndexedValue[U]]) Envelope[U] {
	pairs, err := tr.Output.Value()
	if err != nil {
		exc, _ := err.FetchFields()["exception"].(string)
		if exc == "" {
			exc = err.Error()
		}
		return Envelope[U]{CallID: tr.CallID, Kind: KindExc, Exc: exc}
	}
	return Envelope[U]{CallID: tr.CallID, Kind: KindResult, Pairs: *pairs}
}

// dispatcher chunks each call onto the task queue and then reports its COUNT.
// A nil call is the termination sentinel.
func (wp *Pool[T, U]) dispatcher() {
	defer close(wp.dispatcherDone)
	for c := range wp.dispatchQueue {
		if c == nil {
			close(wp.taskQueue)
			return
		}

		chunkID := 0
		pending := make([]IndexedValue[T], 0, c.chunkSize)
		flush := func() {
			if wp.metrics != nil {
				wp.metrics.ChunksDispatched().Inc()
			}
			wp.taskQueue <- result.NewTask(c.id, chunkID, chunk[T, U]{fn: c.fn, pairs: pending})
			chunkID++
			pending = make([]IndexedValue[T], 0, c.chunkSize)
		}
		for i, v := range c.items {
			pending = append(pending, IndexedValue[T]{Index: i, Value: v})
			if len(pending) >= c.chunkSize {
				flush()
			}
		}
		if len(pending) > 0 {
			flush()
		}

		wp.log.Debug(constant.ChunkDispatched, log.String("call", c.id.String()), log.Int("chunks", chunkID))
		wp.resultQueue <- Envelope[U]{CallID: c.id, Kind: KindCount, Count: len(c.items)}
	}
}

// router delivers envelopes to the inbox of their call. Envelopes of calls that
// already returned are dropped.
func (wp *Pool[T, U]) router() {
	defer close(wp.routerDone)
	for env := range wp.resultQueue {
		if inbox, ok := wp.inboxes.Get(env.CallID); ok {
			inbox <- env
		}
	}

	wp.inboxes.Drain(func(_ types.CallID, inbox chan Envelope[U]) { close(inbox) })
}

// Map applies fn to every item and returns the outputs, sorted by input index
// unless WithSort(false) is given. An unstarted pool is started first.
func (wp *Pool[T, U]) Map(fn MapFunc[T, U], items []T, opts ...MapOption) ([]U, error) {
	cfg := &mapConfig{chunkSize: 1, sort: true}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := wp.TryStart(); err != nil {
		return nil, err
	}

	callback := cfg.callback
	if cfg.progressDesc != nil {
		bar := progress.New(len(items), cfg.progressOpts...)
		defer bar.Close()
		callback = progressCallback(callback, bar, *cfg.progressDesc)
	}

	// A chunk never needs to be larger than the input.
	cfg.chunkSize = max(1, min(cfg.chunkSize, len(items)))

	id := types.NewCallID()
	nrChunks := (len(items) + cfg.chunkSize - 1) / cfg.chunkSize
	inbox := make(chan Envelope[U], nrChunks+1)

	wp.mu.RLock()
	if wp.state != StateStarted {
		wp.mu.RUnlock()
		return nil, ErrPoolTerminated
	}
	wp.inboxes.Set(id, inbox)
	wp.dispatchQueue <- &call[T, U]{id: id, fn: fn, items: items, chunkSize: cfg.chunkSize}
	wp.mu.RUnlock()
	defer wp.inboxes.Delete(id)

	report := CallReport{CallID: id, Count: -1}
	collected := make([]IndexedValue[U], 0, len(items))
	var callErr error

collect:
	for {
		env, ok := <-inbox
		if !ok {
			report.Truncated = true
			callErr = ErrPoolTerminated
			break
		}
		switch env.Kind {
		case KindCount:
			report.Count = env.Count
			wp.log.Debug(constant.CallCountReported, log.String("call", id.String()), log.Int("count", env.Count))
		case KindResult:
			if callback != nil {
				for _, p := range env.Pairs {
					callback(p.Index, p.Value)
				}
			}
			collected = append(collected, env.Pairs...)
		case KindExc:
			report.Truncated = true
			report.Exception = env.Exc
			if wp.metrics != nil {
				wp.metrics.WorkerExceptions().Inc()
			}
			wp.log.Warn(constant.WorkerException+": "+env.Exc, log.String("call", id.String()))
			if wp.policy == PropagateOnError {
				callErr = blame.WorkerError(id, env.Exc)
			}
			break collect
		}
		if report.Count >= 0 && len(collected) >= report.Count {
			break
		}
	}

	report.Received = len(collected)
	if cfg.report != nil {
		*cfg.report = report
	}

	if cfg.sort {
		slices.SortStableFunc(collected, func(a, b IndexedValue[U]) int { return a.Index - b.Index })
	}
	out := make([]U, len(collected))
	for i, p := range collected {
		out[i] = p.Value
	}
	return out, callErr
}
