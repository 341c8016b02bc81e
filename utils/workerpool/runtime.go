package workerpool

import (
	"sync"
)

// Runtime owns a lazily built, process-scoped pool shared by the package-level
// map helpers. The zero value is not usable; build one with NewRuntime.
type Runtime struct {
	mu      sync.Mutex
	options []Option
	pool    *Pool[any, any]
}

// NewRuntime returns a runtime whose default pool is built with a single worker
// plus any extra options.
func NewRuntime(options ...Option) *Runtime {
	return &Runtime{options: append([]Option{WithNumWorkers(1)}, options...)}
}

// Default returns the shared pool, constructing and starting it on first use.
// After Shutdown a fresh pool is built.
func (r *Runtime) Default() (*Pool[any, any], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pool == nil || r.pool.State() == StateTerminated {
		r.pool = NewPool[any, any](r.options...)
	}
	if err := r.pool.TryStart(); err != nil {
		return nil, err
	}
	return r.pool, nil
}

// Shutdown terminates the shared pool if one was built.
func (r *Runtime) Shutdown() {
	r.mu.Lock()
	pool := r.pool
	r.pool = nil
	r.mu.Unlock()
	if pool != nil {
		pool.Terminate()
	}
}

// MultiprocessingMap runs fn over items on the runtime's shared pool.
func MultiprocessingMap[T, U any](rt *Runtime, fn MapFunc[T, U], items []T, opts ...MapOption) ([]U, error) {
	pool, err := rt.Default()
	if err != nil {
		return nil, err
	}

	boxed := make([]any, len(items))
	for i, v := range items {
		boxed[i] = v
	}
	out, err := pool.Map(func(v any) (any, error) {
		typed, _ := v.(T)
		return fn(typed)
	}, boxed, opts...)

	typed := make([]U, len(out))
	for i, v := range out {
		typed[i], _ = v.(U)
	}
	return typed, err
}

// ProgressMap is MultiprocessingMap with a progress bar described by desc.
func ProgressMap[T, U any](rt *Runtime, fn MapFunc[T, U], items []T, desc string, opts ...MapOption) ([]U, error) {
	return MultiprocessingMap(rt, fn, items, append(opts, WithProgress(desc))...)
}
