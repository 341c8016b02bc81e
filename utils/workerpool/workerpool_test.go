package workerpool

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/adapters/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(v int) (int, error) { return v, nil }

func sequence(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i * 3
	}
	return out
}

func newTestPool(t *testing.T, opts ...Option) *Pool[int, int] {
	t.Helper()
	p := NewPool[int, int](append([]Option{WithLogger(log.NewNopLogger())}, opts...)...)
	require.NoError(t, p.Start())
	t.Cleanup(p.Terminate)
	return p
}

func TestIdentityMapAcrossWorkersAndChunks(t *testing.T) {
	for _, workers := range []int{1, 3, 8} {
		for _, chunk := range []int{1, 2, 7, 100} {
			t.Run(fmt.Sprintf("workers=%d/chunk=%d", workers, chunk), func(t *testing.T) {
				p := newTestPool(t, WithNumWorkers(workers))
				in := sequence(53)
				out, err := p.Map(identity, in, WithChunkSize(chunk))
				require.NoError(t, err)
				assert.Equal(t, in, out)
			})
		}
	}
}

func TestChunkSizeLargerThanInputIsClamped(t *testing.T) {
	mc := prometheus.NewMetricsCollector()
	p := newTestPool(t, WithNumWorkers(2), WithMetrics(mc))

	for _, chunk := range []int{1 << 40, math.MaxInt} {
		out, err := p.Map(identity, []int{1, 2, 3}, WithChunkSize(chunk))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, out)
	}
	assert.InDelta(t, 2, testutil.ToFloat64(mc.ChunksDispatched()), 1e-9, "one chunk per call")

	out, err := p.Map(identity, nil, WithChunkSize(math.MaxInt))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSortRestoresOrderWhenArrivalIsShuffled(t *testing.T) {
	p := newTestPool(t, WithNumWorkers(4))
	in := sequence(40)
	slowFirst := func(v int) (int, error) {
		if v < 12 {
			time.Sleep(5 * time.Millisecond)
		}
		return v + 1, nil
	}

	out, err := p.Map(slowFirst, in, WithChunkSize(3))
	require.NoError(t, err)
	for i, v := range out {
		assert.Equal(t, in[i]+1, v)
	}

	unsorted, err := p.Map(slowFirst, in, WithChunkSize(3), WithSort(false))
	require.NoError(t, err)
	assert.ElementsMatch(t, out, unsorted)
}

func TestEmptyInputReportsZeroCount(t *testing.T) {
	p := newTestPool(t, WithNumWorkers(2))
	var report CallReport

	out, err := p.Map(identity, nil, WithReport(&report))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 0, report.Count)
	assert.False(t, report.Truncated)
}

func TestWorkerExceptionTruncatesResults(t *testing.T) {
	p := newTestPool(t, WithNumWorkers(1))
	in := sequence(20)
	failAt := 7
	fn := func(v int) (int, error) {
		if v == in[failAt] {
			return 0, errors.New("boom")
		}
		return v * 2, nil
	}

	var report CallReport
	out, err := p.Map(fn, in, WithReport(&report))
	require.NoError(t, err, "truncation is silent by default")
	require.Len(t, out, failAt)
	for i, v := range out {
		assert.Equal(t, in[i]*2, v)
	}
	assert.True(t, report.Truncated)
	assert.Contains(t, report.Exception, "boom")
	assert.Equal(t, failAt, report.Received)
}

func TestFailingChunkIsDroppedWhole(t *testing.T) {
	p := newTestPool(t, WithNumWorkers(1))
	fn := func(v int) (int, error) {
		if v == 5 {
			return 0, errors.New("boom")
		}
		return v, nil
	}

	var report CallReport
	out, err := p.Map(fn, []int{0, 1, 2, 3, 4, 5, 6, 7}, WithChunkSize(4), WithReport(&report))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, out, "item 4 precedes the failure but shares its chunk")
	assert.True(t, report.Truncated)
}

func TestPropagatePolicyReturnsWorkerError(t *testing.T) {
	p := newTestPool(t, WithNumWorkers(1), WithErrorPolicy(PropagateOnError))
	fn := func(v int) (int, error) {
		if v == 3 {
			return 0, errors.New("bad item")
		}
		return v, nil
	}

	out, err := p.Map(fn, []int{0, 1, 2, 3, 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker got exception")
	assert.Equal(t, []int{0, 1, 2}, out)
}

func TestPanicIsReportedAsException(t *testing.T) {
	p := newTestPool(t, WithNumWorkers(1), WithErrorPolicy(PropagateOnError))
	var report CallReport
	_, err := p.Map(func(v int) (int, error) { panic("kaput") }, []int{1}, WithReport(&report))

	require.Error(t, err)
	assert.Contains(t, report.Exception, "panic: kaput")
	assert.Equal(t, StateStarted, p.State(), "a panicking item does not kill the pool")
}

func TestAbandonedCallDoesNotLeakIntoNextCall(t *testing.T) {
	p := newTestPool(t, WithNumWorkers(1))
	failFirst := func(v int) (int, error) {
		if v == 0 {
			return 0, errors.New("first item fails")
		}
		return -v, nil
	}
	out, err := p.Map(failFirst, sequence(50))
	require.NoError(t, err)
	assert.Empty(t, out)

	in := sequence(10)
	out, err = p.Map(identity, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestConcurrentMapCalls(t *testing.T) {
	p := newTestPool(t, WithNumWorkers(4))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			in := make([]int, 25)
			for i := range in {
				in[i] = g*1000 + i
			}
			out, err := p.Map(func(v int) (int, error) { return v + 1, nil }, in, WithChunkSize(g%3+1))
			assert.NoError(t, err)
			require.Len(t, out, len(in))
			for i := range in {
				assert.Equal(t, in[i]+1, out[i])
			}
		}(g)
	}
	wg.Wait()
}

func TestCallbackSeesEveryPair(t *testing.T) {
	p := newTestPool(t, WithNumWorkers(3))
	seen := map[int]int{}
	var mu sync.Mutex

	_, err := p.Map(func(v int) (int, error) { return v * v, nil }, []int{1, 2, 3, 4},
		WithChunkSize(2),
		WithCallback(func(i int, v int) {
			mu.Lock()
			seen[i] = v
			mu.Unlock()
		}))
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 1, 1: 4, 2: 9, 3: 16}, seen)
}

func TestTerminateDrainsInFlightCall(t *testing.T) {
	p := NewPool[int, int](WithLogger(log.NewNopLogger()), WithNumWorkers(2))
	require.NoError(t, p.Start())

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	slow := func(v int) (int, error) {
		once.Do(func() { close(started) })
		<-release
		return v * 10, nil
	}

	type outcome struct {
		out []int
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := p.Map(slow, []int{1, 2, 3, 4, 5})
		done <- outcome{out, err}
	}()

	<-started
	terminated := make(chan struct{})
	go func() {
		p.Terminate()
		close(terminated)
	}()
	close(release)

	res := <-done
	<-terminated
	require.NoError(t, res.err)
	assert.Equal(t, []int{10, 20, 30, 40, 50}, res.out)
	assert.Equal(t, StateTerminated, p.State())
}

func TestLifecycle(t *testing.T) {
	p := NewPool[int, int](WithLogger(log.NewNopLogger()), WithNumWorkers(2))
	assert.Equal(t, StateUnstarted, p.State())

	out, err := p.Map(identity, []int{5, 6})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, out)
	assert.Equal(t, StateStarted, p.State())
	assert.ErrorIs(t, p.Start(), ErrAlreadyStarted)
	assert.NoError(t, p.TryStart())

	p.Terminate()
	assert.Equal(t, StateTerminated, p.State())
	_, err = p.Map(identity, []int{1})
	assert.ErrorIs(t, err, ErrPoolTerminated)
	p.Terminate()
}

func TestMetricsAreRecorded(t *testing.T) {
	mc := prometheus.NewMetricsCollector()
	p := newTestPool(t, WithNumWorkers(2), WithMetrics(mc))

	_, err := p.Map(identity, sequence(10), WithChunkSize(4))
	require.NoError(t, err)
	_, _ = p.Map(func(int) (int, error) { return 0, errors.New("x") }, []int{1})

	assert.InDelta(t, 4, testutil.ToFloat64(mc.ChunksDispatched()), 1e-9)
	assert.InDelta(t, 10, testutil.ToFloat64(mc.ItemsProcessed()), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(mc.WorkerExceptions()), 1e-9)
}
