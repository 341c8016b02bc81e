package workerpool

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/utils/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeBuildsSingleWorkerPoolOnDemand(t *testing.T) {
	rt := NewRuntime(WithLogger(log.NewNopLogger()))
	defer rt.Shutdown()

	out, err := MultiprocessingMap(rt, func(v int) (string, error) { return strconv.Itoa(v * v), nil }, []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "4", "9"}, out)

	pool, err := rt.Default()
	require.NoError(t, err)
	assert.Equal(t, 1, pool.NumWorkers())

	rt.Shutdown()
	assert.Equal(t, StateTerminated, pool.State())

	again, err := rt.Default()
	require.NoError(t, err)
	assert.NotSame(t, pool, again)
}

func TestProgressMapDrawsBar(t *testing.T) {
	rt := NewRuntime(WithLogger(log.NewNopLogger()))
	defer rt.Shutdown()

	var buf bytes.Buffer
	out, err := MultiprocessingMap(rt, func(v int) (int, error) { return v + 1, nil }, []int{1, 2, 3, 4},
		WithProgress("prep", progress.WithWriter(&buf), progress.WithRefreshRate(0)))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4, 5}, out)
	assert.Contains(t, buf.String(), "4/4")
	assert.Contains(t, buf.String(), "prep (iter=")
}
