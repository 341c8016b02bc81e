package context

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/utils/types"
	"github.com/abhissng/synapse/utils/workerpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppContextFillsDefaults(t *testing.T) {
	app, err := NewAppContext(WithLogger(log.NewNopLogger()))
	require.NoError(t, err)

	assert.NotNil(t, app.Metrics())
	assert.NotNil(t, app.Notifier())
	assert.NotNil(t, app.Runtime())
	assert.Nil(t, app.Events())

	status, details := app.CheckDependencies()
	assert.Equal(t, "OK", status)
	assert.Equal(t, "OK", details.Logger.Status)
	assert.Empty(t, details.Nats.Status)
}

func TestShutdownWritesMetricsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.prom")
	app, err := NewAppContext(WithLogger(log.NewNopLogger()), WithMetricsSnapshot(path))
	require.NoError(t, err)

	out, err := workerpool.MultiprocessingMap(app.Runtime(), func(x int) (int, error) { return x * x, nil }, []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 9}, out)

	require.NoError(t, app.Shutdown(context.Background()))
	assert.FileExists(t, path)
}

func TestRunContextCarriesRunID(t *testing.T) {
	id := types.NewRunID()
	app, err := NewAppContext(WithLogger(log.NewNopLogger()), WithRunID(id))
	require.NoError(t, err)

	rc := NewRunContext(context.Background(), app)
	child, cancel := rc.WithCancel()
	defer cancel()

	got, ok := RunIDFrom(child)
	require.True(t, ok)
	assert.Equal(t, id, got)

	fields := child.Slog(log.Int("epoch", 1))
	require.Len(t, fields, 2)
	assert.Equal(t, "run_id", fields[0].Key)
	assert.Equal(t, id.String(), fields[0].String)
}
