package prometheus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMetricsAreRegistered(t *testing.T) {
	mc := NewMetricsCollector(WithServiceName("synapse-test"))
	mc.ChunksDispatched().Add(3)
	mc.WorkerExceptions().Inc()

	assert.Equal(t, "synapse_test", mc.ServiceName())
	assert.InDelta(t, 3, testutil.ToFloat64(mc.ChunksDispatched()), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(mc.WorkerExceptions()), 1e-9)
}

func TestGetGaugeIsIdempotent(t *testing.T) {
	mc := NewMetricsCollector()
	g1, err := mc.GetGauge("loss", "training loss")
	require.NoError(t, err)
	g2, err := mc.GetGauge("loss", "training loss")
	require.NoError(t, err)

	g1.Set(0.25)
	assert.InDelta(t, 0.25, testutil.ToFloat64(g2), 1e-9)
}

func TestWriteToTextfile(t *testing.T) {
	mc := NewMetricsCollector()
	vec, err := mc.GetGaugeVec("meter", "meter averages", []string{"name"})
	require.NoError(t, err)
	vec.WithLabelValues("loss/train").Set(1.5)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, mc.WriteToTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `synapse_meter{name="loss/train"} 1.5`)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "loss_train", SanitizeName("loss/train"))
	assert.Equal(t, "_1st", SanitizeName("1st"))
}
