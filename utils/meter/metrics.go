package meter

import (
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	promadapter "github.com/abhissng/synapse/adapters/prometheus"
	"github.com/abhissng/synapse/utils/helpers"
)

const (
	meterGaugeName = "meter"
	stepGaugeName  = "global_step"
	snapshotFile   = "metrics.prom"
)

// MetricsGroupMeters mirrors every update into a labelled prometheus gauge and
// writes textfile snapshots into a log directory.
type MetricsGroupMeters struct {
	*GroupMeters
	collector *promadapter.MetricsCollector
	gauge     *prometheus.GaugeVec
	step      prometheus.Gauge
	logDir    string
}

// NewMetricsGroupMeters registers the meter gauges on collector. Snapshots go to logDir.
func NewMetricsGroupMeters(collector *promadapter.MetricsCollector, logDir string) (*MetricsGroupMeters, error) {
	gauge, err := collector.GetGaugeVec(meterGaugeName, "Latest value of a training meter", []string{"name"})
	if err != nil {
		return nil, err
	}
	step, err := collector.GetGauge(stepGaugeName, "Global training step")
	if err != nil {
		return nil, err
	}
	return &MetricsGroupMeters{
		GroupMeters: NewGroupMeters(),
		collector:   collector,
		gauge:       gauge,
		step:        step,
		logDir:      logDir,
	}, nil
}

// Update records updates and sets the gauge of each key to its latest value.
func (m *MetricsGroupMeters) Update(updates map[string]float64, n int) {
	m.GroupMeters.Update(updates, n)
	for k, v := range updates {
		m.gauge.WithLabelValues(k).Set(v)
	}
}

// UpdateOne records a single value.
func (m *MetricsGroupMeters) UpdateOne(key string, v float64) {
	m.Update(map[string]float64{key: v}, 1)
}

// SetStep records the global step.
func (m *MetricsGroupMeters) SetStep(step int) {
	m.step.Set(float64(step))
}

// SnapshotPath returns the textfile written by Flush.
func (m *MetricsGroupMeters) SnapshotPath() string {
	return filepath.Join(m.logDir, snapshotFile)
}

// Flush writes the current metrics to SnapshotPath.
func (m *MetricsGroupMeters) Flush() error {
	if _, err := helpers.EnsurePath(m.logDir); err != nil {
		return err
	}
	return m.collector.WriteToTextfile(m.SnapshotPath())
}
