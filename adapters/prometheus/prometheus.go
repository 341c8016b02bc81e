package prometheus

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector is a struct for collecting Prometheus metrics.
type MetricsCollector struct {
	mu              sync.Mutex
	registry        *prometheus.Registry
	chunksTotal     prometheus.Counter
	itemsTotal      prometheus.Counter
	exceptionsTotal prometheus.Counter
	stepDuration    prometheus.Histogram
	serviceName     string
	customMetrics   map[string]prometheus.Collector
}

// NewMetricsCollector creates a new Prometheus metrics collector with options.
func NewMetricsCollector(options ...MetricsCollectorOptions) *MetricsCollector {
	collector := &MetricsCollector{
		registry:      prometheus.NewRegistry(),
		serviceName:   "synapse",
		customMetrics: make(map[string]prometheus.Collector),
	}

	for _, option := range options {
		option(collector)
	}
	collector.serviceName = SanitizeName(collector.serviceName)

	collector.registerDefaultMetrics()

	return collector
}

func (mc *MetricsCollector) registerDefaultMetrics() {
	mc.chunksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: mc.serviceName + "_pool_chunks_dispatched_total",
		Help: "Total number of chunks queued on the worker pool",
	})

	mc.itemsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: mc.serviceName + "_pool_items_processed_total",
		Help: "Total number of items mapped by pool workers",
	})

	mc.exceptionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: mc.serviceName + "_pool_worker_exceptions_total",
		Help: "Total number of exceptions raised inside pool workers",
	})

	mc.stepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    mc.serviceName + "_train_step_duration_seconds",
		Help:    "Duration of a single optimisation step",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
	})

	mc.registry.MustRegister(
		mc.chunksTotal,
		mc.itemsTotal,
		mc.exceptionsTotal,
		mc.stepDuration,
	)
}

// AddCustomMetric adds a custom metric to the collector
func (mc *MetricsCollector) AddCustomMetric(name string, metric prometheus.Collector) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if err := mc.registry.Register(metric); err != nil {
		return fmt.Errorf("register metric %s: %w", name, err)
	}
	mc.customMetrics[name] = metric
	return nil
}

// GetCounter returns the counter registered under name, creating it on first use.
func (mc *MetricsCollector) GetCounter(name, help string) (prometheus.Counter, error) {
	if existing, ok := mc.lookup(name).(prometheus.Counter); ok {
		return existing, nil
	}
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: mc.serviceName + "_" + SanitizeName(name),
		Help: help,
	})
	return counter, mc.AddCustomMetric(name, counter)
}

// GetGauge returns the gauge registered under name, creating it on first use.
func (mc *MetricsCollector) GetGauge(name, help string) (prometheus.Gauge, error) {
	if existing, ok := mc.lookup(name).(prometheus.Gauge); ok {
		return existing, nil
	}
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: mc.serviceName + "_" + SanitizeName(name),
		Help: help,
	})
	return gauge, mc.AddCustomMetric(name, gauge)
}

// GetGaugeVec returns the labelled gauge registered under name, creating it on first use.
func (mc *MetricsCollector) GetGaugeVec(name, help string, labels []string) (*prometheus.GaugeVec, error) {
	if existing, ok := mc.lookup(name).(*prometheus.GaugeVec); ok {
		return existing, nil
	}
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: mc.serviceName + "_" + SanitizeName(name),
		Help: help,
	}, labels)
	return gauge, mc.AddCustomMetric(name, gauge)
}

func (mc *MetricsCollector) lookup(name string) prometheus.Collector {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.customMetrics[name]
}

// WriteToTextfile writes a snapshot of every registered metric in the text exposition format.
func (mc *MetricsCollector) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, mc.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_:]`)

// SanitizeName maps an arbitrary string onto a valid metric name fragment.
func SanitizeName(name string) string {
	name = invalidNameChars.ReplaceAllString(name, "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "_" + name
	}
	return name
}
