package prometheus

import "github.com/prometheus/client_golang/prometheus"

// MetricsCollectorOptions defines the options for configuring MetricsCollector.
type MetricsCollectorOptions func(*MetricsCollector)

// WithServiceName sets the metric name prefix.
func WithServiceName(serviceName string) MetricsCollectorOptions {
	return func(collector *MetricsCollector) {
		if serviceName != "" {
			collector.serviceName = serviceName
		}
	}
}

// WithRegistry sets the Prometheus registry for the metrics collector.
func WithRegistry(registry *prometheus.Registry) MetricsCollectorOptions {
	return func(collector *MetricsCollector) {
		collector.registry = registry
	}
}

// ServiceName returns the metric name prefix.
func (collector *MetricsCollector) ServiceName() string {
	return collector.serviceName
}

// Registry returns the Prometheus registry.
func (collector *MetricsCollector) Registry() *prometheus.Registry {
	return collector.registry
}

// ChunksDispatched counts chunks queued on the worker pool.
func (collector *MetricsCollector) ChunksDispatched() prometheus.Counter {
	return collector.chunksTotal
}

// ItemsProcessed counts items mapped by pool workers.
func (collector *MetricsCollector) ItemsProcessed() prometheus.Counter {
	return collector.itemsTotal
}

// WorkerExceptions counts exceptions raised inside pool workers.
func (collector *MetricsCollector) WorkerExceptions() prometheus.Counter {
	return collector.exceptionsTotal
}

// StepDuration observes the duration of optimisation steps.
func (collector *MetricsCollector) StepDuration() prometheus.Histogram {
	return collector.stepDuration
}
