// Package stats provides a unified interface for collecting cache metrics.
package stats

// Metric names reported by the cache.
const (
	// Read outcomes.
	MetricHits        = "cellar_hits_total"
	MetricMisses      = "cellar_misses_total"
	MetricExpirations = "cellar_expirations_total"

	// Mutations.
	MetricSets      = "cellar_sets_total"
	MetricUpdates   = "cellar_updates_total"
	MetricDeletes   = "cellar_deletes_total"
	MetricEvictions = "cellar_evictions_total"

	// Failures.
	MetricEvictionErrors  = "cellar_eviction_errors_total"
	MetricOperationErrors = "cellar_operation_errors_total"

	// Read-through loading.
	MetricLoads        = "cellar_loads_total"
	MetricLoadErrors   = "cellar_load_errors_total"
	MetricLoadDuration = "cellar_load_duration_seconds"

	// Gauges.
	MetricSize = "cellar_size"
)

// Collector defines the interface for collecting metrics.
// Implementations must be safe for concurrent use.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
