// Package prometheus provides a Prometheus-backed stats collector.
package prometheus

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/discochess/cellar/internal/stats"
)

// help holds descriptions for the metrics the cache reports.
// Unknown metric names use their own name as help text.
var help = map[string]string{
	stats.MetricHits:            "Number of cache reads that returned a value.",
	stats.MetricMisses:          "Number of cache reads that found no live entry.",
	stats.MetricExpirations:     "Number of entries removed because their TTL elapsed.",
	stats.MetricSets:            "Number of new keys inserted.",
	stats.MetricUpdates:         "Number of existing keys overwritten.",
	stats.MetricDeletes:         "Number of entries removed, including expirations and evictions.",
	stats.MetricEvictions:       "Number of entries removed to free capacity.",
	stats.MetricEvictionErrors:  "Number of eviction cycles that failed.",
	stats.MetricOperationErrors: "Number of cache operations that failed unexpectedly.",
	stats.MetricLoads:           "Number of read-through loads started.",
	stats.MetricLoadErrors:      "Number of read-through loads that failed.",
	stats.MetricLoadDuration:    "Duration of read-through loads in seconds.",
	stats.MetricSize:            "Current number of entries in the cache.",
}

// buckets overrides histogram buckets per metric.
var buckets = map[string][]float64{
	stats.MetricLoadDuration: prometheus.ExponentialBuckets(0.0005, 2, 16),
}

// Collector implements stats.Collector using Prometheus metrics.
// Metrics are created and registered on first use.
type Collector struct {
	registry prometheus.Registerer

	mu         sync.RWMutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Collector{
		registry:   registry,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	counter := lookup(c, c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: helpFor(name)})
	})
	counter.Add(float64(delta))
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value int64) {
	gauge := lookup(c, c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: helpFor(name)})
	})
	gauge.Set(float64(value))
}

// ObserveHistogram records a value in a histogram.
func (c *Collector) ObserveHistogram(name string, value float64) {
	histogram := lookup(c, c.histograms, name, func() prometheus.Histogram {
		b, ok := buckets[name]
		if !ok {
			b = prometheus.DefBuckets
		}
		return prometheus.NewHistogram(prometheus.HistogramOpts{Name: name, Help: helpFor(name), Buckets: b})
	})
	histogram.Observe(value)
}

// lookup returns the metric cached under name, creating and registering it
// with build on first use. A metric already registered elsewhere under the
// same name is adopted instead.
func lookup[M prometheus.Collector](c *Collector, metrics map[string]M, name string, build func() M) M {
	c.mu.RLock()
	m, ok := metrics[name]
	c.mu.RUnlock()
	if ok {
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok = metrics[name]; ok {
		return m
	}

	m = build()
	if err := c.registry.Register(m); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				m = existing
			}
		}
		// Otherwise keep the unregistered metric; updates still succeed.
	}
	metrics[name] = m
	return m
}

func helpFor(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}
