package prometheus

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/discochess/cellar/internal/stats"
)

// gather returns the metric family with the given name, or nil.
func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestNew_DefaultRegistry(t *testing.T) {
	c := New(nil)
	if c.registry != prometheus.DefaultRegisterer {
		t.Error("registry should default to prometheus.DefaultRegisterer")
	}
}

func TestCollector_IncCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter(stats.MetricHits, 5)
	c.IncCounter(stats.MetricHits, 3)

	f := gather(t, reg, stats.MetricHits)
	if f == nil {
		t.Fatalf("%s not registered", stats.MetricHits)
	}
	if got := f.GetMetric()[0].GetCounter().GetValue(); got != 8 {
		t.Errorf("counter value = %v, want 8", got)
	}
	if got := f.GetHelp(); got != help[stats.MetricHits] {
		t.Errorf("help = %q, want %q", got, help[stats.MetricHits])
	}
}

func TestCollector_SetGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetGauge(stats.MetricSize, 10)
	c.SetGauge(stats.MetricSize, 4)

	f := gather(t, reg, stats.MetricSize)
	if f == nil {
		t.Fatalf("%s not registered", stats.MetricSize)
	}
	if got := f.GetMetric()[0].GetGauge().GetValue(); got != 4 {
		t.Errorf("gauge value = %v, want 4", got)
	}
}

func TestCollector_ObserveHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveHistogram(stats.MetricLoadDuration, 0.001)
	c.ObserveHistogram(stats.MetricLoadDuration, 0.2)
	c.ObserveHistogram("custom_histogram", 1.5)

	f := gather(t, reg, stats.MetricLoadDuration)
	if f == nil {
		t.Fatalf("%s not registered", stats.MetricLoadDuration)
	}
	h := f.GetMetric()[0].GetHistogram()
	if got := h.GetSampleCount(); got != 2 {
		t.Errorf("sample count = %d, want 2", got)
	}
	if got, want := len(h.GetBucket()), len(buckets[stats.MetricLoadDuration]); got != want {
		t.Errorf("bucket count = %d, want %d", got, want)
	}

	custom := gather(t, reg, "custom_histogram")
	if custom == nil {
		t.Fatal("custom_histogram not registered")
	}
	if got := custom.GetHelp(); got != "custom_histogram" {
		t.Errorf("help = %q, want metric name", got)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				c.IncCounter(stats.MetricSets, 1)
				c.SetGauge(stats.MetricSize, int64(j))
				c.ObserveHistogram(stats.MetricLoadDuration, float64(j)/1000)
			}
		}()
	}
	wg.Wait()

	f := gather(t, reg, stats.MetricSets)
	if f == nil {
		t.Fatalf("%s not registered", stats.MetricSets)
	}
	if got := f.GetMetric()[0].GetCounter().GetValue(); got != 1000 {
		t.Errorf("counter value = %v, want 1000", got)
	}
}

func TestCollector_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	existing := prometheus.NewCounter(prometheus.CounterOpts{
		Name: stats.MetricMisses,
		Help: help[stats.MetricMisses],
	})
	reg.MustRegister(existing)
	existing.Add(100)

	c := New(reg)
	c.IncCounter(stats.MetricMisses, 5)

	f := gather(t, reg, stats.MetricMisses)
	if f == nil {
		t.Fatalf("%s not registered", stats.MetricMisses)
	}
	if got := f.GetMetric()[0].GetCounter().GetValue(); got != 105 {
		t.Errorf("counter value = %v, want 105", got)
	}
}
