package simulation

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Metrics contains computed metrics from simulation results.
type Metrics struct {
	// Core metrics.
	Runs      int
	TotalOps  int
	HitRatio  float64
	Evictions int64

	// Per-run distribution.
	MeanHitRatio   float64
	MedianHitRatio float64
	P10HitRatio    float64
	P90HitRatio    float64
	MinHitRatio    float64
	MaxHitRatio    float64

	// EvictionsPerMiss approaches 1 once the cache is full.
	EvictionsPerMiss float64
}

// ComputeMetrics computes detailed metrics from aggregate results.
func ComputeMetrics(result *AggregateResult) *Metrics {
	m := &Metrics{
		Runs:      result.Runs,
		TotalOps:  result.TotalOps,
		HitRatio:  result.HitRatio(),
		Evictions: result.Evictions,
	}

	if len(result.HitRatios) > 0 {
		sorted := slices.Clone(result.HitRatios)
		slices.Sort(sorted)

		m.MeanHitRatio = stat.Mean(sorted, nil)
		m.MinHitRatio = sorted[0]
		m.MaxHitRatio = sorted[len(sorted)-1]
		m.MedianHitRatio = stat.Quantile(0.5, stat.Empirical, sorted, nil)
		m.P10HitRatio = stat.Quantile(0.1, stat.Empirical, sorted, nil)
		m.P90HitRatio = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	}

	if result.Misses > 0 {
		m.EvictionsPerMiss = float64(result.Evictions) / float64(result.Misses)
	}

	return m
}

// MetricsComparison holds the differences between two policies' metrics.
type MetricsComparison struct {
	Policy1 string
	Policy2 string

	HitRatioDiff    float64 // Positive means Policy1 hits more often.
	HitRatioDiffPct float64
	EvictionsDiff   int64
}

// Compare compares two metrics and returns the differences.
func Compare(m1, m2 *Metrics, name1, name2 string) *MetricsComparison {
	return &MetricsComparison{
		Policy1:         name1,
		Policy2:         name2,
		HitRatioDiff:    m1.HitRatio - m2.HitRatio,
		HitRatioDiffPct: safeDiffPct(m1.HitRatio, m2.HitRatio),
		EvictionsDiff:   m1.Evictions - m2.Evictions,
	}
}

func safeDiffPct(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b * 100
}
