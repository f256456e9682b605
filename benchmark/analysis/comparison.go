package analysis

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/discochess/cellar"
	"github.com/discochess/cellar/benchmark/simulation"
)

// PolicyComparison is a statistical comparison of per-run hit ratios
// between two eviction policies.
type PolicyComparison struct {
	Policy1         cellar.Policy
	Policy2         cellar.Policy
	Stats1          *DescriptiveStats
	Stats2          *DescriptiveStats
	MannWhitney     *MannWhitneyResult
	EffectSize      *EffectSize
	BootstrapCI     *BootstrapResult
	Winner          string // Policy with the higher mean hit ratio, or "tie".
	WinnerConfident bool   // True if statistically significant.
}

// ComparePolicies performs a full statistical comparison between two policies.
func ComparePolicies(
	result1, result2 *simulation.AggregateResult,
	bootstrapIterations int,
	confidence float64,
) *PolicyComparison {
	sample1 := result1.HitRatios
	sample2 := result2.HitRatios

	mw := MannWhitneyU(sample1, sample2)
	r := rand.New(rand.NewPCG(uint64(len(sample1)), uint64(len(sample2))))

	stats1 := Describe(sample1)
	stats2 := Describe(sample2)

	winner := "tie"
	var confident bool
	switch {
	case stats1.Mean > stats2.Mean:
		winner = result1.Policy.String()
		confident = mw.Significant
	case stats2.Mean > stats1.Mean:
		winner = result2.Policy.String()
		confident = mw.Significant
	}

	return &PolicyComparison{
		Policy1:         result1.Policy,
		Policy2:         result2.Policy,
		Stats1:          stats1,
		Stats2:          stats2,
		MannWhitney:     mw,
		EffectSize:      ComputeEffectSize(sample1, sample2),
		BootstrapCI:     BootstrapConfidenceInterval(r, sample1, sample2, bootstrapIterations, confidence),
		Winner:          winner,
		WinnerConfident: confident,
	}
}

// Summary returns a human-readable summary of the comparison.
func (c *PolicyComparison) Summary() string {
	sig := "not statistically significant"
	if c.MannWhitney.Significant {
		sig = fmt.Sprintf("statistically significant (p=%.4f)", c.MannWhitney.PValue)
	}

	return fmt.Sprintf(
		"%s vs %s:\n"+
			"  %s: mean=%.4f, median=%.4f, std=%.4f\n"+
			"  %s: mean=%.4f, median=%.4f, std=%.4f\n"+
			"  Difference: %+.4f hit ratio (%.1f%%)\n"+
			"  Effect size: %.2f (%s)\n"+
			"  Result: %s, %s",
		c.Policy1, c.Policy2,
		c.Policy1, c.Stats1.Mean, c.Stats1.Median, c.Stats1.StdDev,
		c.Policy2, c.Stats2.Mean, c.Stats2.Median, c.Stats2.StdDev,
		c.Stats1.Mean-c.Stats2.Mean,
		safePctDiff(c.Stats1.Mean, c.Stats2.Mean),
		c.EffectSize.CohensD, c.EffectSize.Interpretation,
		c.Winner, sig,
	)
}

func safePctDiff(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b * 100
}

// MultiPolicyComparison compares several policies against a baseline.
type MultiPolicyComparison struct {
	Baseline    cellar.Policy
	Comparisons []*PolicyComparison
}

// CompareAll compares every policy against baseline, in policy name order.
// It returns nil if baseline has no results.
func CompareAll(
	results map[cellar.Policy]*simulation.AggregateResult,
	baseline cellar.Policy,
	bootstrapIterations int,
	confidence float64,
) *MultiPolicyComparison {
	baseResult, ok := results[baseline]
	if !ok {
		return nil
	}

	multi := &MultiPolicyComparison{Baseline: baseline}

	policies := make([]cellar.Policy, 0, len(results))
	for p := range results {
		if p != baseline {
			policies = append(policies, p)
		}
	}
	slices.Sort(policies)

	for _, p := range policies {
		multi.Comparisons = append(multi.Comparisons,
			ComparePolicies(baseResult, results[p], bootstrapIterations, confidence))
	}

	return multi
}
