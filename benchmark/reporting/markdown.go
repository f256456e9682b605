// Package reporting renders policy simulation results as reports.
package reporting

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/discochess/cellar"
	"github.com/discochess/cellar/benchmark/analysis"
	"github.com/discochess/cellar/benchmark/simulation"
)

// Config describes the simulation a report covers.
type Config struct {
	Workload string
	Ops      int
	Keys     int
	MaxSize  int
	Seeds    int
}

// Report writes the sections of a simulation report.
type Report interface {
	WriteHeader(title string)
	WriteMethodology(cfg Config)
	WriteSummaryTable(results map[cellar.Policy]*simulation.AggregateResult)
	WriteComparison(comp *analysis.PolicyComparison)
	WriteFooter()
}

// New returns a report writer for format, "markdown" or "text".
func New(format string, w io.Writer) (Report, error) {
	switch format {
	case "markdown", "md":
		return NewMarkdownReport(w), nil
	case "text", "":
		return NewTextReport(w), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// MarkdownReport generates benchmark reports in Markdown format.
type MarkdownReport struct {
	w   io.Writer
	now func() time.Time
}

// NewMarkdownReport creates a new Markdown report writer.
func NewMarkdownReport(w io.Writer) *MarkdownReport {
	return &MarkdownReport{w: w, now: time.Now}
}

// WriteHeader writes the report header.
func (r *MarkdownReport) WriteHeader(title string) {
	fmt.Fprintf(r.w, "# %s\n\n", title)
	fmt.Fprintf(r.w, "Generated: %s\n\n", r.now().Format(time.RFC3339))
}

// WriteMethodology writes the methodology section.
func (r *MarkdownReport) WriteMethodology(cfg Config) {
	fmt.Fprintln(r.w, "## Methodology")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Workload:** %s, %d ops over %d keys\n", cfg.Workload, cfg.Ops, cfg.Keys)
	fmt.Fprintf(r.w, "- **Cache size:** %d entries\n", cfg.MaxSize)
	fmt.Fprintf(r.w, "- **Runs per policy:** %d\n", cfg.Seeds)
	fmt.Fprintln(r.w, "- **Metric:** Hit ratio of a read-through cache (higher is better)")
	fmt.Fprintln(r.w, "- **Statistical tests:** Mann-Whitney U (non-parametric), Cohen's d effect size")
	fmt.Fprintln(r.w)
}

// WriteSummaryTable writes the summary comparison table.
func (r *MarkdownReport) WriteSummaryTable(results map[cellar.Policy]*simulation.AggregateResult) {
	fmt.Fprintln(r.w, "## Summary")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Policy | Hit Ratio | Median | P10 | P90 | Evictions |")
	fmt.Fprintln(r.w, "|--------|-----------|--------|-----|-----|-----------|")

	for _, policy := range sortedPolicies(results) {
		m := simulation.ComputeMetrics(results[policy])
		fmt.Fprintf(r.w, "| %s | %.2f%% | %.2f%% | %.2f%% | %.2f%% | %d |\n",
			policy, m.HitRatio*100, m.MedianHitRatio*100,
			m.P10HitRatio*100, m.P90HitRatio*100, m.Evictions)
	}
	fmt.Fprintln(r.w)
}

// WriteComparison writes a detailed comparison section.
func (r *MarkdownReport) WriteComparison(comp *analysis.PolicyComparison) {
	p1, p2 := comp.Policy1.String(), comp.Policy2.String()
	fmt.Fprintf(r.w, "## %s vs %s\n\n", p1, p2)

	fmt.Fprintln(r.w, "### Descriptive Statistics")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Metric | "+p1+" | "+p2+" |")
	fmt.Fprintln(r.w, "|--------|"+strings.Repeat("-", len(p1)+2)+"|"+strings.Repeat("-", len(p2)+2)+"|")
	fmt.Fprintf(r.w, "| Mean | %.4f | %.4f |\n", comp.Stats1.Mean, comp.Stats2.Mean)
	fmt.Fprintf(r.w, "| Median | %.4f | %.4f |\n", comp.Stats1.Median, comp.Stats2.Median)
	fmt.Fprintf(r.w, "| Std Dev | %.4f | %.4f |\n", comp.Stats1.StdDev, comp.Stats2.StdDev)
	fmt.Fprintf(r.w, "| Min | %.4f | %.4f |\n", comp.Stats1.Min, comp.Stats2.Min)
	fmt.Fprintf(r.w, "| Max | %.4f | %.4f |\n", comp.Stats1.Max, comp.Stats2.Max)
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### Statistical Analysis")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Mann-Whitney U:** %.2f (z=%.2f, p=%.4f)\n",
		comp.MannWhitney.U, comp.MannWhitney.Z, comp.MannWhitney.PValue)
	fmt.Fprintf(r.w, "- **Effect size (Cohen's d):** %.2f (%s)\n",
		comp.EffectSize.CohensD, comp.EffectSize.Interpretation)
	fmt.Fprintf(r.w, "- **%.0f%% CI for mean difference:** [%.4f, %.4f]\n",
		comp.BootstrapCI.Confidence*100, comp.BootstrapCI.LowerBound, comp.BootstrapCI.UpperBound)
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### Conclusion")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, conclusion(comp))
	fmt.Fprintln(r.w)
}

// WriteFooter writes the report footer.
func (r *MarkdownReport) WriteFooter() {
	fmt.Fprintln(r.w, "---")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "*Report generated by cellar simulate*")
}

func conclusion(comp *analysis.PolicyComparison) string {
	if !comp.WinnerConfident {
		return "No statistically significant difference detected between policies (p >= 0.05)."
	}
	other := comp.Policy1.String()
	if comp.Winner == other {
		other = comp.Policy2.String()
	}
	return fmt.Sprintf("%s hits significantly more often than %s (p < 0.05, effect size: %s).",
		comp.Winner, other, comp.EffectSize.Interpretation)
}

func sortedPolicies(results map[cellar.Policy]*simulation.AggregateResult) []cellar.Policy {
	policies := make([]cellar.Policy, 0, len(results))
	for p := range results {
		policies = append(policies, p)
	}
	slices.Sort(policies)
	return policies
}
