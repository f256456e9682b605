package reporting

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/discochess/cellar"
	"github.com/discochess/cellar/benchmark/analysis"
	"github.com/discochess/cellar/benchmark/simulation"
)

// TextReport writes plain aligned tables for terminals.
type TextReport struct {
	w io.Writer
}

// NewTextReport creates a new plain text report writer.
func NewTextReport(w io.Writer) *TextReport {
	return &TextReport{w: w}
}

// WriteHeader writes the report title underlined.
func (r *TextReport) WriteHeader(title string) {
	fmt.Fprintln(r.w, title)
	fmt.Fprintln(r.w, strings.Repeat("=", len(title)))
	fmt.Fprintln(r.w)
}

// WriteMethodology writes the simulation parameters.
func (r *TextReport) WriteMethodology(cfg Config) {
	fmt.Fprintf(r.w, "Workload:   %s (%d ops, %d keys)\n", cfg.Workload, cfg.Ops, cfg.Keys)
	fmt.Fprintf(r.w, "Cache size: %d\n", cfg.MaxSize)
	fmt.Fprintf(r.w, "Runs:       %d\n", cfg.Seeds)
	fmt.Fprintln(r.w)
}

// WriteSummaryTable writes one row per policy.
func (r *TextReport) WriteSummaryTable(results map[cellar.Policy]*simulation.AggregateResult) {
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "POLICY\tHIT RATIO\tMEDIAN\tP10\tP90\tEVICTIONS\t")
	for _, policy := range sortedPolicies(results) {
		m := simulation.ComputeMetrics(results[policy])
		fmt.Fprintf(tw, "%s\t%.2f%%\t%.2f%%\t%.2f%%\t%.2f%%\t%d\t\n",
			policy, m.HitRatio*100, m.MedianHitRatio*100,
			m.P10HitRatio*100, m.P90HitRatio*100, m.Evictions)
	}
	tw.Flush()
	fmt.Fprintln(r.w)
}

// WriteComparison writes the comparison summary and its conclusion.
func (r *TextReport) WriteComparison(comp *analysis.PolicyComparison) {
	fmt.Fprintln(r.w, comp.Summary())
	fmt.Fprintln(r.w, "  "+conclusion(comp))
	fmt.Fprintln(r.w)
}

// WriteFooter is a no-op for text reports.
func (r *TextReport) WriteFooter() {}
