package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/cellar"
	"github.com/discochess/cellar/benchmark/analysis"
	"github.com/discochess/cellar/benchmark/reporting"
	"github.com/discochess/cellar/benchmark/simulation"
	"github.com/discochess/cellar/benchmark/workload"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Compare eviction policies on a workload",
	Long: `Replay access traces against one cache per eviction policy and
compare their hit ratios. Misses fill the cache, as a read-through cache
would.

Traces are generated per seed, or read from --trace and replayed once per
seed so that random eviction can be compared across runs.

Examples:
  cellar simulate --max-size 100 --keys 10000 --seeds 20
  cellar simulate --workload scan --policies lru,random
  cellar simulate --trace trace.zst --format markdown --output report.md`,
	RunE: runSimulate,
}

var (
	simWorkload  workloadFlags
	simTrace     string
	simMaxSize   int
	simPolicies  []string
	simSeeds     int
	simBaseline  string
	simFormat    string
	simOutput    string
	simBootstrap int
)

func init() {
	simWorkload.register(simulateCmd)
	simulateCmd.Flags().StringVarP(&simTrace, "trace", "t", "", "trace file to replay instead of generating one (supports .zst)")
	simulateCmd.Flags().IntVar(&simMaxSize, "max-size", 1000, "cache capacity in entries")
	simulateCmd.Flags().StringSliceVarP(&simPolicies, "policies", "p", []string{"lru", "fifo", "random"}, "policies to compare")
	simulateCmd.Flags().IntVar(&simSeeds, "seeds", 10, "number of runs per policy")
	simulateCmd.Flags().StringVar(&simBaseline, "baseline", "lru", "policy the others are compared against")
	simulateCmd.Flags().StringVarP(&simFormat, "format", "f", "text", "output format: text, markdown")
	simulateCmd.Flags().StringVarP(&simOutput, "output", "o", "", "output file (default: stdout)")
	simulateCmd.Flags().IntVar(&simBootstrap, "bootstrap", 10000, "bootstrap iterations for confidence intervals")

	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	if simSeeds <= 0 {
		return fmt.Errorf("--seeds must be positive, got %d", simSeeds)
	}

	policies := make([]cellar.Policy, 0, len(simPolicies))
	for _, name := range simPolicies {
		p, err := cellar.ParsePolicy(name)
		if err != nil {
			return err
		}
		policies = append(policies, p)
	}
	baseline, err := cellar.ParsePolicy(simBaseline)
	if err != nil {
		return err
	}

	traces, cfg, err := loadTraces(log)
	if err != nil {
		return err
	}

	log.Info("running simulation",
		zap.Int("traces", len(traces)),
		zap.Int("max_size", simMaxSize),
		zap.Strings("policies", simPolicies),
	)

	sim := simulation.NewSimulator(simMaxSize, policies...).WithLogger(log.Named("simulation"))
	results, err := sim.SimulateTraces(traces)
	if err != nil {
		return err
	}

	var output io.Writer = cmd.OutOrStdout()
	if simOutput != "" {
		f, err := os.Create(simOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	report, err := reporting.New(simFormat, output)
	if err != nil {
		return err
	}

	report.WriteHeader("Cellar Eviction Policy Simulation")
	report.WriteMethodology(cfg)
	report.WriteSummaryTable(results)
	if multi := analysis.CompareAll(results, baseline, simBootstrap, 0.95); multi != nil {
		for _, comp := range multi.Comparisons {
			report.WriteComparison(comp)
		}
	}
	report.WriteFooter()

	return nil
}

// loadTraces reads --trace or generates one trace per seed.
func loadTraces(log *zap.Logger) ([]workload.Trace, reporting.Config, error) {
	cfg := reporting.Config{
		Workload: simWorkload.kind,
		Ops:      simWorkload.ops,
		Keys:     simWorkload.keys,
		MaxSize:  simMaxSize,
		Seeds:    simSeeds,
	}

	if simTrace != "" {
		trace, err := workload.ReadFile(simTrace)
		if err != nil {
			return nil, cfg, err
		}
		if len(trace) == 0 {
			return nil, cfg, fmt.Errorf("no accesses found in %s", simTrace)
		}
		log.Debug("loaded trace", zap.String("path", simTrace), zap.Int("ops", len(trace)))

		cfg.Workload = simTrace
		cfg.Ops = len(trace)
		cfg.Keys = trace.Keys()

		traces := make([]workload.Trace, simSeeds)
		for i := range traces {
			traces[i] = trace
		}
		return traces, cfg, nil
	}

	gen, err := simWorkload.generator()
	if err != nil {
		return nil, cfg, err
	}

	traces := make([]workload.Trace, simSeeds)
	for i := range traces {
		seed := uint64(i)
		traces[i] = gen(rand.New(rand.NewPCG(seed, seed+1)))
	}
	return traces, cfg, nil
}
