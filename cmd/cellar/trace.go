package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/cellar/benchmark/workload"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Generate an access trace file",
	Long: `Generate a synthetic access trace and write it to a file, one
"get <key>" line per access. Files ending in .zst are zstd compressed.

Examples:
  cellar trace --output zipf.zst --workload zipf --ops 1000000 --keys 50000
  cellar trace --output scan.txt --workload scan --ops 1000 --keys 100`,
	RunE: runTrace,
}

// workloadFlags are shared by trace and simulate.
type workloadFlags struct {
	kind  string
	ops   int
	keys  int
	zipfS float64
}

func (f *workloadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.kind, "workload", "w", "zipf", "workload: zipf, uniform, scan")
	cmd.Flags().IntVar(&f.ops, "ops", 100000, "number of accesses per trace")
	cmd.Flags().IntVar(&f.keys, "keys", 10000, "number of distinct keys")
	cmd.Flags().Float64Var(&f.zipfS, "zipf-s", 1.1, "zipf exponent (> 1)")
}

func (f *workloadFlags) generator() (workload.Generator, error) {
	return workload.ParseGenerator(f.kind, f.ops, f.keys, f.zipfS)
}

var (
	traceWorkload workloadFlags
	traceOutput   string
	traceSeed     uint64
)

func init() {
	traceWorkload.register(traceCmd)
	traceCmd.Flags().StringVarP(&traceOutput, "output", "o", "", "output trace file (.zst for zstd)")
	traceCmd.Flags().Uint64Var(&traceSeed, "seed", 1, "random seed")
	traceCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(traceCmd)
}

func runTrace(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	gen, err := traceWorkload.generator()
	if err != nil {
		return err
	}

	trace := gen(rand.New(rand.NewPCG(traceSeed, traceSeed)))
	if err := workload.WriteFile(traceOutput, trace); err != nil {
		return err
	}

	log.Info("wrote trace",
		zap.String("path", traceOutput),
		zap.String("workload", traceWorkload.kind),
		zap.Int("ops", len(trace)),
		zap.Int("keys", trace.Keys()),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d ops over %d keys to %s\n", len(trace), trace.Keys(), traceOutput)
	return nil
}
