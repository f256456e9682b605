package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags.
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cellar",
	Short: "In-process cache with LRU, FIFO and random eviction",
	Long: `cellar drives the cellar cache from the command line.

It replays command scripts against a cache, generates access traces and
simulates eviction policies against them.

Examples:
  # Compare all policies on a Zipf workload
  cellar simulate --max-size 100 --keys 10000

  # Write a compressed trace and simulate it
  cellar trace --output trace.zst --workload zipf
  cellar simulate --trace trace.zst --format markdown

  # Run a command script
  echo "set a 1
  get a
  stats" | cellar replay --policy fifo`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// newLogger returns a development logger under --verbose and a no-op
// logger otherwise.
func newLogger() (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}
