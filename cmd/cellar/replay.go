package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/cellar"
	"github.com/discochess/cellar/internal/stats"
	"github.com/discochess/cellar/internal/stats/logger"
)

var replayCmd = &cobra.Command{
	Use:   "replay [script]",
	Short: "Run a command script against a cache",
	Long: `Run cache commands from a script file, or stdin when no file is given,
printing each result and the events the cache emits.

Commands, one per line ('#' starts a comment):
  set <key> <value> [ttl]   insert or update; ttl is a Go duration
  get <key>                 read a key
  del <key>                 delete a key
  has <key>                 membership, ignoring expiry
  clear                     remove everything
  evict                     run one eviction cycle
  keys | values             list contents in insertion order
  stats                     print counters
  advance <duration>        move the cache clock forward

The cache clock starts at the real time and only moves on advance, so TTL
scripts are deterministic.

Examples:
  cellar replay --max-size 2 --policy lru script.txt
  printf 'set a 1 10s\nadvance 10s\nget a\n' | cellar replay`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

var (
	replayMaxSize int
	replayTTL     time.Duration
	replayPolicy  = cellar.PolicyLRU
	replayQuiet   bool
)

func init() {
	replayCmd.Flags().IntVar(&replayMaxSize, "max-size", 0, "cache capacity in entries (0 = unbounded)")
	replayCmd.Flags().DurationVar(&replayTTL, "ttl", 0, "default time-to-live (0 = no expiry)")
	replayCmd.Flags().Var(&replayPolicy, "policy", "eviction policy: lru, fifo, random")
	replayCmd.Flags().BoolVarP(&replayQuiet, "quiet", "q", false, "do not print cache events")

	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		in = f
	}

	script, err := parseScript(in)
	if err != nil {
		return err
	}

	var collector stats.Collector = stats.NewNoop()
	if verbose {
		collector = logger.New(log.Named("stats"))
	}

	s, err := newSession(cmd.OutOrStdout(),
		cellar.WithMaxSize(replayMaxSize),
		cellar.WithTTL(replayTTL),
		cellar.WithEvictionPolicy(replayPolicy),
		cellar.WithLogger(log.Named("cellar")),
		cellar.WithStats(collector),
	)
	if err != nil {
		return err
	}

	log.Debug("replaying script", zap.Int("commands", len(script)))
	for _, c := range script {
		if err := s.run(c); err != nil {
			return fmt.Errorf("line %d: %w", c.line, err)
		}
	}
	return nil
}
