// Package simulation replays access traces against caches to compare
// eviction policies.
package simulation

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/discochess/cellar"
	"github.com/discochess/cellar/benchmark/workload"
)

// Simulator replays traces against one cache per eviction policy.
type Simulator struct {
	maxSize  int
	policies []cellar.Policy
	logger   *zap.Logger
}

// NewSimulator creates a new Simulator for caches holding at most maxSize
// entries.
func NewSimulator(maxSize int, policies ...cellar.Policy) *Simulator {
	return &Simulator{
		maxSize:  maxSize,
		policies: policies,
		logger:   zap.NewNop(),
	}
}

// WithLogger sets the logger used for per-run debug output.
func (s *Simulator) WithLogger(logger *zap.Logger) *Simulator {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Policies returns the policies under simulation.
func (s *Simulator) Policies() []cellar.Policy {
	return s.policies
}

// Replay runs trace against a fresh cache using policy. Reads that miss
// fill the cache, so the hit ratio is that of a read-through cache. The
// seed drives random eviction.
func (s *Simulator) Replay(trace workload.Trace, policy cellar.Policy, seed uint64) (*Result, error) {
	var evictions int64
	c, err := cellar.New[string, struct{}](
		cellar.WithMaxSize(s.maxSize),
		cellar.WithEvictionPolicy(policy),
		cellar.WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))),
		cellar.WithListener[string, struct{}](&cellar.ListenerFuncs[string, struct{}]{
			Evict: func(string, struct{}) { evictions++ },
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	for i, op := range trace {
		switch op.Kind {
		case workload.Get:
			_, err := c.Get(op.Key)
			if err == nil {
				continue
			}
			if !errors.Is(err, cellar.ErrNotFound) {
				return nil, fmt.Errorf("op %d: %w", i, err)
			}
			fallthrough
		case workload.Set:
			if _, err := c.Set(op.Key, struct{}{}); err != nil {
				return nil, fmt.Errorf("op %d: %w", i, err)
			}
		}
	}

	st := c.Stats()
	result := &Result{
		Policy:    policy,
		Seed:      seed,
		Ops:       len(trace),
		Hits:      st.Hits,
		Misses:    st.Misses,
		Evictions: evictions,
		HitRatio:  st.HitRatio,
	}

	s.logger.Debug("replayed trace",
		zap.Stringer("policy", policy),
		zap.Uint64("seed", seed),
		zap.Int("ops", result.Ops),
		zap.Float64("hit_ratio", result.HitRatio),
	)

	return result, nil
}

// SimulateTrace replays trace once per policy and returns results keyed by
// policy.
func (s *Simulator) SimulateTrace(trace workload.Trace, seed uint64) (map[cellar.Policy]*Result, error) {
	results := make(map[cellar.Policy]*Result, len(s.policies))

	for _, policy := range s.policies {
		result, err := s.Replay(trace, policy, seed)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", policy, err)
		}
		results[policy] = result
	}

	return results, nil
}

// SimulateTraces replays every trace against every policy and aggregates
// the results. Trace i is replayed with seed i.
func (s *Simulator) SimulateTraces(traces []workload.Trace) (map[cellar.Policy]*AggregateResult, error) {
	results := make(map[cellar.Policy]*AggregateResult, len(s.policies))

	for _, policy := range s.policies {
		results[policy] = &AggregateResult{
			Policy:    policy,
			HitRatios: make([]float64, 0, len(traces)),
		}
	}

	for i, trace := range traces {
		runs, err := s.SimulateTrace(trace, uint64(i))
		if err != nil {
			return nil, fmt.Errorf("trace %d: %w", i, err)
		}
		for policy, r := range runs {
			results[policy].add(r)
		}
	}

	return results, nil
}

// Result is the outcome of replaying one trace against one policy.
type Result struct {
	Policy    cellar.Policy
	Seed      uint64
	Ops       int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRatio  float64
}

// AggregateResult contains results for one policy across several traces.
type AggregateResult struct {
	Policy    cellar.Policy
	Runs      int
	TotalOps  int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRatios []float64 // Hit ratio of each run, for statistical analysis.
}

func (a *AggregateResult) add(r *Result) {
	a.Runs++
	a.TotalOps += r.Ops
	a.Hits += r.Hits
	a.Misses += r.Misses
	a.Evictions += r.Evictions
	a.HitRatios = append(a.HitRatios, r.HitRatio)
}

// HitRatio returns the hit ratio over all runs combined.
func (a *AggregateResult) HitRatio() float64 {
	total := a.Hits + a.Misses
	if total == 0 {
		return 0
	}
	return float64(a.Hits) / float64(total)
}
