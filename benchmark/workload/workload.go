// Package workload generates and stores key access traces for cache
// simulations.
package workload

import (
	"fmt"
	"math/rand/v2"
)

// Kind is the operation an Op performs.
type Kind uint8

const (
	// Get reads a key; simulations fill the cache on a miss.
	Get Kind = iota
	// Set writes a key unconditionally.
	Set
)

func (k Kind) String() string {
	switch k {
	case Get:
		return "get"
	case Set:
		return "set"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Op is one access in a trace.
type Op struct {
	Kind Kind
	Key  string
}

// Trace is an ordered sequence of accesses.
type Trace []Op

// Keys returns the number of distinct keys in t.
func (t Trace) Keys() int {
	seen := make(map[string]struct{})
	for _, op := range t {
		seen[op.Key] = struct{}{}
	}
	return len(seen)
}

// Key returns the canonical name of key number i.
func Key(i uint64) string {
	return fmt.Sprintf("key-%06d", i)
}

// Zipf returns n reads over keys distinct keys where key popularity follows
// a Zipf distribution with exponent s (> 1). Low-numbered keys are hottest.
func Zipf(r *rand.Rand, n, keys int, s float64) Trace {
	z := rand.NewZipf(r, s, 1, uint64(keys-1))
	t := make(Trace, n)
	for i := range t {
		t[i] = Op{Kind: Get, Key: Key(z.Uint64())}
	}
	return t
}

// Uniform returns n reads over keys equally popular keys.
func Uniform(r *rand.Rand, n, keys int) Trace {
	t := make(Trace, n)
	for i := range t {
		t[i] = Op{Kind: Get, Key: Key(r.Uint64N(uint64(keys)))}
	}
	return t
}

// Scan returns n reads cycling through keys in order. A scan larger than
// the cache defeats LRU and FIFO.
func Scan(n, keys int) Trace {
	t := make(Trace, n)
	for i := range t {
		t[i] = Op{Kind: Get, Key: Key(uint64(i % keys))}
	}
	return t
}

// Generator builds a trace from a random source.
type Generator func(r *rand.Rand) Trace

// ParseGenerator returns the generator named by kind: zipf, uniform or scan.
func ParseGenerator(kind string, n, keys int, s float64) (Generator, error) {
	if n <= 0 || keys <= 0 {
		return nil, fmt.Errorf("workload: ops and keys must be positive, got %d and %d", n, keys)
	}
	switch kind {
	case "zipf":
		if s <= 1 {
			return nil, fmt.Errorf("workload: zipf exponent must be > 1, got %v", s)
		}
		return func(r *rand.Rand) Trace { return Zipf(r, n, keys, s) }, nil
	case "uniform":
		return func(r *rand.Rand) Trace { return Uniform(r, n, keys) }, nil
	case "scan":
		return func(*rand.Rand) Trace { return Scan(n, keys) }, nil
	default:
		return nil, fmt.Errorf("workload: unknown generator %q", kind)
	}
}
