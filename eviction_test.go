package cellar

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
)

func TestEviction_LRUEvictsFirstInserted(t *testing.T) {
	c, rec := newTestCache(t, WithMaxSize(3), WithEvictionPolicy(PolicyLRU))

	for _, k := range []string{"key1", "key2", "key3", "key4"} {
		mustSet(t, c, k, "value-"+k)
	}

	if _, err := c.Get("key1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(key1) error = %v, want ErrNotFound", err)
	}
	for _, k := range []string{"key2", "key3", "key4"} {
		if _, err := c.Get(k); err != nil {
			t.Errorf("Get(%s) error = %v, want nil", k, err)
		}
	}
	if got := rec.Count("evict key1=value-key1"); got != 1 {
		t.Errorf("evict notifications for key1 = %d, want 1", got)
	}
}

func TestEviction_LRURefreshOnRead(t *testing.T) {
	c, _ := newTestCache(t, WithMaxSize(3), WithEvictionPolicy(PolicyLRU))
	mustSet(t, c, "a", "1")
	mustSet(t, c, "b", "2")
	mustSet(t, c, "c", "3")

	// Reading a makes b the least recently used.
	if _, err := c.Get("a"); err != nil {
		t.Fatalf("Get(a) error = %v", err)
	}
	mustSet(t, c, "d", "4")

	if c.Has("b") {
		t.Error("b should have been evicted")
	}
	if !c.Has("a") {
		t.Error("a should survive after being read")
	}

	// a outlives c as well.
	mustSet(t, c, "e", "5")
	if c.Has("c") {
		t.Error("c should have been evicted")
	}
	if !c.Has("a") {
		t.Error("a should survive a second eviction")
	}
}

func TestEviction_LRURefreshOnUpdate(t *testing.T) {
	c, _ := newTestCache(t, WithMaxSize(2), WithEvictionPolicy(PolicyLRU))
	mustSet(t, c, "a", "1")
	mustSet(t, c, "b", "2")
	mustSet(t, c, "a", "1b")
	mustSet(t, c, "c", "3")

	if c.Has("b") {
		t.Error("b should have been evicted")
	}
	if !c.Has("a") {
		t.Error("a should survive after being written")
	}
}

func TestEviction_FIFOIgnoresReads(t *testing.T) {
	c, rec := newTestCache(t, WithMaxSize(3), WithEvictionPolicy(PolicyFIFO))
	mustSet(t, c, "a", "1")
	mustSet(t, c, "b", "2")
	mustSet(t, c, "c", "3")

	for range 3 {
		c.Get("a")
	}
	mustSet(t, c, "d", "4")

	if c.Has("a") {
		t.Error("a should be evicted first regardless of reads")
	}
	if got := rec.Count("access"); got != 0 {
		t.Errorf("access notifications under fifo = %d, want 0", got)
	}
}

func TestEviction_FIFOUpdateKeepsPosition(t *testing.T) {
	c, _ := newTestCache(t, WithMaxSize(2), WithEvictionPolicy(PolicyFIFO))
	mustSet(t, c, "a", "1")
	mustSet(t, c, "b", "2")
	mustSet(t, c, "a", "1b")
	mustSet(t, c, "c", "3")

	if c.Has("a") {
		t.Error("a should be evicted: updates do not count as insertion")
	}
	if !c.Has("b") || !c.Has("c") {
		t.Errorf("Keys() = %v, want [b c]", c.Keys())
	}
}

func TestEviction_Random(t *testing.T) {
	c, rec := newTestCache(t,
		WithMaxSize(4),
		WithEvictionPolicy(PolicyRandom),
		WithRand(rand.New(rand.NewPCG(42, 1024))),
	)

	for i := range 50 {
		mustSet(t, c, string(rune('A'+i)), "v")
		if got := c.Len(); got > 4 {
			t.Fatalf("Len() = %d after %d inserts, want <= 4", got, i+1)
		}
	}
	if got := rec.Count("evict"); got != 46 {
		t.Errorf("evictions = %d, want 46", got)
	}
	if c.tracker.Len() != 0 {
		t.Errorf("tracker has %d keys under random policy, want 0", c.tracker.Len())
	}
}

func TestEviction_RandomIsSpread(t *testing.T) {
	victims := make(map[string]int)
	for seed := range uint64(200) {
		c, err := New[string, string](
			WithMaxSize(3),
			WithEvictionPolicy(PolicyRandom),
			WithRand(rand.New(rand.NewPCG(seed, seed*31+7))),
		)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		c.Subscribe(&ListenerFuncs[string, string]{
			Evict: func(key, _ string) { victims[key]++ },
		})
		mustSet(t, c, "a", "1")
		mustSet(t, c, "b", "2")
		mustSet(t, c, "c", "3")
		mustSet(t, c, "d", "4")
	}

	for _, k := range []string{"a", "b", "c"} {
		if victims[k] == 0 {
			t.Errorf("key %q was never chosen in 200 runs: %v", k, victims)
		}
	}
	if victims["d"] != 0 {
		t.Errorf("new key d was evicted before insertion: %v", victims)
	}
}

func TestEviction_EmptyCache(t *testing.T) {
	tests := []struct {
		policy    Policy
		wantEmpty int
	}{
		{PolicyLRU, 1},
		{PolicyFIFO, 1},
		{PolicyRandom, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			c, rec := newTestCache(t, WithEvictionPolicy(tt.policy))

			c.Evict()

			if got := rec.Count("empty"); got != tt.wantEmpty {
				t.Errorf("empty notifications = %d, want %d", got, tt.wantEmpty)
			}
			if got := rec.Count("delete"); got != 0 {
				t.Errorf("delete notifications = %d, want 0", got)
			}
			if got := rec.Count("evictionError"); got != 0 {
				t.Errorf("eviction errors = %d, want 0", got)
			}
		})
	}
}

func TestEviction_ManualEvict(t *testing.T) {
	c, rec := newTestCache(t, WithEvictionPolicy(PolicyFIFO))
	mustSet(t, c, "a", "1")
	mustSet(t, c, "b", "2")
	rec.Reset()

	c.Evict()

	want := []string{"delete a=1", "evict a=1"}
	if got := rec.Events(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if got, want := c.Keys(), []string{"b"}; !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestEviction_NotificationOrderOnSet(t *testing.T) {
	c, rec := newTestCache(t, WithMaxSize(1), WithEvictionPolicy(PolicyLRU))
	mustSet(t, c, "a", "1")
	rec.Reset()

	mustSet(t, c, "b", "2")

	want := []string{"delete a=1", "evict a=1", "set b=2"}
	if got := rec.Events(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestEviction_UpdateNeverEvicts(t *testing.T) {
	c, rec := newTestCache(t, WithMaxSize(2))
	mustSet(t, c, "a", "1")
	mustSet(t, c, "b", "2")
	rec.Reset()

	mustSet(t, c, "a", "1b")

	if got := rec.Count("evict"); got != 0 {
		t.Errorf("evictions on update = %d, want 0", got)
	}
	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestEviction_UnknownPolicy(t *testing.T) {
	c, rec := newTestCache(t, WithMaxSize(2), WithEvictionPolicy(Policy("mru")))
	mustSet(t, c, "a", "1")
	mustSet(t, c, "b", "2")

	// The insert proceeds even though eviction fails.
	if _, err := c.Set("c", "3"); err != nil {
		t.Fatalf("Set() error = %v, want nil", err)
	}
	if got := c.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}

	c.Evict()

	if got := rec.Count("evictionError"); got != 2 {
		t.Fatalf("eviction errors = %d, want 2", got)
	}
	for _, err := range rec.errs {
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) || !errors.Is(err, ErrInvalidPolicy) {
			t.Errorf("eviction error = %v, want ConfigurationError wrapping ErrInvalidPolicy", err)
		}
	}
}

func TestEviction_UpdateAccessOrder(t *testing.T) {
	c, rec := newTestCache(t)
	mustSet(t, c, "a", "1")
	mustSet(t, c, "b", "2")
	mustSet(t, c, "c", "3")
	rec.Reset()

	c.Get("a")
	c.Get("missing")

	want := []string{"access [b c a]"}
	if got := rec.Events(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}
