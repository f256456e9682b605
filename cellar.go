// Package cellar provides an in-process key-value cache with bounded
// capacity, a choice of eviction policy, optional per-entry expiry and
// lifecycle events.
//
// Example usage:
//
//	c, err := cellar.New[string, *User](
//	    cellar.WithMaxSize(10_000),
//	    cellar.WithTTL(5*time.Minute),
//	    cellar.WithEvictionPolicy(cellar.PolicyLRU),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	u, err := c.GetOrLoad(ctx, "alice", loadUser)
//
// Expiry is lazy: an expired entry stays in the cache, and counts toward
// its size, until a Get, Delete, Clear or eviction touches it.
package cellar

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/discochess/cellar/internal/stats"
	"github.com/discochess/cellar/internal/store"
	"github.com/discochess/cellar/internal/tracker"
)

// Operation names used in OperationError.
const (
	opGet    = "get"
	opSet    = "set"
	opDelete = "delete"
	opClear  = "clear"
	opEvict  = "evict"
)

// Item is a key and the value stored under it.
type Item[K comparable, V any] struct {
	Key   K
	Value V
}

// Cache is a bounded in-memory key-value cache.
// A Cache is safe for concurrent use by multiple goroutines.
type Cache[K comparable, V any] struct {
	maxSize int
	ttl     time.Duration
	policy  Policy

	stats  stats.Collector
	logger *zap.Logger
	clock  func() time.Time

	mu      sync.RWMutex
	store   *store.Store[K, V]
	tracker *tracker.Tracker[K]
	rand    *rand.Rand
	hits    int64
	misses  int64

	events  registry[K, V]
	loads   singleflight.Group
	limiter *rate.Limiter
}

// New creates a new Cache with the given options.
// Without options the cache is unbounded, entries never expire and the
// eviction policy is LRU.
func New[K comparable, V any](opts ...Option) (*Cache[K, V], error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	c := &Cache[K, V]{
		maxSize: cfg.maxSize,
		ttl:     cfg.ttl,
		policy:  cfg.policy,
		stats:   cfg.stats,
		logger:  cfg.logger,
		clock:   cfg.clock,
		store:   store.New[K, V](),
		tracker: tracker.New[K](),
		rand:    cfg.rand,
		limiter: cfg.limiter,
	}
	if c.rand == nil {
		c.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	for _, raw := range cfg.listeners {
		l, ok := raw.(Listener[K, V])
		if !ok {
			return nil, &ConfigurationError{Option: "listener", Value: fmt.Sprintf("%T", raw), Err: ErrListenerType}
		}
		c.events.add(l)
	}

	if !c.policy.Valid() {
		c.logger.Warn("unsupported eviction policy; evictions will fail",
			zap.Stringer("policy", c.policy),
		)
	}

	c.logger.Debug("cache initialized",
		zap.Int("maxSize", c.maxSize),
		zap.Duration("ttl", c.ttl),
		zap.Stringer("policy", c.policy),
	)

	return c, nil
}

// Get returns the value stored under key.
// Returns ErrNotFound if the key is absent or its entry has expired; an
// expired entry is removed as if by Delete. Under PolicyLRU a successful
// read makes key the most recently used.
func (c *Cache[K, V]) Get(key K) (V, error) {
	c.mu.Lock()
	value, n, err := c.getLocked(key)
	c.mu.Unlock()

	c.events.dispatch(n)
	return value, err
}

// Set stores value under key with the cache's default TTL.
func (c *Cache[K, V]) Set(key K, value V) (Item[K, V], error) {
	return c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key. The entry expires after ttl; zero or
// negative means it never expires.
//
// Inserting a new key into a full cache first evicts one entry. Eviction
// failures are reported to listeners and do not fail the insert.
func (c *Cache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) (Item[K, V], error) {
	c.mu.Lock()
	n, err := c.setLocked(key, value, ttl)
	c.mu.Unlock()

	c.events.dispatch(n)
	if err != nil {
		return Item[K, V]{}, err
	}
	return Item[K, V]{Key: key, Value: value}, nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (c *Cache[K, V]) Delete(key K) error {
	c.mu.Lock()
	n, err := c.deleteLocked(key)
	c.mu.Unlock()

	c.events.dispatch(n)
	return err
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() error {
	c.mu.Lock()
	n, err := c.clearLocked()
	c.mu.Unlock()

	c.events.dispatch(n)
	return err
}

// Evict runs one eviction cycle, removing at most one entry.
func (c *Cache[K, V]) Evict() {
	c.mu.Lock()
	var n notices[K, V]
	c.evictLocked(&n)
	c.mu.Unlock()

	c.events.dispatch(n)
}

// Has reports whether key is present. Unlike Get it ignores expiry and
// does not affect eviction order.
func (c *Cache[K, V]) Has(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Contains(key)
}

// Keys returns the keys in insertion order.
func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Keys()
}

// Values returns the values in key insertion order.
func (c *Cache[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Values()
}

// Len returns the number of entries, including expired ones not yet removed.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Len()
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Size:           c.store.Len(),
		MaxSize:        c.maxSize,
		EvictionPolicy: c.policy,
		Hits:           c.hits,
		Misses:         c.misses,
		HitRatio:       hitRatio(c.hits, c.misses),
	}
}

// Policy returns the eviction policy.
func (c *Cache[K, V]) Policy() Policy {
	return c.policy
}

// Subscribe registers l for lifecycle events and returns a function that
// unregisters it.
func (c *Cache[K, V]) Subscribe(l Listener[K, V]) (unsubscribe func()) {
	return c.events.add(l)
}

func (c *Cache[K, V]) getLocked(key K) (value V, n notices[K, V], err error) {
	defer c.recoverOp(opGet, key, value, &n, &err)

	e, ok := c.store.Get(key)
	if !ok {
		c.recordMiss()
		return value, n, ErrNotFound
	}

	if e.Expired(c.clock()) {
		c.removeLocked(key, &n)
		c.stats.IncCounter(stats.MetricExpirations, 1)
		c.logger.Debug("entry expired", zap.Any("key", key), zap.Time("expiry", e.Expiry))
		c.recordMiss()
		return value, n, ErrNotFound
	}

	c.hits++
	c.stats.IncCounter(stats.MetricHits, 1)

	if c.policy == PolicyLRU {
		c.tracker.Touch(key)
		if c.events.active() {
			order := c.tracker.Keys()
			n.add(func(l Listener[K, V]) { l.OnUpdateAccess(order) })
		}
	}
	return e.Value, n, nil
}

func (c *Cache[K, V]) setLocked(key K, value V, ttl time.Duration) (n notices[K, V], err error) {
	defer c.recoverOp(opSet, key, value, &n, &err)

	exists := c.store.Contains(key)
	if !exists && c.maxSize > 0 && c.store.Len() >= c.maxSize {
		c.evictLocked(&n)
	}

	var expiry time.Time
	if ttl > 0 {
		expiry = c.clock().Add(ttl)
	}
	c.store.Put(key, store.Entry[V]{Value: value, Expiry: expiry})

	switch {
	case c.policy == PolicyLRU:
		c.tracker.Touch(key)
	case c.policy.tracked():
		c.tracker.Push(key)
	}

	if exists {
		c.stats.IncCounter(stats.MetricUpdates, 1)
		n.add(func(l Listener[K, V]) { l.OnUpdate(key, value) })
	} else {
		c.stats.IncCounter(stats.MetricSets, 1)
		n.add(func(l Listener[K, V]) { l.OnSet(key, value) })
	}
	c.stats.SetGauge(stats.MetricSize, int64(c.store.Len()))
	return n, nil
}

func (c *Cache[K, V]) deleteLocked(key K) (n notices[K, V], err error) {
	var zero V
	defer c.recoverOp(opDelete, key, zero, &n, &err)

	c.removeLocked(key, &n)
	return n, nil
}

func (c *Cache[K, V]) clearLocked() (n notices[K, V], err error) {
	var (
		key   K
		value V
	)
	defer c.recoverOp(opClear, key, value, &n, &err)

	count := c.store.Len()
	c.store.Clear()
	c.tracker.Reset()
	c.stats.SetGauge(stats.MetricSize, 0)
	c.logger.Debug("cache cleared", zap.Int("removed", count))

	n.add(func(l Listener[K, V]) { l.OnClear() })
	return n, nil
}

// removeLocked deletes key from the store and the tracker and queues the
// delete notification. It is the single removal path for Delete, expiry and
// eviction.
func (c *Cache[K, V]) removeLocked(key K, n *notices[K, V]) (store.Entry[V], bool) {
	c.tracker.Remove(key)
	e, ok := c.store.Delete(key)
	if !ok {
		return e, false
	}

	c.stats.IncCounter(stats.MetricDeletes, 1)
	c.stats.SetGauge(stats.MetricSize, int64(c.store.Len()))
	n.add(func(l Listener[K, V]) { l.OnDelete(key, e.Value) })
	return e, true
}

// evictLocked removes one entry chosen by the eviction policy. Failures are
// queued as eviction errors and never returned.
func (c *Cache[K, V]) evictLocked(n *notices[K, V]) {
	defer func() {
		if r := recover(); r != nil {
			err := &OperationError{Op: opEvict, Err: panicError(r)}
			c.evictionFailed(err, n)
		}
	}()

	var victim K
	switch c.policy {
	case PolicyLRU, PolicyFIFO:
		key, ok := c.tracker.Front()
		if !ok {
			c.logger.Debug("cache empty for eviction", zap.Stringer("policy", c.policy))
			n.add(func(l Listener[K, V]) { l.OnCacheEmptyForEviction() })
			return
		}
		victim = key
	case PolicyRandom:
		key, ok := c.store.Sample(c.rand)
		if !ok {
			return
		}
		victim = key
	default:
		c.evictionFailed(&ConfigurationError{
			Option: "eviction policy",
			Value:  string(c.policy),
			Err:    ErrInvalidPolicy,
		}, n)
		return
	}

	e, ok := c.removeLocked(victim, n)
	if !ok {
		return
	}
	c.stats.IncCounter(stats.MetricEvictions, 1)
	c.logger.Debug("entry evicted", zap.Any("key", victim), zap.Stringer("policy", c.policy))
	n.add(func(l Listener[K, V]) { l.OnEvict(victim, e.Value) })
}

func (c *Cache[K, V]) evictionFailed(err error, n *notices[K, V]) {
	c.stats.IncCounter(stats.MetricEvictionErrors, 1)
	c.logger.Warn("eviction failed", zap.Error(err))
	n.add(func(l Listener[K, V]) { l.OnEvictionError(err) })
}

// recoverOp turns a panic inside a locked operation into an OperationError,
// stored in *errp and queued for listeners. It must be deferred directly.
func (c *Cache[K, V]) recoverOp(op string, key K, value V, n *notices[K, V], errp *error) {
	r := recover()
	if r == nil {
		return
	}

	err := &OperationError{Op: op, Key: key, Value: value, Err: panicError(r)}
	c.stats.IncCounter(stats.MetricOperationErrors, 1)
	c.logger.Error("cache operation failed", zap.String("op", op), zap.Error(err.Err))
	n.add(func(l Listener[K, V]) { l.OnError(key, value, err) })
	*errp = err
}

func (c *Cache[K, V]) recordMiss() {
	c.misses++
	c.stats.IncCounter(stats.MetricMisses, 1)
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
