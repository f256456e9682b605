// Package tracker records key order for LRU and FIFO eviction.
package tracker

import (
	"math"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Tracker is an ordered set of keys. The front is the oldest key and is the
// next eviction victim; Push and Touch move keys to the back.
// A Tracker is not safe for concurrent use.
type Tracker[K comparable] struct {
	order *simplelru.LRU[K, struct{}]
}

// New creates an empty tracker.
func New[K comparable]() *Tracker[K] {
	// The cache enforces capacity itself, so the list must never drop keys.
	order, err := simplelru.NewLRU[K, struct{}](math.MaxInt, nil)
	if err != nil {
		panic(err) // unreachable: size is positive
	}
	return &Tracker[K]{order: order}
}

// Push appends key to the back if it is not tracked yet.
// A tracked key keeps its position.
func (t *Tracker[K]) Push(key K) {
	if t.order.Contains(key) {
		return
	}
	t.order.Add(key, struct{}{})
}

// Touch moves key to the back, appending it if it is not tracked yet.
func (t *Tracker[K]) Touch(key K) {
	t.order.Add(key, struct{}{})
}

// Remove drops key. It reports whether key was tracked.
func (t *Tracker[K]) Remove(key K) bool {
	return t.order.Remove(key)
}

// Front returns the oldest key without removing it.
func (t *Tracker[K]) Front() (K, bool) {
	key, _, ok := t.order.GetOldest()
	return key, ok
}

// Contains reports whether key is tracked.
func (t *Tracker[K]) Contains(key K) bool {
	return t.order.Contains(key)
}

// Keys returns the tracked keys, oldest first.
func (t *Tracker[K]) Keys() []K {
	return t.order.Keys()
}

// Len returns the number of tracked keys.
func (t *Tracker[K]) Len() int {
	return t.order.Len()
}

// Reset drops every key.
func (t *Tracker[K]) Reset() {
	t.order.Purge()
}
