// Package store holds cache entries in memory.
//
// A Store is not safe for concurrent use; the cache serializes access.
package store

import (
	"container/list"
	"math/rand/v2"
	"time"
)

// Entry is a cached value and its expiry time.
// A zero Expiry means the entry never expires.
type Entry[V any] struct {
	Value  V
	Expiry time.Time
}

// Expired reports whether the entry is expired at now.
func (e Entry[V]) Expired(now time.Time) bool {
	return !e.Expiry.IsZero() && !now.Before(e.Expiry)
}

type slot[K comparable, V any] struct {
	key   K
	entry Entry[V]
	elem  *list.Element // position in insertion order
	index int           // position in Store.dense
}

// Store maps keys to entries. Iteration follows first-insertion order;
// replacing an entry keeps its position.
type Store[K comparable, V any] struct {
	slots map[K]*slot[K, V]
	order *list.List
	dense []K
}

// New creates an empty store.
func New[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{
		slots: make(map[K]*slot[K, V]),
		order: list.New(),
	}
}

// Get returns the entry for key.
func (s *Store[K, V]) Get(key K) (Entry[V], bool) {
	sl, ok := s.slots[key]
	if !ok {
		return Entry[V]{}, false
	}
	return sl.entry, true
}

// Contains reports whether key is present, expired or not.
func (s *Store[K, V]) Contains(key K) bool {
	_, ok := s.slots[key]
	return ok
}

// Put inserts or replaces the entry for key. It returns the previous entry
// and true if key was already present.
func (s *Store[K, V]) Put(key K, e Entry[V]) (Entry[V], bool) {
	if sl, ok := s.slots[key]; ok {
		old := sl.entry
		sl.entry = e
		return old, true
	}

	sl := &slot[K, V]{
		key:   key,
		entry: e,
		index: len(s.dense),
	}
	sl.elem = s.order.PushBack(sl)
	s.slots[key] = sl
	s.dense = append(s.dense, key)
	return Entry[V]{}, false
}

// Delete removes key and returns its entry.
func (s *Store[K, V]) Delete(key K) (Entry[V], bool) {
	sl, ok := s.slots[key]
	if !ok {
		return Entry[V]{}, false
	}

	delete(s.slots, key)
	s.order.Remove(sl.elem)

	// Swap-remove from dense so sampling stays O(1).
	last := len(s.dense) - 1
	if sl.index != last {
		moved := s.dense[last]
		s.dense[sl.index] = moved
		s.slots[moved].index = sl.index
	}
	var zero K
	s.dense[last] = zero
	s.dense = s.dense[:last]

	return sl.entry, true
}

// Clear removes all entries.
func (s *Store[K, V]) Clear() {
	s.slots = make(map[K]*slot[K, V])
	s.order.Init()
	s.dense = nil
}

// Len returns the number of entries.
func (s *Store[K, V]) Len() int {
	return len(s.slots)
}

// Keys returns a snapshot of the keys in iteration order.
func (s *Store[K, V]) Keys() []K {
	keys := make([]K, 0, len(s.slots))
	for e := s.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*slot[K, V]).key)
	}
	return keys
}

// Values returns a snapshot of the values in iteration order.
func (s *Store[K, V]) Values() []V {
	values := make([]V, 0, len(s.slots))
	for e := s.order.Front(); e != nil; e = e.Next() {
		values = append(values, e.Value.(*slot[K, V]).entry.Value)
	}
	return values
}

// Sample returns a key chosen uniformly at random using r.
// It returns false if the store is empty.
func (s *Store[K, V]) Sample(r *rand.Rand) (K, bool) {
	if len(s.dense) == 0 {
		var zero K
		return zero, false
	}
	return s.dense[r.IntN(len(s.dense))], true
}
