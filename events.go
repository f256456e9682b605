package cellar

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Listener observes cache lifecycle events.
//
// Notifications are delivered synchronously, after the change they describe
// is visible to other callers and before the triggering call returns.
// Listeners may call back into the cache.
type Listener[K comparable, V any] interface {
	// OnSet is called after a new key is inserted.
	OnSet(key K, value V)
	// OnUpdate is called after an existing key is overwritten.
	OnUpdate(key K, value V)
	// OnDelete is called after an entry is removed by Delete, expiry or
	// eviction. value is the removed value.
	OnDelete(key K, value V)
	// OnEvict is called after OnDelete when the removal freed capacity.
	OnEvict(key K, value V)
	// OnClear is called once per Clear.
	OnClear()
	// OnEvictionError is called when an eviction cycle fails.
	OnEvictionError(err error)
	// OnCacheEmptyForEviction is called when an LRU or FIFO eviction finds
	// nothing to evict.
	OnCacheEmptyForEviction()
	// OnUpdateAccess is called after a read refreshes a key under LRU.
	// order lists the tracked keys, next victim first.
	OnUpdateAccess(order []K)
	// OnError is called when an operation fails unexpectedly.
	OnError(key K, value V, err error)
}

// NopListener ignores every event. Embed it to implement only some methods.
type NopListener[K comparable, V any] struct{}

var _ Listener[string, any] = NopListener[string, any]{}

func (NopListener[K, V]) OnSet(K, V)               {}
func (NopListener[K, V]) OnUpdate(K, V)            {}
func (NopListener[K, V]) OnDelete(K, V)            {}
func (NopListener[K, V]) OnEvict(K, V)             {}
func (NopListener[K, V]) OnClear()                 {}
func (NopListener[K, V]) OnEvictionError(error)    {}
func (NopListener[K, V]) OnCacheEmptyForEviction() {}
func (NopListener[K, V]) OnUpdateAccess([]K)       {}
func (NopListener[K, V]) OnError(K, V, error)      {}

// ListenerFuncs adapts a set of optional functions to a Listener.
// Nil fields are skipped.
type ListenerFuncs[K comparable, V any] struct {
	Set                   func(key K, value V)
	Update                func(key K, value V)
	Delete                func(key K, value V)
	Evict                 func(key K, value V)
	Clear                 func()
	EvictionError         func(err error)
	CacheEmptyForEviction func()
	UpdateAccess          func(order []K)
	Error                 func(key K, value V, err error)
}

var _ Listener[string, any] = (*ListenerFuncs[string, any])(nil)

func (f *ListenerFuncs[K, V]) OnSet(key K, value V) {
	if f.Set != nil {
		f.Set(key, value)
	}
}

func (f *ListenerFuncs[K, V]) OnUpdate(key K, value V) {
	if f.Update != nil {
		f.Update(key, value)
	}
}

func (f *ListenerFuncs[K, V]) OnDelete(key K, value V) {
	if f.Delete != nil {
		f.Delete(key, value)
	}
}

func (f *ListenerFuncs[K, V]) OnEvict(key K, value V) {
	if f.Evict != nil {
		f.Evict(key, value)
	}
}

func (f *ListenerFuncs[K, V]) OnClear() {
	if f.Clear != nil {
		f.Clear()
	}
}

func (f *ListenerFuncs[K, V]) OnEvictionError(err error) {
	if f.EvictionError != nil {
		f.EvictionError(err)
	}
}

func (f *ListenerFuncs[K, V]) OnCacheEmptyForEviction() {
	if f.CacheEmptyForEviction != nil {
		f.CacheEmptyForEviction()
	}
}

func (f *ListenerFuncs[K, V]) OnUpdateAccess(order []K) {
	if f.UpdateAccess != nil {
		f.UpdateAccess(order)
	}
}

func (f *ListenerFuncs[K, V]) OnError(key K, value V, err error) {
	if f.Error != nil {
		f.Error(key, value, err)
	}
}

// notices collects events raised while the cache lock is held.
type notices[K comparable, V any] []func(Listener[K, V])

func (n *notices[K, V]) add(f func(Listener[K, V])) {
	*n = append(*n, f)
}

type subscription[K comparable, V any] struct {
	id       uint64
	listener Listener[K, V]
}

// registry holds listeners. The subscription slice is copy-on-write so
// dispatch can iterate a snapshot without holding the lock.
type registry[K comparable, V any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription[K, V]
	count  atomic.Int32
}

func (r *registry[K, V]) add(l Listener[K, V]) (remove func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.subs = append(slices.Clip(r.subs), subscription[K, V]{id: id, listener: l})
	r.count.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *registry[K, V]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.subs, func(s subscription[K, V]) bool { return s.id == id })
	if i < 0 {
		return
	}
	r.subs = slices.Delete(slices.Clone(r.subs), i, i+1)
	r.count.Add(-1)
}

func (r *registry[K, V]) snapshot() []subscription[K, V] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subs
}

// active reports whether any listener is registered.
func (r *registry[K, V]) active() bool {
	return r.count.Load() > 0
}

// dispatch delivers each notice to every listener, in registration order.
func (r *registry[K, V]) dispatch(n notices[K, V]) {
	if len(n) == 0 {
		return
	}
	subs := r.snapshot()
	for _, notify := range n {
		for _, s := range subs {
			notify(s.listener)
		}
	}
}
