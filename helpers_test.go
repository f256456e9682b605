package cellar

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recorder records events as short strings.
type recorder struct {
	mu     sync.Mutex
	events []string
	errs   []error
}

var _ Listener[string, string] = (*recorder)(nil)

func (r *recorder) record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) OnSet(key, value string)    { r.record("set %s=%s", key, value) }
func (r *recorder) OnUpdate(key, value string) { r.record("update %s=%s", key, value) }
func (r *recorder) OnDelete(key, value string) { r.record("delete %s=%s", key, value) }
func (r *recorder) OnEvict(key, value string)  { r.record("evict %s=%s", key, value) }
func (r *recorder) OnClear()                   { r.record("clear") }
func (r *recorder) OnCacheEmptyForEviction()   { r.record("empty") }

func (r *recorder) OnEvictionError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.record("evictionError")
}

func (r *recorder) OnUpdateAccess(order []string) {
	r.record("access [%s]", strings.Join(order, " "))
}

func (r *recorder) OnError(key, value string, err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.record("error %s", key)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) Count(prefix string) int {
	n := 0
	for _, e := range r.Events() {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

func (r *recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.errs = nil
}

// newTestCache creates a string cache with a recorder subscribed.
func newTestCache(t *testing.T, opts ...Option) (*Cache[string, string], *recorder) {
	t.Helper()
	c, err := New[string, string](opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rec := &recorder{}
	c.Subscribe(rec)
	return c, rec
}

func mustSet(t *testing.T, c *Cache[string, string], key, value string) {
	t.Helper()
	if _, err := c.Set(key, value); err != nil {
		t.Fatalf("Set(%q) error = %v", key, err)
	}
}
