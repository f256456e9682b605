package cellar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/cellar/internal/stats"
)

// Loader produces the value for a key that is not cached.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// GetOrLoad returns the cached value for key, calling load on a miss and
// storing its result with the default TTL.
//
// Concurrent callers missing on the same key share a single load. The load
// runs detached from the cancellation of the caller that started it; each
// caller stops waiting when its own ctx is done. Load errors are returned
// and never cached.
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, key K, load Loader[K, V]) (V, error) {
	var zero V
	if load == nil {
		return zero, ErrNilLoader
	}

	value, err := c.Get(key)
	if !errors.Is(err, ErrNotFound) {
		return value, err
	}

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.loads.DoChan(flightKey(key), func() (any, error) {
		// An earlier flight may have filled the key after our miss.
		if v, ok := c.peek(key); ok {
			return Item[K, V]{Key: key, Value: v}, nil
		}
		v, err := c.load(loadCtx, key, load)
		return Item[K, V]{Key: key, Value: v}, err
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		item, _ := res.Val.(Item[K, V])
		if item.Key != key {
			// Distinct keys with the same flight key; load our own.
			return c.load(ctx, key, load)
		}
		if res.Err != nil {
			return zero, res.Err
		}
		return item.Value, nil
	}
}

// flightKey names the load of key. Distinct keys may share a name, so
// callers check the key of the shared result.
func flightKey[K comparable](key K) string {
	return fmt.Sprintf("%T:%#v", key, key)
}

func (c *Cache[K, V]) load(ctx context.Context, key K, load Loader[K, V]) (V, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			var zero V
			return zero, fmt.Errorf("waiting to load key %v: %w", key, err)
		}
	}

	c.stats.IncCounter(stats.MetricLoads, 1)

	start := time.Now()
	value, err := load(ctx, key)
	c.stats.ObserveHistogram(stats.MetricLoadDuration, time.Since(start).Seconds())

	if err != nil {
		c.stats.IncCounter(stats.MetricLoadErrors, 1)
		c.logger.Debug("load failed", zap.Any("key", key), zap.Error(err))
		return value, fmt.Errorf("loading key %v: %w", key, err)
	}

	if _, err := c.Set(key, value); err != nil {
		return value, err
	}
	return value, nil
}

// peek returns the live value for key without touching counters or order.
func (c *Cache[K, V]) peek(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.store.Get(key)
	if !ok || e.Expired(c.clock()) {
		var zero V
		return zero, false
	}
	return e.Value, true
}
