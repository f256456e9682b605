package cellar

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/discochess/cellar/internal/stats"
)

// Option configures a Cache.
type Option interface {
	apply(*options)
}

// options holds the cache configuration.
type options struct {
	maxSize   int
	ttl       time.Duration
	policy    Policy
	stats     stats.Collector
	logger    *zap.Logger
	clock     func() time.Time
	rand      *rand.Rand
	limiter   *rate.Limiter
	listeners []any
}

// defaultOptions returns the default configuration: unbounded, no expiry, LRU.
func defaultOptions() options {
	return options{
		policy: PolicyLRU,
		stats:  stats.NewNoop(),
		logger: zap.NewNop(),
		clock:  time.Now,
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithMaxSize bounds the number of entries.
// A size of zero or less means unbounded, which is the default.
func WithMaxSize(n int) Option {
	return optionFunc(func(o *options) {
		o.maxSize = max(n, 0)
	})
}

// WithTTL sets the default time-to-live applied by Set.
// Zero or negative disables expiry, which is the default.
func WithTTL(ttl time.Duration) Option {
	return optionFunc(func(o *options) {
		o.ttl = ttl
	})
}

// WithEvictionPolicy sets the eviction policy. The default is PolicyLRU and
// an empty policy keeps the default.
//
// The policy is not validated here: an unsupported policy makes every
// eviction fail with a ConfigurationError reported to listeners. Use
// ParsePolicy to validate user input.
func WithEvictionPolicy(p Policy) Option {
	return optionFunc(func(o *options) {
		if p != "" {
			o.policy = p
		}
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		if c != nil {
			o.stats = c
		}
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithClock sets the time source used for expiry. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		if now != nil {
			o.clock = now
		}
	})
}

// WithRand sets the random source used by PolicyRandom.
// The cache only uses r while holding its lock.
func WithRand(r *rand.Rand) Option {
	return optionFunc(func(o *options) {
		o.rand = r
	})
}

// WithLoadLimit bounds how often GetOrLoad calls its loader. Loads wait
// for the limiter; shared loads wait once.
func WithLoadLimit(l *rate.Limiter) Option {
	return optionFunc(func(o *options) {
		o.limiter = l
	})
}

// WithListener registers a listener at construction. New fails with a
// ConfigurationError if the listener's type parameters differ from the cache's.
func WithListener[K comparable, V any](l Listener[K, V]) Option {
	return optionFunc(func(o *options) {
		o.listeners = append(o.listeners, l)
	})
}
