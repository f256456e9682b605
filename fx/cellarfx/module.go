// Package cellarfx provides an fx module for a cellar cache.
package cellarfx

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/cellar"
	"github.com/discochess/cellar/internal/stats"
	"github.com/discochess/cellar/internal/stats/logger"
)

// Config holds the cache configuration supplied by the application.
type Config struct {
	// MaxSize bounds the number of entries. Zero means unbounded.
	MaxSize int

	// TTL is the default time-to-live. Zero disables expiry.
	TTL time.Duration

	// Policy is the eviction policy name: lru, fifo or random.
	// Empty selects lru.
	Policy string
}

// Module provides a *cellar.Cache[K, V] whose metrics are logged.
// Requires a Config and a *zap.Logger to be provided.
func Module[K comparable, V any]() fx.Option {
	return fx.Module("cellar",
		fx.Provide(
			newStatsCollector,
			NewCache[K, V],
		),
	)
}

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("cellar.stats"))
}

// Params holds dependencies for creating the cache.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// NewCache builds a cache from p. The cache is cleared when the application
// stops. Other modules reuse it with their own stats.Collector.
func NewCache[K comparable, V any](p Params) (*cellar.Cache[K, V], error) {
	opts := []cellar.Option{
		cellar.WithMaxSize(p.Config.MaxSize),
		cellar.WithTTL(p.Config.TTL),
		cellar.WithStats(p.Collector),
		cellar.WithLogger(p.Logger.Named("cellar")),
	}
	if p.Config.Policy != "" {
		policy, err := cellar.ParsePolicy(p.Config.Policy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, cellar.WithEvictionPolicy(policy))
	}

	c, err := cellar.New[K, V](opts...)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			s := c.Stats()
			p.Logger.Info("cache stopped",
				zap.Int("size", s.Size),
				zap.Int64("hits", s.Hits),
				zap.Int64("misses", s.Misses),
				zap.Float64("hitRatio", s.HitRatio),
			)
			return c.Clear()
		},
	})

	return c, nil
}
