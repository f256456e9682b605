// Package promcellarfx provides an fx module for a cellar cache that exports
// Prometheus metrics.
package promcellarfx

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/discochess/cellar/fx/cellarfx"
	"github.com/discochess/cellar/internal/stats"
	promstats "github.com/discochess/cellar/internal/stats/prometheus"
)

// Module provides a *cellar.Cache[K, V] whose metrics are registered with
// the provided prometheus.Registerer.
// Requires a cellarfx.Config, a *zap.Logger and a prometheus.Registerer.
func Module[K comparable, V any]() fx.Option {
	return fx.Module("promcellar",
		fx.Provide(
			newStatsCollector,
			cellarfx.NewCache[K, V],
		),
	)
}

func newStatsCollector(reg prometheus.Registerer) stats.Collector {
	return promstats.New(reg)
}
