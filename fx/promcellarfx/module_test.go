package promcellarfx

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/discochess/cellar"
	"github.com/discochess/cellar/fx/cellarfx"
	"github.com/discochess/cellar/internal/stats"
)

func TestModule_ExportsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	var c *cellar.Cache[string, string]
	app := fxtest.New(t,
		fx.Supply(cellarfx.Config{MaxSize: 1}),
		fx.Supply(zap.NewNop()),
		fx.Provide(func() prometheus.Registerer { return reg }),
		Module[string, string](),
		fx.Populate(&c),
	)
	app.RequireStart()
	defer app.RequireStop()

	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("b")
	c.Get("a")

	want := map[string]float64{
		stats.MetricSets:      2,
		stats.MetricEvictions: 1,
		stats.MetricHits:      1,
		stats.MetricMisses:    1,
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	got := make(map[string]float64)
	for _, f := range families {
		if counter := f.GetMetric()[0].GetCounter(); counter != nil {
			got[f.GetName()] = counter.GetValue()
		}
	}
	for name, value := range want {
		if got[name] != value {
			t.Errorf("%s = %v, want %v", name, got[name], value)
		}
	}
}
