package match

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Active   prometheus.Gauge
	Finished *prometheus.CounterVec
	Ticks    prometheus.Counter
}

// NewMetrics registers the match collectors on reg; nil means the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Active: f.NewGauge(prometheus.GaugeOpts{
			Name: "clock_matches_active",
			Help: "Matches currently held by the registry.",
		}),
		Finished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clock_matches_finished_total",
			Help: "Finished matches by reason.",
		}, []string{"reason"}),
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "clock_ticks_total",
			Help: "Timer updates pushed by the tick loop.",
		}),
	}
}
