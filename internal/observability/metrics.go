package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the balloon pipeline.
type Metrics struct {
	HourFetches      *prometheus.CounterVec // labels: outcome={success,failed}
	PointsAccepted   prometheus.Counter
	PointsRejected   prometheus.Counter
	FleetLoadSeconds prometheus.Histogram
	FleetQuality     prometheus.Gauge

	WindFieldLoads *prometheus.CounterVec // labels: source={live,modeled,simulated}

	PlaybackTicks prometheus.Counter
	CurrentHour   prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.HourFetches,
		m.PointsAccepted,
		m.PointsRejected,
		m.FleetLoadSeconds,
		m.FleetQuality,
		m.WindFieldLoads,
		m.PlaybackTicks,
		m.CurrentHour,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		HourFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stratosphere",
			Name:      "hour_fetch_total",
			Help:      "Hourly telemetry fetches by outcome.",
		}, []string{"outcome"}),
		PointsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stratosphere",
			Name:      "points_accepted_total",
			Help:      "Raw telemetry points that passed validation.",
		}),
		PointsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stratosphere",
			Name:      "points_rejected_total",
			Help:      "Raw telemetry points dropped by validation.",
		}),
		FleetLoadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stratosphere",
			Name:      "fleet_load_duration_seconds",
			Help:      "Duration of a complete 24-hour fleet load.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FleetQuality: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stratosphere",
			Name:      "fleet_quality_percent",
			Help:      "Quality metric of the most recent fleet load.",
		}),
		WindFieldLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stratosphere",
			Name:      "windfield_loads_total",
			Help:      "Wind field loads by data source.",
		}, []string{"source"}),
		PlaybackTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stratosphere",
			Name:      "playback_ticks_total",
			Help:      "Hours advanced by the playback timer.",
		}),
		CurrentHour: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stratosphere",
			Name:      "current_hour",
			Help:      "Hour slot currently selected by the time cursor.",
		}),
	}
}
