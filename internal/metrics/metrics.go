package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the Prometheus collectors for one service instance.
// A fresh registry per instance keeps tests independent.
type Registry struct {
	registry *prometheus.Registry

	ForecastRuns    *prometheus.CounterVec
	ForecastErrors  *prometheus.CounterVec
	IngestErrors    *prometheus.CounterVec
	AnomaliesFound  *prometheus.CounterVec
	Recommendations *prometheus.GaugeVec
	PeakRatio       *prometheus.GaugeVec
	CycleDuration   *prometheus.HistogramVec
	WSClients       prometheus.Gauge
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,

		ForecastRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketpulse",
			Name:      "forecast_runs_total",
			Help:      "Completed forecast cycles per market.",
		}, []string{"market"}),

		ForecastErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketpulse",
			Name:      "forecast_errors_total",
			Help:      "Forecast cycles that ended in an error.",
		}, []string{"market"}),

		IngestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketpulse",
			Name:      "ingest_errors_total",
			Help:      "Failed snapshot fetches per market.",
		}, []string{"market"}),

		AnomaliesFound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketpulse",
			Name:      "anomalies_detected_total",
			Help:      "Anomalies flagged in the demand series per market.",
		}, []string{"market"}),

		Recommendations: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "marketpulse",
			Name:      "recommendations_active",
			Help:      "Recommendations in the latest generated batch.",
		}, []string{"market", "severity"}),

		PeakRatio: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "marketpulse",
			Name:      "forecast_peak_ratio",
			Help:      "Highest predicted supply/demand ratio in the current horizon.",
		}, []string{"market"}),

		CycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "marketpulse",
			Name:      "pipeline_cycle_duration_seconds",
			Help:      "Wall time of one full pipeline cycle.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"market"}),

		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "marketpulse",
			Name:      "websocket_clients",
			Help:      "Currently connected websocket clients.",
		}),
	}
}

// Handler exposes the registry in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
