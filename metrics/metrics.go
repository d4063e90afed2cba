// Package metrics exposes Prometheus metrics for snapshot refreshes and derived reports.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"purehill-revenue/models"
)

// Recorder holds all metrics on its own registry
type Recorder struct {
	registry *prometheus.Registry

	RefreshTotal         *prometheus.CounterVec
	Observations         prometheus.Gauge
	RowsDropped          *prometheus.CounterVec
	LastRefreshSeconds   prometheus.Gauge
	ParityViolations     prometheus.Gauge
	DumpingHotelsFlagged prometheus.Gauge
}

// NewRecorder creates a Recorder with every metric registered under namespace
func NewRecorder(namespace string) *Recorder {
	if namespace == "" {
		namespace = "rate_intel"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		RefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "refresh_total",
			Help:      "Snapshot rebuild attempts by result",
		}, []string{"result"}),
		Observations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "observations",
			Help:      "Observations in the current snapshot",
		}),
		RowsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalizer",
			Name:      "rows_dropped_total",
			Help:      "Raw rows excluded during normalization by reason",
		}, []string{"reason"}),
		LastRefreshSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful rebuild",
		}),
		ParityViolations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "parity_violations",
			Help:      "Parity violations in the latest unfiltered report",
		}),
		DumpingHotelsFlagged: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "dumping_hotels_flagged",
			Help:      "Competitors flagged for last-minute discounting in the latest unfiltered report",
		}),
	}
}

// ObserveRefresh records the outcome of one rebuild attempt
func (r *Recorder) ObserveRefresh(snap *models.Snapshot, err error) {
	if err != nil || snap == nil {
		r.RefreshTotal.WithLabelValues("failure").Inc()
		return
	}
	r.RefreshTotal.WithLabelValues("success").Inc()
	r.Observations.Set(float64(len(snap.Observations)))
	r.LastRefreshSeconds.Set(float64(snap.BuiltAt.Unix()))
	for reason, n := range snap.Stats.Dropped {
		r.RowsDropped.WithLabelValues(string(reason)).Add(float64(n))
	}
}

// ObserveReport records report-level gauges
func (r *Recorder) ObserveReport(report *models.RateReport) {
	r.ParityViolations.Set(float64(len(report.Parity.Violations)))
	r.DumpingHotelsFlagged.Set(float64(len(report.LeadTime.Flagged)))
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
