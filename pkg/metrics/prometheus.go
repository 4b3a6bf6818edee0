package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	drepo "AgriPulse/internal/domain/repository"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	fetchedRows *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchedRows: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agripulse_fetched_rows_total",
				Help: "Raw transaction rows fetched from the open-data source",
			},
			[]string{"market"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agripulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agripulse_last_price",
				Help: "Last observed daily price for a crop/market pair",
			},
			[]string{"crop", "market"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agripulse_operation_duration_seconds",
				Help:    "Duration of pipeline operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch counts raw rows fetched for a market.
func (r *Recorder) RecordFetch(market string, rows int) {
	r.fetchedRows.WithLabelValues(market).Add(float64(rows))
}

// RecordError counts an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency observes operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordLastPrice sets the latest observed price gauge.
func (r *Recorder) RecordLastPrice(crop, market string, price float64) {
	r.lastPrice.WithLabelValues(crop, market).Set(price)
}

var _ drepo.Metrics = (*Recorder)(nil)
