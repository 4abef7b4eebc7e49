package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cycles          *prometheus.CounterVec
	recommendations *prometheus.CounterVec
	fetchErrors     *prometheus.CounterVec
	fetchLatency    *prometheus.HistogramVec
	lastPrice       *prometheus.GaugeVec
	riskScore       prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cycles: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnpilot_cycles_total",
				Help: "Total number of decision cycles run",
			},
			[]string{"trigger"},
		),
		recommendations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnpilot_recommendations_total",
				Help: "Recommendations produced, by outcome type",
			},
			[]string{"type"},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnpilot_fetch_errors_total",
				Help: "Upstream fetch errors, by source",
			},
			[]string{"source"},
		),
		fetchLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "earnpilot_fetch_duration_seconds",
				Help:    "Upstream fetch latency, by source",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "earnpilot_last_price",
				Help: "Last streamed price for a symbol",
			},
			[]string{"symbol"},
		),
		riskScore: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "earnpilot_portfolio_risk_score",
				Help: "Most recently computed portfolio risk score",
			},
		),
	}
}

// RecordCycle records a decision cycle run.
func (r *Recorder) RecordCycle(trigger string) {
	r.cycles.WithLabelValues(trigger).Inc()
}

// RecordRecommendation records a produced recommendation by type.
func (r *Recorder) RecordRecommendation(kind string) {
	r.recommendations.WithLabelValues(kind).Inc()
}

// RecordFetchError records an upstream fetch failure.
func (r *Recorder) RecordFetchError(source string) {
	r.fetchErrors.WithLabelValues(source).Inc()
}

// RecordFetchLatency records upstream fetch latency in seconds.
func (r *Recorder) RecordFetchLatency(source string, seconds float64) {
	r.fetchLatency.WithLabelValues(source).Observe(seconds)
}

// RecordLastPrice records the last streamed price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordRiskScore records the latest portfolio risk score.
func (r *Recorder) RecordRiskScore(score float64) {
	r.riskScore.Set(score)
}
