package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	prices      *prometheus.HistogramVec
	modelReady  prometheus.Gauge
	latency     *prometheus.HistogramVec
}

// New registers the recorder's collectors on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg. Tests pass a fresh prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revalue_predictions_total",
				Help: "Total number of price predictions by outcome",
			},
			[]string{"status", "category"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revalue_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		prices: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "revalue_predicted_price",
				Help:    "Distribution of predicted resale prices per category",
				Buckets: prometheus.ExponentialBuckets(100, 2, 14),
			},
			[]string{"category"},
		),
		modelReady: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "revalue_model_ready",
				Help: "1 when the model artifacts are loaded",
			},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "revalue_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction counts a prediction outcome.
func (r *Recorder) RecordPrediction(status, category string) {
	r.predictions.WithLabelValues(status, category).Inc()
}

// RecordPrice observes a predicted price for a category.
func (r *Recorder) RecordPrice(category string, price float64) {
	r.prices.WithLabelValues(category).Observe(price)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) SetModelReady(ready bool) {
	if ready {
		r.modelReady.Set(1)
		return
	}
	r.modelReady.Set(0)
}
