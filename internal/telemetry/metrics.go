// Package telemetry exposes Prometheus collectors for training, scoring and
// the formulation dialogue. A nil *Metrics is valid and records nothing, so
// components never need to check whether metrics are enabled.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "plantbot"

// Metrics groups every collector the lab reports.
type Metrics struct {
	TrainingsTotal    *prometheus.CounterVec
	TrainingDuration  prometheus.Histogram
	ModelVersion      prometheus.Gauge
	PredictionsTotal  *prometheus.CounterVec
	StepsTotal        *prometheus.CounterVec
	FormulationsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TrainingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trainings_total",
			Help:      "Model training runs by result (ok, error, busy).",
		}, []string{"result"}),
		TrainingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      "Wall time of successful training runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		ModelVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_version",
			Help:      "Version counter of the model currently serving predictions.",
		}),
		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Predictions served, split by whether the source matched a one-hot column.",
		}, []string{"source"}),
		StepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialogue_steps_total",
			Help:      "Dialogue turns by the state they were handled in and their outcome.",
		}, []string{"state", "outcome"}),
		FormulationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "formulations_total",
			Help:      "Completed formulations by outcome tier.",
		}, []string{"tier"}),
	}
	reg.MustRegister(
		m.TrainingsTotal,
		m.TrainingDuration,
		m.ModelVersion,
		m.PredictionsTotal,
		m.StepsTotal,
		m.FormulationsTotal,
	)
	return m
}

// ObserveTraining records one training attempt. version is only applied on
// result "ok".
func (m *Metrics) ObserveTraining(result string, d time.Duration, version uint64) {
	if m == nil {
		return
	}
	m.TrainingsTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		m.TrainingDuration.Observe(d.Seconds())
		m.ModelVersion.Set(float64(version))
	}
}

// ObservePrediction records one prediction.
func (m *Metrics) ObservePrediction(knownSource bool) {
	if m == nil {
		return
	}
	label := "known"
	if !knownSource {
		label = "unknown"
	}
	m.PredictionsTotal.WithLabelValues(label).Inc()
}

// ObserveStep records one dialogue turn.
func (m *Metrics) ObserveStep(state, outcome string) {
	if m == nil {
		return
	}
	m.StepsTotal.WithLabelValues(state, outcome).Inc()
}

// ObserveFormulation records a completed formulation.
func (m *Metrics) ObserveFormulation(tier string) {
	if m == nil {
		return
	}
	m.FormulationsTotal.WithLabelValues(tier).Inc()
}

// Handler serves the collectors of g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
