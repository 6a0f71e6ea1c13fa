// Package metrics holds the Prometheus collectors of a sentiment run. The
// tool is a batch CLI, so collectors live on a private registry and are
// written to a node_exporter textfile at the end of a command.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for one run
type Metrics struct {
	Registry *prometheus.Registry

	DocumentsLoaded  *prometheus.CounterVec
	Predictions      *prometheus.CounterVec
	VocabularySize   prometheus.Gauge
	SelectedFeatures prometheus.Gauge
	Evaluation       *prometheus.GaugeVec
	PhaseDuration    *prometheus.GaugeVec
	LastSuccess      prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		DocumentsLoaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_documents_loaded_total",
				Help: "Number of corpus documents read per class",
			},
			[]string{"class"},
		),
		Predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_predictions_total",
				Help: "Number of classifications per predicted class",
			},
			[]string{"predicted"},
		),
		VocabularySize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sentiment_vocabulary_size",
			Help: "Number of tokens in the trained model after pruning",
		}),
		SelectedFeatures: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sentiment_selected_features",
			Help: "Number of tokens kept by feature selection (0 = all)",
		}),
		Evaluation: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentiment_evaluation",
				Help: "Last evaluation result by metric",
			},
			[]string{"metric"},
		),
		PhaseDuration: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentiment_phase_duration_seconds",
				Help: "Wall time of the last run of each phase",
			},
			[]string{"phase"},
		),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sentiment_last_success_timestamp_seconds",
			Help: "Unix time of the last successful command",
		}),
	}
}

// ClassLabel maps a polarity to its label value.
func ClassLabel(positive bool) string {
	if positive {
		return "positive"
	}
	return "negative"
}

// RecordEvaluation stores the headline numbers of an evaluation.
func (m *Metrics) RecordEvaluation(precision, recall, f1, accuracy float64, samples int) {
	m.Evaluation.WithLabelValues("precision").Set(precision)
	m.Evaluation.WithLabelValues("recall").Set(recall)
	m.Evaluation.WithLabelValues("f1").Set(f1)
	m.Evaluation.WithLabelValues("accuracy").Set(accuracy)
	m.Evaluation.WithLabelValues("samples").Set(float64(samples))
}

// Time returns a func that records the elapsed time of phase when called.
//
//	defer m.Time("train")()
func (m *Metrics) Time(phase string) func() {
	start := time.Now()
	return func() {
		m.PhaseDuration.WithLabelValues(phase).Set(time.Since(start).Seconds())
	}
}

// WriteTextfile marks the run successful and writes every collector to path
// in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	m.LastSuccess.SetToCurrentTime()
	return prometheus.WriteToTextfile(path, m.Registry)
}
