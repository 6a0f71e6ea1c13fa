package main

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/fractal-lba/sentiment/internal/classify"
	"github.com/fractal-lba/sentiment/internal/config"
	"github.com/fractal-lba/sentiment/internal/corpus"
	"github.com/fractal-lba/sentiment/internal/eval"
	"github.com/fractal-lba/sentiment/internal/logging"
	"github.com/fractal-lba/sentiment/internal/metrics"
	"github.com/fractal-lba/sentiment/internal/model"
	"github.com/fractal-lba/sentiment/internal/store"
	tracing "github.com/fractal-lba/sentiment/pkg/otel"
)

// globalFlags override the config file and environment when set.
type globalFlags struct {
	configFile   string
	backend      string
	modelDir     string
	workers      int
	logLevel     string
	logFormat    string
	metricsFile  string
	otlpEndpoint string
}

// app is the state shared by every command of one invocation.
type app struct {
	flags   globalFlags
	cfg     *config.Config
	log     *logrus.Logger
	metrics *metrics.Metrics
	tp      *sdktrace.TracerProvider
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store.Backend = a.flags.backend
	}
	if flags.Changed("model-dir") {
		cfg.Store.Dir = a.flags.modelDir
	}
	if flags.Changed("workers") {
		cfg.Eval.Workers = a.flags.workers
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.flags.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.flags.logFormat
	}
	if flags.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = a.flags.metricsFile
	}
	if flags.Changed("otlp-endpoint") {
		cfg.Tracing.Endpoint = a.flags.otlpEndpoint
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = logging.NewWithOutput(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.metrics = metrics.New()

	a.tp, err = tracing.InitTracer(cmd.Context(), &tracing.Config{
		ServiceName:       cfg.Tracing.ServiceName,
		ServiceVersion:    version,
		CollectorEndpoint: cfg.Tracing.Endpoint,
		CollectorInsecure: cfg.Tracing.Insecure,
		SamplingRate:      cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	return nil
}

// finish runs after a successful command.
func (a *app) finish() error {
	if a.cfg == nil || a.cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	a.log.WithField("path", a.cfg.Metrics.Textfile).Debug("Metrics written")
	return nil
}

func (a *app) close(ctx context.Context) error {
	return tracing.Shutdown(ctx, a.tp)
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, a.cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", a.cfg.Store.Backend, err)
	}
	return st, nil
}

func (a *app) evaluator() *eval.Evaluator {
	return &eval.Evaluator{Workers: a.cfg.Eval.Workers, Log: a.log}
}

func (a *app) loadCorpus(ctx context.Context, dir string) (*corpus.Corpus, error) {
	defer a.metrics.Time("load")()

	var c *corpus.Corpus
	err := tracing.Phase(ctx, "corpus.load", func(ctx context.Context, span trace.Span) error {
		var err error
		c, err = corpus.Load(ctx, dir, corpus.Options{Workers: a.cfg.Eval.Workers, Log: a.log})
		if err != nil {
			return err
		}
		span.SetAttributes(tracing.CorpusAttributes(dir, len(c.Positive), len(c.Negative))...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	a.metrics.DocumentsLoaded.WithLabelValues(metrics.ClassLabel(true)).Add(float64(len(c.Positive)))
	a.metrics.DocumentsLoaded.WithLabelValues(metrics.ClassLabel(false)).Add(float64(len(c.Negative)))
	return c, nil
}

func (a *app) train(ctx context.Context, positive, negative []string, opts model.Options) *model.Model {
	defer a.metrics.Time("train")()

	_, span := tracing.StartSpan(ctx, "train")
	defer span.End()

	m := model.Train(positive, negative, opts)
	span.SetAttributes(tracing.ModelAttributes("", m.Len())...)
	a.metrics.VocabularySize.Set(float64(m.Len()))

	a.log.WithFields(logrus.Fields{
		"positive": len(positive),
		"negative": len(negative),
		"vocab":    m.Len(),
	}).Info("Model trained")
	return m
}

// loadModel reads name from st and rebuilds the model and its stored
// feature set, if any.
func (a *app) loadModel(ctx context.Context, st store.Store, name string) (*model.Model, *model.FeatureSet, error) {
	s, err := st.Load(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load model %q: %w", name, err)
	}
	m, fs, err := s.Model()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rebuild model %q: %w", name, err)
	}
	a.metrics.VocabularySize.Set(float64(m.Len()))
	a.metrics.SelectedFeatures.Set(float64(fs.Len()))
	return m, fs, nil
}

// classifier loads name and classifies in feature-selection mode when the
// model carries a feature set, unless allFeatures is set.
func (a *app) classifier(ctx context.Context, st store.Store, name string, allFeatures bool) (*classify.Classifier, error) {
	m, fs, err := a.loadModel(ctx, st, name)
	if err != nil {
		return nil, err
	}
	if fs == nil || allFeatures {
		return classify.New(m), nil
	}
	return classify.New(m, classify.WithFeatures(fs)), nil
}

func (a *app) saveModel(ctx context.Context, st store.Store, name string, s *model.Snapshot) (string, error) {
	if err := st.Save(ctx, name, s); err != nil {
		return "", fmt.Errorf("failed to save model %q: %w", name, err)
	}
	checksum, err := s.Checksum()
	if err != nil {
		return "", err
	}
	a.log.WithFields(logrus.Fields{
		"model":    name,
		"backend":  a.cfg.Store.Backend,
		"checksum": checksum,
	}).Info("Model saved")
	return checksum, nil
}

func (a *app) recordEvaluation(ctx context.Context, m *eval.Metrics) {
	a.metrics.RecordEvaluation(m.Precision, m.Recall, m.F1Score, m.Accuracy, m.NumSamples)
	trace.SpanFromContext(ctx).SetAttributes(tracing.EvalAttributes(m.NumSamples, m.Accuracy, m.F1Score)...)
}

// counted wraps a predictor so every decision is counted by class.
type counted struct {
	predictor eval.Predictor
	counter   *metrics.Metrics
}

func (c counted) Classify(text string) bool {
	positive := c.predictor.Classify(text)
	c.counter.Predictions.WithLabelValues(metrics.ClassLabel(positive)).Inc()
	return positive
}

func printMetrics(w io.Writer, m *eval.Metrics) {
	fmt.Fprintf(w, "Samples:   %d\n", m.NumSamples)
	fmt.Fprintf(w, "Confusion: TP=%d FP=%d FN=%d TN=%d\n", m.TruePositives, m.FalsePositives, m.FalseNegatives, m.TrueNegatives)
	fmt.Fprintf(w, "Precision: %.4f\n", m.Precision)
	fmt.Fprintf(w, "Recall:    %.4f\n", m.Recall)
	fmt.Fprintf(w, "F1:        %.4f\n", m.F1Score)
	fmt.Fprintf(w, "Accuracy:  %.2f%%\n", m.Accuracy)
}
