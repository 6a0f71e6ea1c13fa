package eval

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Evaluator runs a predictor over labeled samples.
type Evaluator struct {
	// Workers bounds concurrent file reads and predictions. Zero means
	// GOMAXPROCS.
	Workers int
	Log     logrus.FieldLogger
}

// Evaluate classifies every sample file with p using a default Evaluator.
func Evaluate(ctx context.Context, p Predictor, samples []Sample) (*Metrics, error) {
	return (&Evaluator{}).Evaluate(ctx, p, samples)
}

// EvaluateDocuments classifies in-memory documents with a default Evaluator.
func EvaluateDocuments(ctx context.Context, p Predictor, docs []Document) (*Metrics, error) {
	return (&Evaluator{}).EvaluateDocuments(ctx, p, docs)
}

// Evaluate reads each sample file, classifies its full content and tallies
// the confusion matrix. Any read error aborts the run.
func (e *Evaluator) Evaluate(ctx context.Context, p Predictor, samples []Sample) (*Metrics, error) {
	outcomes, err := e.PredictSamples(ctx, p, samples)
	if err != nil {
		return nil, err
	}
	m := Tally(outcomes)
	e.logMetrics(&m)
	return &m, nil
}

// EvaluateDocuments is Evaluate for text already in memory.
func (e *Evaluator) EvaluateDocuments(ctx context.Context, p Predictor, docs []Document) (*Metrics, error) {
	outcomes, err := e.PredictDocuments(ctx, p, docs)
	if err != nil {
		return nil, err
	}
	m := Tally(outcomes)
	e.logMetrics(&m)
	return &m, nil
}

// PredictSamples returns one outcome per sample, in sample order.
func (e *Evaluator) PredictSamples(ctx context.Context, p Predictor, samples []Sample) ([]Outcome, error) {
	outcomes := make([]Outcome, len(samples))
	err := e.fanOut(ctx, len(samples), func(i int) error {
		data, err := os.ReadFile(samples[i].Path)
		if err != nil {
			return fmt.Errorf("failed to read sample: %w", err)
		}
		outcomes[i] = Outcome{
			Actual:    samples[i].Positive,
			Predicted: p.Classify(string(data)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// PredictDocuments returns one outcome per document, in document order.
func (e *Evaluator) PredictDocuments(ctx context.Context, p Predictor, docs []Document) ([]Outcome, error) {
	outcomes := make([]Outcome, len(docs))
	err := e.fanOut(ctx, len(docs), func(i int) error {
		outcomes[i] = Outcome{
			Actual:    docs[i].Positive,
			Predicted: p.Classify(docs[i].Text),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// fanOut calls fn for every index in [0, n) on a bounded worker group.
// Each index is written by exactly one goroutine.
func (e *Evaluator) fanOut(ctx context.Context, n int, fn func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())

	for i := 0; i < n; i++ {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// The loop may have stopped early on a cancelled parent.
	return ctx.Err()
}

func (e *Evaluator) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (e *Evaluator) logMetrics(m *Metrics) {
	if e.Log == nil {
		return
	}
	e.Log.WithFields(logrus.Fields{
		"samples":   m.NumSamples,
		"precision": m.Precision,
		"recall":    m.Recall,
		"f1":        m.F1Score,
		"accuracy":  m.Accuracy,
	}).Info("Evaluation complete")
}
