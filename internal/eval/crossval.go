package eval

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/fractal-lba/sentiment/internal/classify"
	"github.com/fractal-lba/sentiment/internal/model"
)

// ErrTooFewFolds is returned when cross-validation is asked for fewer than
// two folds or has fewer documents than folds.
var ErrTooFewFolds = errors.New("cross-validation needs at least two folds")

// CrossValidationOptions configures CrossValidate.
type CrossValidationOptions struct {
	Folds int
	// K selects the top-K features per fold. Zero classifies in
	// unfiltered mode.
	K     int
	Seed  int64
	Train model.Options
}

// CrossValidation summarizes a k-fold run. Standard deviations are sample
// standard deviations across folds.
type CrossValidation struct {
	Folds        []Metrics `json:"folds"`
	MeanAccuracy float64   `json:"mean_accuracy"`
	StdAccuracy  float64   `json:"std_accuracy"`
	MeanF1       float64   `json:"mean_f1"`
	StdF1        float64   `json:"std_f1"`
}

// CrossValidate runs k-fold cross-validation with a default Evaluator.
func CrossValidate(ctx context.Context, docs []Document, opts CrossValidationOptions) (*CrossValidation, error) {
	return (&Evaluator{}).CrossValidate(ctx, docs, opts)
}

// CrossValidate trains a fresh model on all folds but one, evaluates it on
// the held-out fold, and repeats for every fold.
func (e *Evaluator) CrossValidate(ctx context.Context, docs []Document, opts CrossValidationOptions) (*CrossValidation, error) {
	if opts.Folds < 2 || len(docs) < opts.Folds {
		return nil, fmt.Errorf("%w: folds=%d documents=%d", ErrTooFewFolds, opts.Folds, len(docs))
	}

	folds := Folds(docs, opts.Folds, opts.Seed)
	cv := &CrossValidation{Folds: make([]Metrics, 0, len(folds))}
	accuracies := make([]float64, 0, len(folds))
	f1s := make([]float64, 0, len(folds))

	for i, held := range folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var train []Document
		for j, fold := range folds {
			if j != i {
				train = append(train, fold...)
			}
		}
		positive, negative := Partition(train)

		m := model.Train(positive, negative, opts.Train)
		var c *classify.Classifier
		if opts.K > 0 {
			c = classify.New(m, classify.WithFeatures(m.SelectFeatures(opts.K)))
		} else {
			c = classify.New(m)
		}

		outcomes, err := e.PredictDocuments(ctx, c, held)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate fold %d: %w", i, err)
		}
		metrics := Tally(outcomes)
		cv.Folds = append(cv.Folds, metrics)
		accuracies = append(accuracies, metrics.Accuracy)
		f1s = append(f1s, metrics.F1Score)

		if e.Log != nil {
			e.Log.WithFields(logrus.Fields{
				"fold":     i,
				"train":    len(positive) + len(negative),
				"test":     len(held),
				"vocab":    m.Len(),
				"accuracy": metrics.Accuracy,
			}).Info("Fold evaluated")
		}
	}

	cv.MeanAccuracy, cv.StdAccuracy = stat.MeanStdDev(accuracies, nil)
	cv.MeanF1, cv.StdF1 = stat.MeanStdDev(f1s, nil)
	return cv, nil
}
