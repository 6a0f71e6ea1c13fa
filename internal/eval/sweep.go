package eval

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/fractal-lba/sentiment/internal/classify"
	"github.com/fractal-lba/sentiment/internal/model"
)

// ErrNoCandidates is returned by Sweep when no feature count is given.
var ErrNoCandidates = errors.New("no feature-count candidates")

// SweepPoint is the evaluation of one feature count.
type SweepPoint struct {
	K        int     `json:"k"`
	Features int     `json:"features"` // Selected tokens after clamping
	Metrics  Metrics `json:"metrics"`
}

// SweepResult lists every evaluated feature count and the best one.
type SweepResult struct {
	Points []SweepPoint `json:"points"`
	Best   SweepPoint   `json:"best"`
}

// Sweep evaluates m on validation with a default Evaluator.
func Sweep(ctx context.Context, m *model.Model, validation []Document, ks []int) (*SweepResult, error) {
	return (&Evaluator{}).Sweep(ctx, m, validation, ks)
}

// Sweep selects the top-k features for each candidate k, classifies the
// validation documents in feature-selection mode and keeps the k with the
// highest accuracy. Ties go to the smaller feature count. Candidates that
// clamp to the same feature count are evaluated once.
func (e *Evaluator) Sweep(ctx context.Context, m *model.Model, validation []Document, ks []int) (*SweepResult, error) {
	candidates := normalizeCandidates(ks, m.Len())
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	ranked := m.RankFeatures()
	result := &SweepResult{Points: make([]SweepPoint, 0, len(candidates))}

	for _, k := range candidates {
		fs := m.SelectRanked(ranked, k)
		c := classify.New(m, classify.WithFeatures(fs))

		outcomes, err := e.PredictDocuments(ctx, c, validation)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate k=%d: %w", k, err)
		}

		point := SweepPoint{K: k, Features: fs.Len(), Metrics: Tally(outcomes)}
		result.Points = append(result.Points, point)
		if len(result.Points) == 1 || point.Metrics.Accuracy > result.Best.Metrics.Accuracy {
			result.Best = point
		}

		if e.Log != nil {
			e.Log.WithFields(logrus.Fields{
				"k":        k,
				"features": point.Features,
				"accuracy": point.Metrics.Accuracy,
				"f1":       point.Metrics.F1Score,
			}).Debug("Sweep point evaluated")
		}
	}
	return result, nil
}

// normalizeCandidates clamps each k to [1, vocab] (k <= 0 means the whole
// vocabulary), removes duplicates and sorts ascending.
func normalizeCandidates(ks []int, vocab int) []int {
	if vocab == 0 {
		if len(ks) == 0 {
			return nil
		}
		return []int{0}
	}

	seen := make(map[int]bool, len(ks))
	out := make([]int, 0, len(ks))
	for _, k := range ks {
		if k <= 0 || k > vocab {
			k = vocab
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Ints(out)
	return out
}
