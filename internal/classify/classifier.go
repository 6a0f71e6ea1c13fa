// Package classify scores text against a trained count model with add-one
// smoothed Naive Bayes and returns a binary sentiment decision.
package classify

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/fractal-lba/sentiment/internal/model"
	"github.com/fractal-lba/sentiment/pkg/text"
)

// Classifier is stateless given its model; a single Classifier may be shared
// across goroutines.
type Classifier struct {
	model       *model.Model
	features    *model.FeatureSet
	transformer *text.Transformer
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithFeatures restricts scoring to the tokens of fs. Without it every token
// present in the model is eligible.
func WithFeatures(fs *model.FeatureSet) Option {
	return func(c *Classifier) {
		c.features = fs
	}
}

// WithTransformer overrides the tokenizer derived from the model card.
func WithTransformer(t *text.Transformer) Option {
	return func(c *Classifier) {
		c.transformer = t
	}
}

// New creates a classifier over m.
func New(m *model.Model, opts ...Option) *Classifier {
	c := &Classifier{
		model:       m,
		transformer: m.Transformer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the underlying count model.
func (c *Classifier) Model() *model.Model {
	return c.model
}

// FeatureSelection reports whether a feature set filters the vocabulary.
func (c *Classifier) FeatureSelection() bool {
	return c.features != nil
}

// Score holds the per-class log-probability sums for one text.
type Score struct {
	Positive   float64 `json:"positive"`
	Negative   float64 `json:"negative"`
	Tokens     int     `json:"tokens"`     // Distinct eligible tokens scored
	Degenerate bool    `json:"degenerate"` // No eligible tokens or an empty class
}

// IsPositive is the decision for the score. Degenerate scores are positive.
func (s Score) IsPositive() bool {
	if s.Degenerate {
		return true
	}
	return s.Positive > s.Negative
}

// Confidence is exp(|positive - negative|).
func (s Score) Confidence() float64 {
	return math.Exp(math.Abs(s.Positive - s.Negative))
}

// Classify reports whether text is positive.
func (c *Classifier) Classify(text string) bool {
	return c.Score(text).IsPositive()
}

// Score computes the smoothed log-probability of text under each class.
func (c *Classifier) Score(text string) Score {
	s, _, _ := c.score(c.eligible(text))
	return s
}

// score sums the per-token log-probabilities, also returning the terms.
func (c *Classifier) score(tokens []string) (s Score, logPos, logNeg []float64) {
	s.Tokens = len(tokens)
	if len(tokens) == 0 || c.model.TotalPositive() == 0 || c.model.TotalNegative() == 0 {
		s.Degenerate = true
		return s, nil, nil
	}

	logPos = make([]float64, len(tokens))
	logNeg = make([]float64, len(tokens))
	for i, token := range tokens {
		pos, neg := c.probabilities(token)
		logPos[i] = math.Log(pos)
		logNeg[i] = math.Log(neg)
	}
	s.Positive = floats.Sum(logPos)
	s.Negative = floats.Sum(logNeg)
	return s, logPos, logNeg
}

// eligible returns the distinct tokens of text that the classifier scores.
func (c *Classifier) eligible(s string) []string {
	tokens := text.Unique(c.transformer.NegateSequence(s))
	eligible := tokens[:0]
	for _, token := range tokens {
		if c.features != nil {
			if !c.features.Contains(token) {
				continue
			}
		} else if !c.model.Contains(token) {
			continue
		}
		eligible = append(eligible, token)
	}
	return eligible
}

// probabilities returns the smoothed estimate for both classes. Totals must
// be non-zero.
func (c *Classifier) probabilities(token string) (pos, neg float64) {
	p, n := c.model.Counts(token)
	return SmoothedProbability(p, c.model.TotalPositive()), SmoothedProbability(n, c.model.TotalNegative())
}

// SmoothedProbability is (count+1) / (2*total).
func SmoothedProbability(count, total int) float64 {
	return float64(count+1) / (2 * float64(total))
}

// sortByContribution orders details by descending absolute log-odds.
func sortByContribution(details []TokenDetail) {
	sort.SliceStable(details, func(i, j int) bool {
		return math.Abs(details[i].Contribution) > math.Abs(details[j].Contribution)
	})
}
