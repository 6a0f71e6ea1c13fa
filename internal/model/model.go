// Package model holds the class-conditional token counts of the sentiment
// classifier: training, pruning, mutual-information feature selection and the
// snapshot codec used to persist a trained model.
package model

import (
	"time"

	"github.com/fractal-lba/sentiment/pkg/text"
)

// Card describes how a model was produced.
type Card struct {
	TrainedAt      time.Time `json:"trained_at"`
	PositiveDocs   int       `json:"positive_docs"`
	NegativeDocs   int       `json:"negative_docs"`
	Pruned         bool      `json:"pruned"`
	CrossIncrement bool      `json:"cross_increment"`
	MaxN           int       `json:"max_n"`
	Normalize      bool      `json:"normalize"`
	NegatedPrefix  string    `json:"negated_prefix"`
	Features       int       `json:"features,omitempty"` // Set when restricted to a feature set
}

// Model is an immutable pair of per-class document-frequency tables.
//
// Every token in the vocabulary has a count of at least one in one of the two
// classes. Tokens outside the vocabulary count as zero in both. A Model is
// safe for concurrent reads.
type Model struct {
	vocab    *Vocabulary
	pos      []int
	neg      []int
	totalPos int
	totalNeg int
	card     Card
}

// newModel derives the totals from the count slices.
func newModel(vocab *Vocabulary, pos, neg []int, card Card) *Model {
	m := &Model{
		vocab: vocab,
		pos:   pos,
		neg:   neg,
		card:  card,
	}
	for i := range pos {
		m.totalPos += pos[i]
		m.totalNeg += neg[i]
	}
	return m
}

// Pos returns the positive-class count of token.
func (m *Model) Pos(token string) int {
	if id, ok := m.vocab.ID(token); ok {
		return m.pos[id]
	}
	return 0
}

// Neg returns the negative-class count of token.
func (m *Model) Neg(token string) int {
	if id, ok := m.vocab.ID(token); ok {
		return m.neg[id]
	}
	return 0
}

// Counts returns both class counts of token.
func (m *Model) Counts(token string) (pos, neg int) {
	if id, ok := m.vocab.ID(token); ok {
		return m.pos[id], m.neg[id]
	}
	return 0, 0
}

// Contains reports whether token appears in either class.
func (m *Model) Contains(token string) bool {
	_, ok := m.vocab.ID(token)
	return ok
}

// ID returns the dense ID of token.
func (m *Model) ID(token string) (int, bool) {
	return m.vocab.ID(token)
}

// Token returns the token with the given ID.
func (m *Model) Token(id int) string {
	return m.vocab.Token(id)
}

// Tokens returns the vocabulary in ID order.
func (m *Model) Tokens() []string {
	tokens := make([]string, m.vocab.Len())
	copy(tokens, m.vocab.tokens)
	return tokens
}

// Len returns the vocabulary size.
func (m *Model) Len() int {
	return m.vocab.Len()
}

// TotalPositive is the sum of all positive-class counts.
func (m *Model) TotalPositive() int {
	return m.totalPos
}

// TotalNegative is the sum of all negative-class counts.
func (m *Model) TotalNegative() int {
	return m.totalNeg
}

// Card returns the model card.
func (m *Model) Card() Card {
	return m.card
}

// Transformer returns a tokenizer configured the way this model was trained.
func (m *Model) Transformer() *text.Transformer {
	t := text.NewTransformer(m.card.MaxN, m.card.Normalize)
	if m.card.NegatedPrefix != "" {
		t.NegatedPrefix = m.card.NegatedPrefix
	}
	return t
}
