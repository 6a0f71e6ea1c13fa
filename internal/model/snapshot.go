package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = 1

// ErrCorruptSnapshot is returned when a decoded snapshot violates the model
// invariants (negative counts, totals that are not the sums of the counts).
var ErrCorruptSnapshot = errors.New("corrupt model snapshot")

// Snapshot is the serialized form of a model: the two count tables, their
// totals, an optional selected feature list and the model card.
type Snapshot struct {
	Version  int            `json:"version"`
	Positive map[string]int `json:"positive"`
	Negative map[string]int `json:"negative"`
	Totals   [2]int         `json:"totals"` // [total_positive, total_negative]
	Features []string       `json:"features,omitempty"`
	Card     Card           `json:"card"`
}

// Snapshot captures m, and fs when non-nil. Zero counts are omitted.
func (m *Model) Snapshot(fs *FeatureSet) *Snapshot {
	s := &Snapshot{
		Version:  SnapshotVersion,
		Positive: make(map[string]int),
		Negative: make(map[string]int),
		Totals:   [2]int{m.totalPos, m.totalNeg},
		Card:     m.card,
	}
	for id, token := range m.vocab.tokens {
		if m.pos[id] > 0 {
			s.Positive[token] = m.pos[id]
		}
		if m.neg[id] > 0 {
			s.Negative[token] = m.neg[id]
		}
	}
	if fs != nil {
		s.Features = fs.Tokens()
		sort.Strings(s.Features)
	}
	return s
}

// Validate checks the snapshot invariants.
func (s *Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, s.Version)
	}

	var sumPos, sumNeg int
	for token, c := range s.Positive {
		if c < 0 {
			return fmt.Errorf("%w: negative positive count for %q", ErrCorruptSnapshot, token)
		}
		sumPos += c
	}
	for token, c := range s.Negative {
		if c < 0 {
			return fmt.Errorf("%w: negative negative count for %q", ErrCorruptSnapshot, token)
		}
		sumNeg += c
	}

	if s.Totals[0] != sumPos || s.Totals[1] != sumNeg {
		return fmt.Errorf("%w: totals %v do not match counts [%d %d]",
			ErrCorruptSnapshot, s.Totals, sumPos, sumNeg)
	}
	return nil
}

// Model rebuilds the model and its feature set (nil when the snapshot has
// none). Tokens are interned in sorted order so IDs are reproducible.
func (s *Snapshot) Model() (*Model, *FeatureSet, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}

	tokens := make([]string, 0, len(s.Positive)+len(s.Negative))
	for token, c := range s.Positive {
		if c > 0 {
			tokens = append(tokens, token)
		}
	}
	for token, c := range s.Negative {
		if c > 0 && s.Positive[token] == 0 {
			tokens = append(tokens, token)
		}
	}
	sort.Strings(tokens)

	vocab := newVocabularyWithCapacity(len(tokens))
	pos := make([]int, len(tokens))
	neg := make([]int, len(tokens))
	for i, token := range tokens {
		vocab.Intern(token)
		pos[i] = s.Positive[token]
		neg[i] = s.Negative[token]
	}

	m := newModel(vocab, pos, neg, s.Card)

	var fs *FeatureSet
	if len(s.Features) > 0 {
		fs = m.NewFeatureSet(s.Features)
	}
	return m, fs, nil
}

// Encode writes the snapshot as JSON.
func (s *Snapshot) Encode(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// Checksum returns the hex SHA-256 of the canonical JSON encoding.
func (s *Snapshot) Checksum() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Decode reads and validates a JSON snapshot.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
