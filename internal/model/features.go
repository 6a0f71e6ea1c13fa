package model

import (
	"math"
	"sort"
)

// MutualInformation scores how informative the presence or absence of
// token is for the class label. Cells with a zero count contribute nothing.
func (m *Model) MutualInformation(token string) float64 {
	pos, neg := m.Counts(token)
	return m.mutualInformation(pos, neg)
}

func (m *Model) mutualInformation(pos, neg int) float64 {
	total := float64(m.totalPos + m.totalNeg)
	w := float64(pos + neg)
	if w == 0 || total == 0 {
		return 0
	}

	var mi float64
	mi += cellInformation(float64(neg), float64(m.totalNeg), w, total)
	mi += cellInformation(float64(pos), float64(m.totalPos), w, total)
	return mi
}

// cellInformation adds the "present in class" and "absent from class" terms
// for one class. count is the token's count in the class, classTotal the
// class total, w the token's count over both classes.
func cellInformation(count, classTotal, w, total float64) float64 {
	if count <= 0 || classTotal <= 0 {
		return 0
	}

	var mi float64
	absent := classTotal - count
	if absent > 0 && total > w {
		mi += absent / total * math.Log(absent*total/((total-w)*classTotal))
	}
	mi += count / total * math.Log(count*total/(w*classTotal))
	return mi
}

// Ranked is a token with its mutual-information score.
type Ranked struct {
	Token string  `json:"token"`
	Score float64 `json:"score"`
}

// RankFeatures returns every token ordered by descending mutual information.
// Equal scores are ordered by token.
func (m *Model) RankFeatures() []Ranked {
	ranked := make([]Ranked, m.Len())
	for id := range ranked {
		ranked[id] = Ranked{
			Token: m.vocab.Token(id),
			Score: m.mutualInformation(m.pos[id], m.neg[id]),
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Token < ranked[j].Token
	})
	return ranked
}

// FeatureSet is a subset of a model's vocabulary.
type FeatureSet struct {
	vocab  *Vocabulary
	member []bool
	size   int
}

// SelectFeatures keeps the k highest-ranked tokens. k <= 0 or k >= Len()
// selects the whole vocabulary.
func (m *Model) SelectFeatures(k int) *FeatureSet {
	return m.SelectRanked(m.RankFeatures(), k)
}

// SelectRanked keeps the first k entries of a ranking produced by RankFeatures.
// Sweeping several k values over one ranking avoids re-ranking.
func (m *Model) SelectRanked(ranked []Ranked, k int) *FeatureSet {
	if k <= 0 || k > len(ranked) {
		k = len(ranked)
	}
	tokens := make([]string, k)
	for i := 0; i < k; i++ {
		tokens[i] = ranked[i].Token
	}
	return m.NewFeatureSet(tokens)
}

// NewFeatureSet builds a feature set from tokens. Tokens unknown to the
// model are ignored.
func (m *Model) NewFeatureSet(tokens []string) *FeatureSet {
	fs := &FeatureSet{
		vocab:  m.vocab,
		member: make([]bool, m.vocab.Len()),
	}
	for _, token := range tokens {
		if id, ok := m.vocab.ID(token); ok && !fs.member[id] {
			fs.member[id] = true
			fs.size++
		}
	}
	return fs
}

// Contains reports whether token is selected.
func (fs *FeatureSet) Contains(token string) bool {
	if fs == nil {
		return false
	}
	id, ok := fs.vocab.ID(token)
	return ok && fs.member[id]
}

// Len returns the number of selected tokens.
func (fs *FeatureSet) Len() int {
	if fs == nil {
		return 0
	}
	return fs.size
}

// Tokens returns the selected tokens in vocabulary order.
func (fs *FeatureSet) Tokens() []string {
	if fs == nil {
		return nil
	}
	tokens := make([]string, 0, fs.size)
	for id, ok := range fs.member {
		if ok {
			tokens = append(tokens, fs.vocab.Token(id))
		}
	}
	return tokens
}

// Restrict returns a compact model holding only the tokens of fs, with
// totals recomputed over the kept counts.
func (m *Model) Restrict(fs *FeatureSet) *Model {
	vocab := newVocabularyWithCapacity(fs.Len())
	pos := make([]int, 0, fs.Len())
	neg := make([]int, 0, fs.Len())
	for id, token := range m.vocab.tokens {
		if !fs.Contains(token) {
			continue
		}
		vocab.Intern(token)
		pos = append(pos, m.pos[id])
		neg = append(neg, m.neg[id])
	}

	card := m.card
	card.Features = vocab.Len()
	return newModel(vocab, pos, neg, card)
}
