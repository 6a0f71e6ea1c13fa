package text

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Negation-scope tokenization for review text.
// Words inside a negation scope are prefixed with NegatedPrefix and every
// unigram is followed by the bigram/trigram it closes.

const (
	// DefaultDelimiters terminate a negation scope and are trimmed from words.
	DefaultDelimiters = "?.,!:;"

	// DefaultNegatedPrefix marks a unigram emitted inside a negation scope.
	DefaultNegatedPrefix = "not_"
)

// DefaultNegationMarkers returns the substrings that toggle negation scope.
func DefaultNegationMarkers() []string {
	return []string{"not", "n't", "no"}
}

// Transformer converts raw text into unigram, bigram and trigram features
// with negation-aware prefixing. The zero value is not usable; build one with
// NewTransformer or DefaultTransformer.
type Transformer struct {
	Delimiters      string
	NegationMarkers []string
	NegatedPrefix   string
	MaxN            int  // Largest n-gram emitted (1-3). Default: 3
	Normalize       bool // NFC-normalize input before splitting
}

// DefaultTransformer returns the transformer used for training and classification.
func DefaultTransformer() *Transformer {
	return &Transformer{
		Delimiters:      DefaultDelimiters,
		NegationMarkers: DefaultNegationMarkers(),
		NegatedPrefix:   DefaultNegatedPrefix,
		MaxN:            3,
		Normalize:       true,
	}
}

// NewTransformer creates a transformer emitting n-grams up to maxN.
func NewTransformer(maxN int, normalize bool) *Transformer {
	t := DefaultTransformer()
	if maxN < 1 || maxN > 3 {
		maxN = 3
	}
	t.MaxN = maxN
	t.Normalize = normalize
	return t
}

var defaultTransformer = DefaultTransformer()

// NegateSequence tokenizes text with the default transformer.
func NegateSequence(text string) []string {
	return defaultTransformer.NegateSequence(text)
}

// NegateSequence splits text on whitespace and returns the feature tokens in
// emission order: each unigram, then the bigram and trigram it completes.
//
// Negation toggles after any word containing a negation marker and resets
// after any word containing a delimiter. Both checks look at the word as
// written, before trimming and lowercasing. Words that trim to "" are still
// emitted, but an empty previous unigram does not start a bigram.
func (t *Transformer) NegateSequence(text string) []string {
	var tokens []string
	t.walk(text, func(token string, _ int) {
		tokens = append(tokens, token)
	})
	return tokens
}

// Unigrams returns only the unigram emissions of NegateSequence.
func (t *Transformer) Unigrams(text string) []string {
	var unigrams []string
	t.walk(text, func(token string, n int) {
		if n == 1 {
			unigrams = append(unigrams, token)
		}
	})
	return unigrams
}

func (t *Transformer) walk(text string, emit func(token string, n int)) {
	if t.Normalize {
		text = norm.NFC.String(text)
	}

	negation := false
	var prev, pprev string

	for _, word := range strings.Fields(text) {
		stripped := strings.ToLower(strings.Trim(word, t.Delimiters))

		current := stripped
		if negation {
			current = t.NegatedPrefix + stripped
		}
		emit(current, 1)

		if prev != "" {
			bigram := prev + " " + current
			if t.MaxN >= 2 {
				emit(bigram, 2)
			}
			if pprev != "" && t.MaxN >= 3 {
				emit(pprev+" "+bigram, 3)
			}
			pprev = prev
		}
		prev = current

		if t.negates(word) {
			negation = !negation
		}
		if strings.ContainsAny(word, t.Delimiters) {
			negation = false
		}
	}
}

func (t *Transformer) negates(word string) bool {
	for _, marker := range t.NegationMarkers {
		if strings.Contains(word, marker) {
			return true
		}
	}
	return false
}

// Unique returns tokens with duplicates removed, keeping first occurrences in order.
func Unique(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		unique = append(unique, token)
	}
	return unique
}
