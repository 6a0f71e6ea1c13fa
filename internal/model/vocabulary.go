package model

// Vocabulary interns tokens to dense integer IDs so that per-class counts can
// live in plain slices indexed by ID.
type Vocabulary struct {
	ids    map[string]int
	tokens []string
}

// NewVocabulary creates an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{ids: make(map[string]int)}
}

func newVocabularyWithCapacity(n int) *Vocabulary {
	return &Vocabulary{
		ids:    make(map[string]int, n),
		tokens: make([]string, 0, n),
	}
}

// Intern returns the ID of token, assigning the next free ID if it is new.
func (v *Vocabulary) Intern(token string) int {
	if id, ok := v.ids[token]; ok {
		return id
	}
	id := len(v.tokens)
	v.ids[token] = id
	v.tokens = append(v.tokens, token)
	return id
}

// ID looks up the ID of token.
func (v *Vocabulary) ID(token string) (int, bool) {
	id, ok := v.ids[token]
	return id, ok
}

// Token returns the token with the given ID.
func (v *Vocabulary) Token(id int) string {
	return v.tokens[id]
}

// Len returns the number of interned tokens.
func (v *Vocabulary) Len() int {
	return len(v.tokens)
}
