package model

import (
	"time"

	"github.com/fractal-lba/sentiment/pkg/text"
)

// Options controls how documents are counted.
type Options struct {
	// Prune drops tokens seen at most once in both classes.
	Prune bool

	// CrossIncrement counts "not_"+token in the opposite class whenever token
	// appears in a document.
	CrossIncrement bool

	// Transformer tokenizes documents. Nil means text.DefaultTransformer().
	Transformer *text.Transformer
}

// DefaultOptions returns the options of the reference training run.
func DefaultOptions() Options {
	return Options{
		Prune:          true,
		CrossIncrement: true,
		Transformer:    text.DefaultTransformer(),
	}
}

// Builder accumulates document frequencies from a labeled corpus. It is not
// safe for concurrent use; Build produces the immutable Model.
type Builder struct {
	opts    Options
	vocab   *Vocabulary
	pos     []int
	neg     []int
	posDocs int
	negDocs int
}

// NewBuilder creates a builder with the given options.
func NewBuilder(opts Options) *Builder {
	if opts.Transformer == nil {
		opts.Transformer = text.DefaultTransformer()
	}
	return &Builder{
		opts:  opts,
		vocab: NewVocabulary(),
	}
}

// Add counts every distinct token of document once for its class.
func (b *Builder) Add(document string, positive bool) {
	tokens := text.Unique(b.opts.Transformer.NegateSequence(document))

	if positive {
		b.posDocs++
	} else {
		b.negDocs++
	}

	prefix := b.opts.Transformer.NegatedPrefix
	for _, token := range tokens {
		if positive {
			b.pos[b.intern(token)]++
			if b.opts.CrossIncrement {
				b.neg[b.intern(prefix+token)]++
			}
		} else {
			b.neg[b.intern(token)]++
			if b.opts.CrossIncrement {
				b.pos[b.intern(prefix+token)]++
			}
		}
	}
}

func (b *Builder) intern(token string) int {
	id := b.vocab.Intern(token)
	if id == len(b.pos) {
		b.pos = append(b.pos, 0)
		b.neg = append(b.neg, 0)
	}
	return id
}

// Build prunes (when enabled) and returns the trained model. The builder
// must not be used afterwards.
func (b *Builder) Build() *Model {
	card := Card{
		TrainedAt:      time.Now().UTC(),
		PositiveDocs:   b.posDocs,
		NegativeDocs:   b.negDocs,
		Pruned:         b.opts.Prune,
		CrossIncrement: b.opts.CrossIncrement,
		MaxN:           b.opts.Transformer.MaxN,
		Normalize:      b.opts.Transformer.Normalize,
		NegatedPrefix:  b.opts.Transformer.NegatedPrefix,
	}

	if !b.opts.Prune {
		return newModel(b.vocab, b.pos, b.neg, card)
	}

	vocab := NewVocabulary()
	var pos, neg []int
	for id, token := range b.vocab.tokens {
		if b.pos[id] <= 1 && b.neg[id] <= 1 {
			continue
		}
		vocab.Intern(token)
		pos = append(pos, b.pos[id])
		neg = append(neg, b.neg[id])
	}
	return newModel(vocab, pos, neg, card)
}

// Train builds a model from positive and negative documents.
func Train(positive, negative []string, opts Options) *Model {
	b := NewBuilder(opts)
	for _, doc := range positive {
		b.Add(doc, true)
	}
	for _, doc := range negative {
		b.Add(doc, false)
	}
	return b.Build()
}
