package classify

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoSize is the number of decisions a Memo keeps by default.
const DefaultMemoSize = 4096

// Memo caches Classify decisions keyed by the raw input text.
//
// The CLI classifies stdin line by line, where review corpora repeat
// boilerplate lines often enough for the cache to pay off. Memo is safe for
// concurrent use and gives exactly the same answers as the wrapped classifier.
type Memo struct {
	classifier *Classifier
	cache      *lru.Cache[string, bool]
	hits       atomic.Uint64
	misses     atomic.Uint64
}

// NewMemo wraps c with an LRU of the given size. size <= 0 uses
// DefaultMemoSize.
func NewMemo(c *Classifier, size int) (*Memo, error) {
	if size <= 0 {
		size = DefaultMemoSize
	}
	cache, err := lru.New[string, bool](size)
	if err != nil {
		return nil, err
	}
	return &Memo{classifier: c, cache: cache}, nil
}

// Classify returns the cached decision for text, computing it on a miss.
func (m *Memo) Classify(text string) bool {
	if positive, ok := m.cache.Get(text); ok {
		m.hits.Add(1)
		return positive
	}
	m.misses.Add(1)

	positive := m.classifier.Classify(text)
	m.cache.Add(text, positive)
	return positive
}

// MemoStats reports cache effectiveness.
type MemoStats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hit_rate"`
}

// Stats returns current counters.
func (m *Memo) Stats() MemoStats {
	hits, misses := m.hits.Load(), m.misses.Load()
	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return MemoStats{
		Hits:    hits,
		Misses:  misses,
		Size:    m.cache.Len(),
		HitRate: hitRate,
	}
}
