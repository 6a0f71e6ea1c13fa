package classify

import (
	"math"
	"sync"
	"testing"

	"github.com/fractal-lba/sentiment/internal/model"
)

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

// movieModel trains on a small corpus where "great" leans positive and
// "terrible" leans negative.
func movieModel() *model.Model {
	positive := append(repeat("this movie was great", 8), "this movie was terrible", "this movie was fine")
	negative := append(repeat("this movie was terrible", 9), "this movie was great")
	return model.Train(positive, negative, model.DefaultOptions())
}

func TestClassify(t *testing.T) {
	c := New(movieModel())

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "positive review", text: "This movie was great", want: true},
		{name: "negative review", text: "This movie was terrible", want: false},
		{name: "negated negative", text: "This movie was not terrible", want: true},
		{name: "single positive word", text: "great!", want: true},
		{name: "single negative word", text: "terrible.", want: false},
		{name: "pruned word only", text: "fine", want: true},
		{name: "unknown words only", text: "zzz qqq", want: true},
		{name: "empty text", text: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.text); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestScore(t *testing.T) {
	m := movieModel()
	if m.TotalPositive() != 177 || m.TotalNegative() != 177 {
		t.Fatalf("totals = (%d, %d), want (177, 177)", m.TotalPositive(), m.TotalNegative())
	}
	c := New(m)

	s := c.Score("great")
	wantPos := math.Log(9.0 / 354)
	wantNeg := math.Log(2.0 / 354)
	if math.Abs(s.Positive-wantPos) > 1e-12 || math.Abs(s.Negative-wantNeg) > 1e-12 {
		t.Errorf("Score(great) = (%v, %v), want (%v, %v)", s.Positive, s.Negative, wantPos, wantNeg)
	}
	if s.Tokens != 1 || s.Degenerate {
		t.Errorf("Score(great) tokens=%d degenerate=%v", s.Tokens, s.Degenerate)
	}

	// The repeated unigram is scored once; the unknown bigram is dropped.
	if twice := c.Score("great great"); twice != s {
		t.Errorf("Score(great great) = %+v, want %+v", twice, s)
	}

	if got := c.Score("zzz"); !got.Degenerate || got.Tokens != 0 {
		t.Errorf("Score(zzz) = %+v, want degenerate", got)
	}
}

func TestNegationChangesScore(t *testing.T) {
	c := New(movieModel())

	plain := c.Score("terrible")
	negated := c.Score("not terrible")
	if plain.IsPositive() {
		t.Error("terrible should be negative")
	}
	if !negated.IsPositive() {
		t.Error("not terrible should be positive")
	}
	if negated.Positive-negated.Negative <= plain.Positive-plain.Negative {
		t.Error("negation should move the score toward positive")
	}
}

func TestSmoothedProbability(t *testing.T) {
	tests := []struct {
		count, total int
	}{
		{0, 1}, {0, 177}, {9, 177}, {176, 177},
	}
	for _, tt := range tests {
		p := SmoothedProbability(tt.count, tt.total)
		if p <= 0 || p >= 1 {
			t.Errorf("SmoothedProbability(%d, %d) = %v, want within (0, 1)", tt.count, tt.total, p)
		}
	}
}

func TestDegenerateModel(t *testing.T) {
	tests := []struct {
		name     string
		positive []string
		negative []string
	}{
		{name: "empty", positive: nil, negative: nil},
		{name: "positive only", positive: repeat("good film", 3)},
		{name: "negative only", negative: repeat("bad film", 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := model.DefaultOptions()
			opts.CrossIncrement = false
			c := New(model.Train(tt.positive, tt.negative, opts))

			for _, text := range []string{"good film", "bad film", ""} {
				if !c.Classify(text) {
					t.Errorf("Classify(%q) = false, want true on degenerate model", text)
				}
			}
		})
	}
}

func TestWithFeatures(t *testing.T) {
	m := movieModel()

	t.Run("selected tokens only", func(t *testing.T) {
		c := New(m, WithFeatures(m.NewFeatureSet([]string{"great", "terrible"})))
		if !c.FeatureSelection() {
			t.Fatal("FeatureSelection() = false")
		}
		s := c.Score("This movie was great")
		if s.Tokens != 1 {
			t.Errorf("Tokens = %d, want 1", s.Tokens)
		}
		if !s.IsPositive() {
			t.Error("great should be positive")
		}
		if c.Classify("This movie was terrible") {
			t.Error("terrible should be negative")
		}
	})

	t.Run("no selected token present", func(t *testing.T) {
		c := New(m, WithFeatures(m.NewFeatureSet([]string{"terrible"})))
		if !c.Classify("This movie was great") {
			t.Error("expected true when no selected token is present")
		}
	})

	t.Run("explicit top-k selection", func(t *testing.T) {
		c := New(m, WithFeatures(m.SelectFeatures(10)))
		if !c.Classify("This movie was great") || c.Classify("This movie was terrible") {
			t.Error("top-10 feature classifier disagrees on the clear cases")
		}
	})
}

func TestExplainMatchesClassify(t *testing.T) {
	c := New(movieModel())

	texts := []string{
		"This movie was great",
		"This movie was terrible",
		"This movie was not terrible",
		"zzz",
		"",
	}
	for _, text := range texts {
		e := c.Explain(text)
		if e.Positive != c.Classify(text) {
			t.Errorf("Explain(%q).Positive = %v, Classify = %v", text, e.Positive, !e.Positive)
		}
		if e.Score != c.Score(text) {
			t.Errorf("Explain(%q).Score = %+v, Score = %+v", text, e.Score, c.Score(text))
		}
		if e.Confidence < 1 {
			t.Errorf("Explain(%q).Confidence = %v, want >= 1", text, e.Confidence)
		}
	}
}

func TestExplainDetails(t *testing.T) {
	c := New(movieModel())
	e := c.Explain("This movie was great")

	if len(e.Tokens) != e.Score.Tokens {
		t.Fatalf("len(Tokens) = %d, Score.Tokens = %d", len(e.Tokens), e.Score.Tokens)
	}
	for i := 1; i < len(e.Tokens); i++ {
		if math.Abs(e.Tokens[i].Contribution) > math.Abs(e.Tokens[i-1].Contribution) {
			t.Errorf("tokens not sorted by contribution at %d", i)
		}
	}

	var sumPos, sumNeg float64
	for _, d := range e.Tokens {
		if d.Positive <= 0 || d.Positive >= 1 || d.Negative <= 0 || d.Negative >= 1 {
			t.Errorf("token %q probabilities (%v, %v) outside (0, 1)", d.Token, d.Positive, d.Negative)
		}
		sumPos += math.Log(d.Positive)
		sumNeg += math.Log(d.Negative)
	}
	if math.Abs(sumPos-e.Score.Positive) > 1e-9 || math.Abs(sumNeg-e.Score.Negative) > 1e-9 {
		t.Errorf("token sums (%v, %v) != score (%v, %v)", sumPos, sumNeg, e.Score.Positive, e.Score.Negative)
	}

	if want := math.Exp(math.Abs(e.Score.Positive - e.Score.Negative)); math.Abs(e.Confidence-want) > 1e-9 {
		t.Errorf("Confidence = %v, want %v", e.Confidence, want)
	}
	if len(e.TopPositive) == 0 || e.TopPositive[0] != "great" {
		t.Errorf("TopPositive = %q, want great first", e.TopPositive)
	}
	if len(e.TopPositive) > TopIndicators || len(e.TopNegative) > TopIndicators {
		t.Errorf("indicator lists exceed %d", TopIndicators)
	}
}

func TestMemo(t *testing.T) {
	c := New(movieModel())
	memo, err := NewMemo(c, 2)
	if err != nil {
		t.Fatalf("NewMemo failed: %v", err)
	}

	texts := []string{"This movie was great", "This movie was terrible", "great", "This movie was great"}
	for _, text := range texts {
		if got, want := memo.Classify(text), c.Classify(text); got != want {
			t.Errorf("memo.Classify(%q) = %v, want %v", text, got, want)
		}
	}

	// Capacity 2: the repeated text was evicted before it came back.
	stats := memo.Stats()
	if stats.Hits != 0 || stats.Misses != uint64(len(texts)) {
		t.Errorf("stats = %+v, want 0 hits and %d misses", stats, len(texts))
	}
	if stats.Size > 2 {
		t.Errorf("memo size %d exceeds capacity 2", stats.Size)
	}

	if memo.Classify("great") != c.Classify("great") {
		t.Error("cached answer differs")
	}
	if after := memo.Stats(); after.Hits != stats.Hits+1 {
		t.Errorf("expected a cache hit, hits = %d", after.Hits)
	}
}

func TestMemoConcurrent(t *testing.T) {
	c := New(movieModel())
	memo, err := NewMemo(c, 0)
	if err != nil {
		t.Fatalf("NewMemo failed: %v", err)
	}

	texts := []string{"This movie was great", "This movie was terrible", "not terrible", "zzz"}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				text := texts[j%len(texts)]
				if memo.Classify(text) != c.Classify(text) {
					t.Errorf("concurrent memo answer differs for %q", text)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func BenchmarkClassify(b *testing.B) {
	c := New(movieModel())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Classify("This movie was not terrible, it was great")
	}
}
