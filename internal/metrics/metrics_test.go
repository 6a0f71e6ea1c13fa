package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersCollectors(t *testing.T) {
	// Two instances must not collide since each owns its registry.
	a, b := New(), New()
	a.VocabularySize.Set(10)
	b.VocabularySize.Set(20)

	if got := testutil.ToFloat64(a.VocabularySize); got != 10 {
		t.Errorf("a vocabulary = %v, want 10", got)
	}
	if got := testutil.ToFloat64(b.VocabularySize); got != 20 {
		t.Errorf("b vocabulary = %v, want 20", got)
	}
}

func TestCounters(t *testing.T) {
	m := New()
	m.DocumentsLoaded.WithLabelValues(ClassLabel(true)).Add(3)
	m.DocumentsLoaded.WithLabelValues(ClassLabel(false)).Add(2)
	m.Predictions.WithLabelValues(ClassLabel(true)).Inc()

	if got := testutil.ToFloat64(m.DocumentsLoaded.WithLabelValues("positive")); got != 3 {
		t.Errorf("positive documents = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.DocumentsLoaded.WithLabelValues("negative")); got != 2 {
		t.Errorf("negative documents = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.Predictions); got != 1 {
		t.Errorf("prediction series = %d, want 1", got)
	}
}

func TestRecordEvaluation(t *testing.T) {
	m := New()
	m.RecordEvaluation(0.8, 0.9, 0.85, 85, 20)

	tests := map[string]float64{
		"precision": 0.8,
		"recall":    0.9,
		"f1":        0.85,
		"accuracy":  85,
		"samples":   20,
	}
	for metric, want := range tests {
		if got := testutil.ToFloat64(m.Evaluation.WithLabelValues(metric)); got != want {
			t.Errorf("%s = %v, want %v", metric, got, want)
		}
	}
}

func TestTime(t *testing.T) {
	m := New()
	m.Time("train")()

	if got := testutil.ToFloat64(m.PhaseDuration.WithLabelValues("train")); got < 0 {
		t.Errorf("duration = %v, want >= 0", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.VocabularySize.Set(42)

	path := filepath.Join(t.TempDir(), "sentiment.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	text := string(data)
	for _, want := range []string{"sentiment_vocabulary_size 42", "sentiment_last_success_timestamp_seconds"} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q:\n%s", want, text)
		}
	}
}
