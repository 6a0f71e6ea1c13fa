package corpus

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for _, sub := range []string{PositiveDir, NegativeDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatalf("failed to create %s: %v", sub, err)
		}
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"pos/b.txt": "loved it",
		"pos/a.txt": "great movie",
		"neg/c.txt": "terrible\nmovie",
	})
	// Subdirectories are not documents.
	if err := os.Mkdir(filepath.Join(dir, PositiveDir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	c, err := Load(context.Background(), dir, Options{Workers: 2, Log: logger})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Len() != 3 || len(c.Positive) != 2 || len(c.Negative) != 1 {
		t.Fatalf("loaded (%d pos, %d neg), want (2, 1)", len(c.Positive), len(c.Negative))
	}
	if c.Positive[0].Text != "great movie" || c.Positive[1].Text != "loved it" {
		t.Errorf("positive documents not in file-name order: %+v", c.Positive)
	}
	if c.Negative[0].Text != "terrible\nmovie" || c.Negative[0].Positive {
		t.Errorf("negative document = %+v", c.Negative[0])
	}

	pos, neg := c.Texts()
	if len(pos) != 2 || len(neg) != 1 || pos[0] != "great movie" {
		t.Errorf("Texts() = %q, %q", pos, neg)
	}

	samples := c.Samples()
	if len(samples) != 3 || !samples[0].Positive || samples[2].Positive {
		t.Errorf("Samples() = %+v", samples)
	}
	if filepath.Base(samples[0].Path) != "a.txt" {
		t.Errorf("first sample = %s, want a.txt", samples[0].Path)
	}

	docs := c.Documents()
	if len(docs) != 3 || !docs[0].Positive || docs[2].Positive {
		t.Errorf("Documents() = %+v", docs)
	}
}

func TestLoadMissingClassDir(t *testing.T) {
	tests := []struct {
		name    string
		missing string
	}{
		{name: "no pos", missing: PositiveDir},
		{name: "no neg", missing: NegativeDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeCorpus(t, nil)
			if err := os.Remove(filepath.Join(dir, tt.missing)); err != nil {
				t.Fatal(err)
			}

			_, err := Load(context.Background(), dir, Options{})
			if !errors.Is(err, ErrMissingClassDir) {
				t.Errorf("Load error = %v, want ErrMissingClassDir", err)
			}
		})
	}
}

func TestLoadEmptyCorpus(t *testing.T) {
	c, err := Load(context.Background(), writeCorpus(t, nil), Options{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestLoadCancelled(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"pos/a.txt": "a", "neg/b.txt": "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Load(ctx, dir, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load error = %v, want context.Canceled", err)
	}
}

func TestList(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"pos/2.txt": "x",
		"pos/1.txt": "y",
		"neg/3.txt": "z",
	})

	samples, err := List(dir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []struct {
		name     string
		positive bool
	}{
		{"1.txt", true}, {"2.txt", true}, {"3.txt", false},
	}
	if len(samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(samples), len(want))
	}
	for i, w := range want {
		if filepath.Base(samples[i].Path) != w.name || samples[i].Positive != w.positive {
			t.Errorf("sample %d = %+v, want %s/%v", i, samples[i], w.name, w.positive)
		}
	}
}
