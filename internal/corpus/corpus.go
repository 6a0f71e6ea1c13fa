// Package corpus loads labeled review corpora laid out as one file per
// document under pos/ and neg/ subdirectories.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/fractal-lba/sentiment/internal/eval"
)

// Class subdirectory names.
const (
	PositiveDir = "pos"
	NegativeDir = "neg"
)

// ErrMissingClassDir is returned when a corpus lacks pos/ or neg/.
var ErrMissingClassDir = errors.New("corpus class directory missing")

// Options configures Load.
type Options struct {
	Workers int // Zero means GOMAXPROCS
	Log     logrus.FieldLogger
	// ProgressInterval is the minimum time between progress log lines.
	ProgressInterval time.Duration
}

// Corpus holds the documents of both classes, each in file-name order.
type Corpus struct {
	Dir      string
	Positive []eval.Document
	Negative []eval.Document
	paths    []eval.Sample
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.Positive) + len(c.Negative)
}

// Texts returns the raw document texts per class.
func (c *Corpus) Texts() (positive, negative []string) {
	positive = make([]string, len(c.Positive))
	for i, d := range c.Positive {
		positive[i] = d.Text
	}
	negative = make([]string, len(c.Negative))
	for i, d := range c.Negative {
		negative[i] = d.Text
	}
	return positive, negative
}

// Documents returns positive documents followed by negative ones.
func (c *Corpus) Documents() []eval.Document {
	docs := make([]eval.Document, 0, c.Len())
	docs = append(docs, c.Positive...)
	return append(docs, c.Negative...)
}

// Samples returns the labeled file paths, positive files first.
func (c *Corpus) Samples() []eval.Sample {
	return append([]eval.Sample(nil), c.paths...)
}

// List returns the labeled sample paths of dir without reading them.
// Only regular files are listed, sorted by name within each class.
func List(dir string) ([]eval.Sample, error) {
	var samples []eval.Sample
	for _, class := range []struct {
		name     string
		positive bool
	}{
		{PositiveDir, true},
		{NegativeDir, false},
	} {
		classDir := filepath.Join(dir, class.name)
		entries, err := os.ReadDir(classDir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrMissingClassDir, classDir)
			}
			return nil, fmt.Errorf("failed to list %s: %w", classDir, err)
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			samples = append(samples, eval.Sample{
				Path:     filepath.Join(classDir, entry.Name()),
				Positive: class.positive,
			})
		}
	}
	return samples, nil
}

// Load lists dir and reads every document. Reads run concurrently; any read
// error aborts the load.
func Load(ctx context.Context, dir string, opts Options) (*Corpus, error) {
	samples, err := List(dir)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	progress := rate.NewLimiter(rate.Every(interval), 1)

	texts := make([]string, len(samples))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range samples {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(samples[i].Path)
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}
			texts[i] = string(data)

			n := done.Add(1)
			if opts.Log != nil && progress.Allow() {
				opts.Log.WithFields(logrus.Fields{
					"dir":   dir,
					"read":  n,
					"total": len(samples),
				}).Info("Loading corpus")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := &Corpus{Dir: dir, paths: samples}
	for i, s := range samples {
		doc := eval.Document{Text: texts[i], Positive: s.Positive}
		if s.Positive {
			c.Positive = append(c.Positive, doc)
		} else {
			c.Negative = append(c.Negative, doc)
		}
	}

	if opts.Log != nil {
		opts.Log.WithFields(logrus.Fields{
			"dir":      dir,
			"positive": len(c.Positive),
			"negative": len(c.Negative),
		}).Info("Corpus loaded")
	}
	return c, nil
}
