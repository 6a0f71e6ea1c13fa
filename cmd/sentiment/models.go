package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/fractal-lba/sentiment/internal/store"
	tracing "github.com/fractal-lba/sentiment/pkg/otel"
)

const defaultModelName = "default"

// trainCmd counts a corpus into a new model
func trainCmd(a *app) *cobra.Command {
	var (
		corpusDir string
		name      string
		noPrune   bool
		noCross   bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model on a pos/neg corpus directory",
		Long: `Reads every file of DIR/pos and DIR/neg, counts unigrams and bigrams
per document with negation scopes marked, prunes rare tokens and saves the
model to the configured store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			c, err := a.loadCorpus(ctx, corpusDir)
			if err != nil {
				return err
			}

			opts := a.cfg.TrainOptions()
			if noPrune {
				opts.Prune = false
			}
			if noCross {
				opts.CrossIncrement = false
			}
			positive, negative := c.Texts()
			m := a.train(ctx, positive, negative, opts)

			checksum, err := a.saveModel(ctx, st, name, m.Snapshot(nil))
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "=== Training ===\n")
			fmt.Fprintf(out, "Documents: %d positive, %d negative\n", len(positive), len(negative))
			fmt.Fprintf(out, "Vocabulary: %d tokens\n", m.Len())
			fmt.Fprintf(out, "Totals: %d positive, %d negative\n", m.TotalPositive(), m.TotalNegative())
			fmt.Fprintf(out, "Saved model %q (sha256 %s)\n", name, checksum)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusDir, "corpus", "", "Corpus directory with pos/ and neg/ subdirectories")
	cmd.Flags().StringVar(&name, "name", defaultModelName, "Model name")
	cmd.Flags().BoolVar(&noPrune, "no-prune", false, "Keep tokens seen at most once per class")
	cmd.Flags().BoolVar(&noCross, "no-cross", false, "Do not count negated tokens in the opposite class")
	cmd.MarkFlagRequired("corpus")

	return cmd
}

// selectCmd keeps the top-K tokens by mutual information
func selectCmd(a *app) *cobra.Command {
	var (
		name    string
		outName string
		k       int
		show    int
		compact bool
	)

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select the top-K features of a model by mutual information",
		Long: `Ranks every token of a stored model by mutual information with the
class label and saves the model with the top K tokens as its feature set.
With --compact the saved model holds only those tokens and its totals are
recomputed over them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if outName == "" {
				outName = name
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			m, _, err := a.loadModel(ctx, st, name)
			if err != nil {
				return err
			}

			defer a.metrics.Time("select")()
			_, span := tracing.StartSpan(ctx, "select", tracing.AttrFeaturesK.Int(k))
			ranked := m.RankFeatures()
			fs := m.SelectRanked(ranked, k)
			span.End()
			a.metrics.SelectedFeatures.Set(float64(fs.Len()))

			snapshot := m.Snapshot(fs)
			if compact {
				snapshot = m.Restrict(fs).Snapshot(nil)
			}
			checksum, err := a.saveModel(ctx, st, outName, snapshot)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "=== Feature Selection ===\n")
			fmt.Fprintf(out, "Vocabulary: %d tokens\n", m.Len())
			fmt.Fprintf(out, "Selected: %d tokens\n", fs.Len())
			for i := 0; i < show && i < len(ranked) && i < fs.Len(); i++ {
				fmt.Fprintf(out, "  %3d. %-30s %.6f\n", i+1, ranked[i].Token, ranked[i].Score)
			}
			fmt.Fprintf(out, "Saved model %q (sha256 %s)\n", outName, checksum)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", defaultModelName, "Model to select from")
	cmd.Flags().StringVar(&outName, "out", "", "Name of the saved model (defaults to --name)")
	cmd.Flags().IntVar(&k, "k", 0, "Number of features to keep (0 or more than the vocabulary keeps all)")
	cmd.Flags().IntVar(&show, "show", 10, "Print this many top-ranked tokens")
	cmd.Flags().BoolVar(&compact, "compact", false, "Drop unselected tokens and recompute totals")
	cmd.MarkFlagRequired("k")

	return cmd
}

// listCmd prints stored model names
func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			names, err := st.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list models: %w", err)
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// copyCmd moves a model between stores and verifies its checksum
func copyCmd(a *app) *cobra.Command {
	var (
		name string
		to   store.Options
	)

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy a model to another store",
		Long: `Copies a model from the configured store to the target store, reads
it back and verifies that both copies have the same checksum. Unset target
options are taken from the configured store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			target := mergeStoreOptions(to, a.cfg.StoreOptions())
			if target == a.cfg.StoreOptions() {
				return errors.New("target store is the configured store")
			}

			var checksum string
			err := tracing.Phase(ctx, "copy", func(ctx context.Context, span trace.Span) error {
				span.SetAttributes(tracing.AttrModelName.String(name))

				src, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer src.Close()

				dst, err := store.Open(ctx, target)
				if err != nil {
					return fmt.Errorf("failed to open target store: %w", err)
				}
				defer dst.Close()

				checksum, err = store.Copy(ctx, src, dst, name)
				return err
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Copied model %q to %s store (sha256 %s)\n", name, storeBackend(target), checksum)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", defaultModelName, "Model to copy")
	cmd.Flags().StringVar(&to.Backend, "to-store", "", "Target backend: file, redis or postgres")
	cmd.Flags().StringVar(&to.Dir, "to-dir", "", "Target directory (file backend)")
	cmd.Flags().StringVar(&to.RedisAddr, "to-redis-addr", "", "Target Redis address")
	cmd.Flags().IntVar(&to.RedisDB, "to-redis-db", 0, "Target Redis database")
	cmd.Flags().StringVar(&to.PostgresConn, "to-postgres-conn", "", "Target Postgres connection string")

	return cmd
}

// mergeStoreOptions fills the zero fields of target from base.
func mergeStoreOptions(target, base store.Options) store.Options {
	if target.Backend == "" {
		target.Backend = base.Backend
	}
	if target.Dir == "" {
		target.Dir = base.Dir
	}
	if target.RedisAddr == "" {
		target.RedisAddr = base.RedisAddr
		target.RedisPassword = base.RedisPassword
	}
	if target.RedisDB == 0 {
		target.RedisDB = base.RedisDB
	}
	if target.PostgresConn == "" {
		target.PostgresConn = base.PostgresConn
	}
	return target
}

func storeBackend(opts store.Options) string {
	if opts.Backend == "" {
		return store.BackendFile
	}
	return opts.Backend
}
