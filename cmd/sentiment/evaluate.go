package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/fractal-lba/sentiment/internal/corpus"
	"github.com/fractal-lba/sentiment/internal/eval"
	tracing "github.com/fractal-lba/sentiment/pkg/otel"
)

// sweepCmd picks the feature count with the best held-out accuracy
func sweepCmd(a *app) *cobra.Command {
	var (
		corpusDir string
		ratio     float64
		seed      int64
		ks        []int
		plotPath  string
		saveName  string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Find the best feature count on a train/validation split",
		Long: `Splits the corpus, trains on the training share and evaluates every
candidate K in feature-selection mode on the validation share. The K with the
highest accuracy wins; ties go to the smaller K. A K of 0 means the whole
vocabulary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if !cmd.Flags().Changed("ratio") {
				ratio = a.cfg.Eval.Ratio
			}
			if !cmd.Flags().Changed("seed") {
				seed = a.cfg.Eval.Seed
			}
			if !cmd.Flags().Changed("ks") {
				ks = a.cfg.Eval.Ks
			}
			if ratio <= 0 || ratio >= 1 {
				return fmt.Errorf("ratio must be in (0, 1), got %v", ratio)
			}

			c, err := a.loadCorpus(ctx, corpusDir)
			if err != nil {
				return err
			}
			trainDocs, validation := eval.SplitTrainTest(c.Documents(), ratio, seed)
			positive, negative := eval.Partition(trainDocs)
			m := a.train(ctx, positive, negative, a.cfg.TrainOptions())

			defer a.metrics.Time("sweep")()
			var result *eval.SweepResult
			err = tracing.Phase(ctx, "sweep", func(ctx context.Context, span trace.Span) error {
				var err error
				result, err = a.evaluator().Sweep(ctx, m, validation, ks)
				if err != nil {
					return err
				}
				span.SetAttributes(tracing.AttrFeaturesK.Int(result.Best.Features))
				a.recordEvaluation(ctx, &result.Best.Metrics)
				return nil
			})
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}
			a.metrics.SelectedFeatures.Set(float64(result.Best.Features))

			fmt.Fprintf(out, "=== Feature Sweep ===\n")
			fmt.Fprintf(out, "Train: %d documents, validation: %d documents, vocabulary: %d\n", len(trainDocs), len(validation), m.Len())
			fmt.Fprintf(out, "%10s %10s %10s %10s\n", "features", "accuracy", "f1", "precision")
			for _, p := range result.Points {
				fmt.Fprintf(out, "%10d %9.2f%% %10.4f %10.4f\n", p.Features, p.Metrics.Accuracy, p.Metrics.F1Score, p.Metrics.Precision)
			}
			fmt.Fprintf(out, "Best: %d features (%.2f%% accuracy)\n", result.Best.Features, result.Best.Metrics.Accuracy)

			if plotPath != "" {
				if err := eval.PlotSweep(result, plotPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "Plot written to %s\n", plotPath)
			}

			if saveName != "" {
				st, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer st.Close()

				checksum, err := a.saveModel(ctx, st, saveName, m.Snapshot(m.SelectFeatures(result.Best.Features)))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved model %q (sha256 %s)\n", saveName, checksum)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusDir, "corpus", "", "Corpus directory with pos/ and neg/ subdirectories")
	cmd.Flags().Float64Var(&ratio, "ratio", 0.8, "Share of documents used for training")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Shuffle seed of the split")
	cmd.Flags().IntSliceVar(&ks, "ks", nil, "Candidate feature counts (0 = whole vocabulary)")
	cmd.Flags().StringVar(&plotPath, "plot", "", "Write an accuracy/F1 plot (.png, .svg or .pdf)")
	cmd.Flags().StringVar(&saveName, "save", "", "Save the split model with the best feature set under this name")
	cmd.MarkFlagRequired("corpus")

	return cmd
}

// evaluateCmd scores a stored model on a labeled corpus
func evaluateCmd(a *app) *cobra.Command {
	var (
		name        string
		corpusDir   string
		allFeatures bool
		bootstrap   int
		compare     string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a stored model on a held-out corpus",
		Long: `Classifies every file of DIR/pos and DIR/neg with a stored model and
reports precision, recall, F1 and accuracy. A model saved with a feature set
is evaluated in feature-selection mode unless --all-features is given.
--compare runs a McNemar test against a second stored model.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if !cmd.Flags().Changed("bootstrap") {
				bootstrap = a.cfg.Eval.Bootstrap
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			first, err := a.classifier(ctx, st, name, allFeatures)
			if err != nil {
				return err
			}
			samples, err := corpus.List(corpusDir)
			if err != nil {
				return err
			}

			defer a.metrics.Time("evaluate")()
			evaluator := a.evaluator()
			var outcomes []eval.Outcome
			err = tracing.Phase(ctx, "evaluate", func(ctx context.Context, span trace.Span) error {
				span.SetAttributes(tracing.AttrModelName.String(name))
				var err error
				outcomes, err = evaluator.PredictSamples(ctx, counted{first, a.metrics}, samples)
				return err
			})
			if err != nil {
				return fmt.Errorf("evaluation failed: %w", err)
			}

			metrics := eval.Tally(outcomes)
			a.recordEvaluation(ctx, &metrics)
			a.log.WithFields(logrus.Fields{
				"model":    name,
				"samples":  metrics.NumSamples,
				"accuracy": metrics.Accuracy,
				"f1":       metrics.F1Score,
			}).Info("Evaluation complete")

			fmt.Fprintf(out, "=== Evaluation: %s ===\n", name)
			if first.FeatureSelection() {
				fmt.Fprintf(out, "Mode: feature selection\n")
			} else {
				fmt.Fprintf(out, "Mode: unfiltered\n")
			}
			printMetrics(out, &metrics)

			if bootstrap > 0 {
				ci := eval.Bootstrap(outcomes, bootstrap, a.cfg.Eval.Seed)
				fmt.Fprintf(out, "Bootstrap (%d resamples, 95%%):\n", ci.NumResamples)
				fmt.Fprintf(out, "  Accuracy: [%.2f%%, %.2f%%] (SE %.2f)\n", ci.AccuracyCI[0], ci.AccuracyCI[1], ci.AccuracySE)
				fmt.Fprintf(out, "  F1:       [%.4f, %.4f] (SE %.4f)\n", ci.F1CI[0], ci.F1CI[1], ci.F1SE)
			}

			if compare != "" {
				second, err := a.classifier(ctx, st, compare, allFeatures)
				if err != nil {
					return err
				}
				other, err := evaluator.PredictSamples(ctx, second, samples)
				if err != nil {
					return fmt.Errorf("evaluation of %q failed: %w", compare, err)
				}
				test, err := eval.McNemarTest(outcomes, other)
				if err != nil {
					return err
				}
				otherMetrics := eval.Tally(other)

				fmt.Fprintf(out, "=== Comparison: %s vs %s ===\n", name, compare)
				fmt.Fprintf(out, "Accuracy: %.2f%% vs %.2f%%\n", metrics.Accuracy, otherMetrics.Accuracy)
				fmt.Fprintf(out, "Disagreements: %d only %s, %d only %s\n", test.OnlyFirst, name, test.OnlySecond, compare)
				fmt.Fprintf(out, "%s: statistic %.4f, p-value %.4f", test.TestName, test.TestStatistic, test.PValue)
				if test.Significant {
					fmt.Fprintf(out, " (significant)\n")
				} else {
					fmt.Fprintf(out, " (not significant)\n")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", defaultModelName, "Model to evaluate")
	cmd.Flags().StringVar(&corpusDir, "corpus", "", "Held-out corpus directory with pos/ and neg/ subdirectories")
	cmd.Flags().BoolVar(&allFeatures, "all-features", false, "Ignore the stored feature set")
	cmd.Flags().IntVar(&bootstrap, "bootstrap", 0, "Bootstrap resamples for confidence intervals (0 disables)")
	cmd.Flags().StringVar(&compare, "compare", "", "Second model to compare against with McNemar's test")
	cmd.MarkFlagRequired("corpus")

	return cmd
}

// crossvalCmd runs k-fold cross-validation on a corpus
func crossvalCmd(a *app) *cobra.Command {
	var (
		corpusDir string
		folds     int
		k         int
		seed      int64
	)

	cmd := &cobra.Command{
		Use:   "crossval",
		Short: "Run k-fold cross-validation on a corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if !cmd.Flags().Changed("folds") {
				folds = a.cfg.Eval.Folds
			}
			if !cmd.Flags().Changed("seed") {
				seed = a.cfg.Eval.Seed
			}

			c, err := a.loadCorpus(ctx, corpusDir)
			if err != nil {
				return err
			}

			defer a.metrics.Time("crossval")()
			var cv *eval.CrossValidation
			err = tracing.Phase(ctx, "crossval", func(ctx context.Context, span trace.Span) error {
				span.SetAttributes(tracing.AttrFeaturesK.Int(k))
				var err error
				cv, err = a.evaluator().CrossValidate(ctx, c.Documents(), eval.CrossValidationOptions{
					Folds: folds,
					K:     k,
					Seed:  seed,
					Train: a.cfg.TrainOptions(),
				})
				return err
			})
			if err != nil {
				return fmt.Errorf("cross-validation failed: %w", err)
			}
			a.metrics.Evaluation.WithLabelValues("accuracy").Set(cv.MeanAccuracy)
			a.metrics.Evaluation.WithLabelValues("f1").Set(cv.MeanF1)

			fmt.Fprintf(out, "=== Cross-Validation (%d folds) ===\n", len(cv.Folds))
			for i, m := range cv.Folds {
				fmt.Fprintf(out, "Fold %d: accuracy %.2f%%, f1 %.4f (%d samples)\n", i+1, m.Accuracy, m.F1Score, m.NumSamples)
			}
			fmt.Fprintf(out, "Accuracy: %.2f%% ± %.2f\n", cv.MeanAccuracy, cv.StdAccuracy)
			fmt.Fprintf(out, "F1:       %.4f ± %.4f\n", cv.MeanF1, cv.StdF1)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusDir, "corpus", "", "Corpus directory with pos/ and neg/ subdirectories")
	cmd.Flags().IntVar(&folds, "folds", 5, "Number of folds")
	cmd.Flags().IntVar(&k, "k", 0, "Top-K features per fold (0 classifies unfiltered)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Shuffle seed")
	cmd.MarkFlagRequired("corpus")

	return cmd
}
