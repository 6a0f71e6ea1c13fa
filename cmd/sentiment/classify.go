package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fractal-lba/sentiment/internal/classify"
	"github.com/fractal-lba/sentiment/internal/metrics"
)

// maxLineSize bounds one stdin document.
const maxLineSize = 1 << 20

// classifyCmd labels text with a stored model
func classifyCmd(a *app) *cobra.Command {
	var (
		name        string
		allFeatures bool
	)

	cmd := &cobra.Command{
		Use:   "classify [TEXT...]",
		Short: "Classify text with a stored model",
		Long: `Prints "positive" or "negative" for each argument. Without arguments
every line of standard input is classified.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			c, err := a.classifier(ctx, st, name, allFeatures)
			if err != nil {
				return err
			}
			memo, err := classify.NewMemo(c, a.cfg.Classify.MemoSize)
			if err != nil {
				return fmt.Errorf("failed to create memo: %w", err)
			}
			p := counted{memo, a.metrics}

			if len(args) > 0 {
				for _, text := range args {
					fmt.Fprintf(out, "%s\t%s\n", metrics.ClassLabel(p.Classify(text)), text)
				}
			} else if err := classifyLines(cmd.InOrStdin(), out, p); err != nil {
				return err
			}

			stats := memo.Stats()
			a.log.WithFields(logrus.Fields{
				"hits":     stats.Hits,
				"misses":   stats.Misses,
				"hit_rate": stats.HitRate,
			}).Debug("Memo stats")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", defaultModelName, "Model to classify with")
	cmd.Flags().BoolVar(&allFeatures, "all-features", false, "Ignore the stored feature set")

	return cmd
}

func classifyLines(r io.Reader, w io.Writer, p counted) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		fmt.Fprintln(w, metrics.ClassLabel(p.Classify(scanner.Text())))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// explainCmd prints the per-token breakdown of one decision
func explainCmd(a *app) *cobra.Command {
	var (
		name        string
		allFeatures bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "explain TEXT...",
		Short: "Show how each token contributes to a classification",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			c, err := a.classifier(ctx, st, name, allFeatures)
			if err != nil {
				return err
			}
			e := c.Explain(strings.Join(args, " "))

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(e)
			}

			fmt.Fprintf(out, "=== Explanation ===\n")
			fmt.Fprintf(out, "Text: %s\n", e.Text)
			fmt.Fprintf(out, "Decision: %s (confidence %.4g)\n", metrics.ClassLabel(e.Positive), e.Confidence)
			fmt.Fprintf(out, "Log scores: positive %.4f, negative %.4f\n", e.Score.Positive, e.Score.Negative)
			if e.Score.Degenerate {
				fmt.Fprintf(out, "No scorable tokens; defaulting to positive\n")
				return nil
			}
			fmt.Fprintf(out, "%-30s %12s %12s %12s\n", "token", "p(pos)", "p(neg)", "log ratio")
			for _, d := range e.Tokens {
				fmt.Fprintf(out, "%-30s %12.6f %12.6f %+12.4f\n", d.Token, d.Positive, d.Negative, d.Contribution)
			}
			if len(e.TopPositive) > 0 {
				fmt.Fprintf(out, "Top positive: %s\n", strings.Join(e.TopPositive, ", "))
			}
			if len(e.TopNegative) > 0 {
				fmt.Fprintf(out, "Top negative: %s\n", strings.Join(e.TopNegative, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", defaultModelName, "Model to explain with")
	cmd.Flags().BoolVar(&allFeatures, "all-features", false, "Ignore the stored feature set")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the explanation as JSON")

	return cmd
}
