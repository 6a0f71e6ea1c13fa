package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes one command line. The tracer provider is flushed even when the
// command fails.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if closeErr := a.close(ctx); err == nil {
		err = closeErr
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sentiment",
		Short: "Naive Bayes sentiment classifier with negation handling",
		Long: `Trains a binary Naive Bayes sentiment model on a pos/neg corpus,
selects features by mutual information, evaluates held-out data and
classifies new text. Models are kept in a file, Redis or Postgres store.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.finish()
		},
	}

	// Global flags
	f := &a.flags
	rootCmd.PersistentFlags().StringVarP(&f.configFile, "config", "c", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&f.backend, "store", "", "Model store backend: file, redis or postgres")
	rootCmd.PersistentFlags().StringVar(&f.modelDir, "model-dir", "", "Directory of the file store")
	rootCmd.PersistentFlags().IntVar(&f.workers, "workers", 0, "Concurrent readers and predictors (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&f.logFormat, "log-format", "", "Log format (text or json)")
	rootCmd.PersistentFlags().StringVar(&f.metricsFile, "metrics-textfile", "", "Write Prometheus metrics to this file on success")
	rootCmd.PersistentFlags().StringVar(&f.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC collector endpoint (empty disables tracing)")

	// Subcommands
	rootCmd.AddCommand(trainCmd(a))
	rootCmd.AddCommand(selectCmd(a))
	rootCmd.AddCommand(sweepCmd(a))
	rootCmd.AddCommand(evaluateCmd(a))
	rootCmd.AddCommand(crossvalCmd(a))
	rootCmd.AddCommand(classifyCmd(a))
	rootCmd.AddCommand(explainCmd(a))
	rootCmd.AddCommand(listCmd(a))
	rootCmd.AddCommand(copyCmd(a))

	return rootCmd
}
