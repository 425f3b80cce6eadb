package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tahyonline/mismisquote/internal/verify"
)

// verifyOptions holds the verify command options.
type verifyOptions struct {
	suite       string
	parallelism int
	flags       scanFlags
}

// newVerifyCmd creates the verify command.
func newVerifyCmd() *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify --suite FILE [flags] FILE...",
		Short: "Run a YAML suite of quote expectations",
		Long: `Verify a suite of quote expectations against reference files.

Each suite entry names a quote and whether it should be present or
absent; present expectations may demand a minimum score. Every quote is
scanned against every reference and judged by the best span found
anywhere.

Exit status is 0 when every expectation holds, 2 when any fails, 3 when
a reference cannot be read.

Examples:
  mismisquote verify --suite citations.yaml chapter1.txt chapter2.txt
  mismisquote verify --suite citations.yaml --policy edit-tolerant --json corpus/*.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.suite, "suite", "s", "", "Suite file (required)")
	_ = cmd.MarkFlagRequired("suite")
	cmd.Flags().IntVar(&opts.parallelism, "parallelism", 0, "Concurrent scans (default: CPU count)")
	opts.flags.register(cmd)

	return cmd
}

// runVerify executes the verify command.
func runVerify(ctx context.Context, cmd *cobra.Command, args []string, opts *verifyOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := opts.flags.merge(cmd, cfg); err != nil {
		return err
	}

	logger, cleanup := setupLogging(cfg)
	defer cleanup()

	out := opts.flags.newOutput(cmd)

	suite, err := verify.LoadSuite(opts.suite)
	if err != nil {
		return err
	}

	runner := verify.NewRunner(reportBar(cfg), opts.parallelism, logger,
		matcherOptions(cfg, opts.flags.sortByScore(), logger)...)

	report, err := runner.Run(ctx, suite, args)
	if err != nil {
		return err
	}

	logger.Info("verify complete",
		slog.String("suite", suite.Name),
		slog.Int("passed", report.Passed),
		slog.Int("failed", report.Failed),
		slog.Duration("elapsed", report.Duration))

	if opts.flags.jsonOut {
		if err := out.JSON(report); err != nil {
			return err
		}
	} else {
		out.RenderVerify(report)
	}

	if !report.AllPassed() {
		return errExpectationsFailed
	}
	return nil
}
