package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/tahyonline/mismisquote/internal/telemetry"
	"github.com/tahyonline/mismisquote/pkg/matcher"
	"github.com/tahyonline/mismisquote/pkg/version"
)

// scanOptions holds the scan command options.
type scanOptions struct {
	quote string
	flags scanFlags
}

// newScanCmd creates the scan command.
func newScanCmd() *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan --quote STRING [flags] [FILE...]",
		Short: "Scan reference files for a quote",
		Long: `Scan reference texts for a quote and report every passage similar
enough to cross the report threshold, with byte offsets and a score.

With no FILE, or with - as the only file, the reference is read from
stdin. Multiple files are scanned in parallel.

Exit status is 0 when at least one match was found, 1 when none was
(the grep convention), 2 on validation or config errors, 3 on I/O
errors.

Examples:
  # One file, default near-symbol policy
  mismisquote scan --quote "ask not what your country" speech.txt

  # Catch sloppier citations across many drafts
  mismisquote scan --quote "ask not what your country" \
    --policy edit-tolerant --threshold 0.6 drafts/*.txt

  # Pipe a candidate text through stdin
  pbpaste | mismisquote scan --quote "to be or not to be" -`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.quote, "quote", "", "Quote to scan for (required)")
	_ = cmd.MarkFlagRequired("quote")
	opts.flags.register(cmd)

	return cmd
}

// runScan executes the scan command.
func runScan(ctx context.Context, cmd *cobra.Command, args []string, opts *scanOptions) error {
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

	m, err := matcher.New(opts.quote, matcherOptions(cfg, opts.flags.sortByScore(), logger)...)
	if err != nil {
		return err
	}

	// History is best effort: a broken store logs a warning and the scan
	// carries on. Disabled telemetry leaves the collector nil, which every
	// collector method tolerates.
	var collector *telemetry.Collector
	if cfg.Telemetry.Enabled {
		store, serr := telemetry.OpenStore(historyPath(cfg))
		if serr != nil {
			logger.Warn("history store unavailable", slog.String("error", serr.Error()))
		} else {
			defer store.Close()
		}
		collector = telemetry.NewCollector(store, logger)
		defer collector.Close()
	}

	start := time.Now()
	results, err := scanReferences(ctx, cmd, m, args)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	var symbols, unknown, matches int
	best := 0.0
	for _, res := range results {
		symbols += res.Symbols
		unknown += res.Unknown
		matches += len(res.Matches)
		if s := res.BestScore(); s > best {
			best = s
		}
	}

	collector.Record(telemetry.Run{
		Version:     version.Version,
		Policy:      m.Policy(),
		Combine:     cfg.Scan.Combine,
		Threshold:   m.Threshold(),
		Granularity: m.Granularity(),
		QueryLength: m.QueryLength(),
		Files:       len(results),
		Symbols:     symbols,
		Unknown:     unknown,
		Matches:     matches,
		BestScore:   best,
		Duration:    elapsed,
		Quote:       opts.quote,
	})

	logger.Info("scan complete",
		slog.Int("files", len(results)),
		slog.Int("matches", matches),
		slog.Float64("best_score", best),
		slog.Duration("elapsed", elapsed))

	if opts.flags.jsonOut {
		if err := out.JSON(scanJSON{
			Quote:     opts.quote,
			Policy:    m.Policy(),
			Threshold: m.Threshold(),
			Matches:   matches,
			Results:   results,
			ElapsedMS: elapsed.Milliseconds(),
		}); err != nil {
			return err
		}
	} else {
		out.RenderResults(results, elapsed)
	}

	if matches == 0 {
		return errNoMatches
	}
	return nil
}

// scanJSON is the machine-readable scan report.
type scanJSON struct {
	Quote     string            `json:"quote"`
	Policy    string            `json:"policy"`
	Threshold float64           `json:"threshold"`
	Matches   int               `json:"matches"`
	Results   []*matcher.Result `json:"results"`
	ElapsedMS int64             `json:"elapsed_ms"`
}

// scanReferences scans the argument files, or stdin when none is named.
// A lone "-" also selects stdin, so shell pipelines read naturally.
func scanReferences(ctx context.Context, cmd *cobra.Command, m *matcher.Matcher, args []string) ([]*matcher.Result, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		res, err := m.ScanReader(ctx, "stdin", cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		return []*matcher.Result{res}, nil
	}
	return m.MatchFiles(ctx, args)
}
