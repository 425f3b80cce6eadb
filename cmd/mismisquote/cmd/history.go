package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tahyonline/mismisquote/internal/output"
	"github.com/tahyonline/mismisquote/internal/telemetry"
)

// historyOptions holds the history command options.
type historyOptions struct {
	limit   int
	jsonOut bool
	noColor bool
}

// newHistoryCmd creates the history command.
func newHistoryCmd() *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scan runs and aggregate stats",
		Long: `Show the recorded scan history: recent runs, aggregate counters, the
scan latency distribution and the quotes that keep finding nothing.

Every scan records a run unless telemetry.enabled is false.

Examples:
  mismisquote history
  mismisquote history --limit 50 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "Runs to show")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Machine-readable JSON output")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

// runHistory executes the history command.
func runHistory(cmd *cobra.Command, opts *historyOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout(), opts.noColor)

	store, err := telemetry.OpenStore(historyPath(cfg))
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.RecentRuns(opts.limit)
	if err != nil {
		return err
	}
	stats, err := store.Stats()
	if err != nil {
		return err
	}
	latencies, err := store.AllLatencyCounts()
	if err != nil {
		return err
	}
	zeroMatch, err := store.TopZeroMatches(10)
	if err != nil {
		return err
	}

	h := output.History{
		Runs:      runs,
		Stats:     stats,
		Latencies: latencies,
		ZeroMatch: zeroMatch,
		DBPath:    store.Path(),
		DBSize:    store.Size(),
	}

	if opts.jsonOut {
		return out.JSON(h)
	}
	out.RenderHistory(h)
	return nil
}
