package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tahyonline/mismisquote/internal/output"
	"github.com/tahyonline/mismisquote/internal/watcher"
	"github.com/tahyonline/mismisquote/pkg/matcher"
)

// watchOptions holds the watch command options.
type watchOptions struct {
	quote string
	flags scanFlags
}

// newWatchCmd creates the watch command.
func newWatchCmd() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch --quote STRING [flags] FILE...",
		Short: "Rescan references whenever they change",
		Long: `Watch reference files and rescan each one when it settles after a
change. Every update prints one line with the current match count, the
change against the previous scan and the best score.

Runs until interrupted. Editors that save by replacing the file (rename
and recreate) are followed across the swap, and a watched file may start
out missing as long as its directory exists.

Examples:
  mismisquote watch --quote "ask not what your country" draft.txt
  mismisquote watch --quote "to be or not to be" --policy edit-tolerant notes/*.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.quote, "quote", "", "Quote to scan for (required)")
	_ = cmd.MarkFlagRequired("quote")
	opts.flags.register(cmd)

	return cmd
}

// runWatch executes the watch command.
func runWatch(ctx context.Context, cmd *cobra.Command, args []string, opts *watchOptions) error {
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

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	wopts := watcher.DefaultOptions()
	wopts.Debounce = cfg.Watch.DebounceInterval()

	session, err := watcher.NewSession(m, args, logger, wopts, func(u watcher.Update) {
		renderUpdate(out, u)
	})
	if err != nil {
		return err
	}

	out.Statusf("🔍", "watching %d file(s) for %q, Ctrl-C to stop", len(args), opts.quote)

	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	out.Status("", "stopped")
	return nil
}

// renderUpdate prints one line per settled change.
func renderUpdate(out *output.Writer, u watcher.Update) {
	switch {
	case u.Err != nil:
		out.Warningf("%s: rescan failed: %v", u.Path, u.Err)
	case u.Result == nil:
		out.Statusf("➖", "%s: gone (%+d)", u.Path, u.Delta())
	case len(u.Result.Matches) == 0 && u.Initial:
		out.Statusf("", "%s: no matches", u.Path)
	case len(u.Result.Matches) == 0:
		out.Statusf("", "%s: no matches (%+d)", u.Path, u.Delta())
	case u.Initial:
		out.Statusf("", "%s: matches %d, best %.2f",
			u.Path, len(u.Result.Matches), u.Result.BestScore())
	default:
		out.Statusf("", "%s: matches %d (%+d), best %.2f",
			u.Path, len(u.Result.Matches), u.Delta(), u.Result.BestScore())
	}
}
