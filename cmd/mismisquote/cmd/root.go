// Package cmd provides the CLI commands for MisMisQuote.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
	"github.com/tahyonline/mismisquote/internal/logging"
	"github.com/tahyonline/mismisquote/internal/profiling"
	"github.com/tahyonline/mismisquote/pkg/version"
)

// Profiling flags
var (
	profileCPU string
	profileMem string
	cpuCleanup func()
)

// Config and debug logging flags
var (
	configPath     string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the mismisquote CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mismisquote",
		Short: "Find quotes and misquotes in reference texts",
		Long: `MisMisQuote scans reference texts for a quote and reports every passage
similar enough to be the quote, verbatim or mangled, with a score per
occurrence.

Scanning is a single streaming pass per reference. Policies trade
strictness for tolerance: exact requires the quote verbatim, near-symbol
forgives case changes, confusable symbols and swapped neighbors, and
edit-tolerant additionally survives substitutions with a penalty.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	cmd.SetVersionTemplate("mismisquote version {{.Version}}\n")

	// Shared flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Explicit config file (default: user and project discovery)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging, mirrored to stderr")
	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")

	// Setup profiling and logging hooks
	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	// Add subcommands
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging starts CPU profiling and debug logging if the
// flags are set.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}

	if profileCPU != "" {
		stop, err := profiling.StartCPU(profileCPU)
		if err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		cpuCleanup = stop
	}

	return nil
}

// stopProfilingAndLogging stops profiling and logging, and writes the
// memory profile if requested.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}

	if profileMem != "" {
		if err := profiling.WriteHeap(profileMem); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
	}

	if loggingCleanup != nil {
		slog.Info("debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}

	return nil
}

// exitError carries a bare exit code for outcomes the command already
// reported, like a clean scan that found nothing. Execute does not print it.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// errNoMatches follows the grep convention: a clean scan with no matches
// exits 1 without an error message.
var errNoMatches = &exitError{code: 1, msg: "no matches"}

// errExpectationsFailed marks a verify run with failed expectations. The
// result lines already showed them; exit code 2 is the machine signal.
var errExpectationsFailed = &exitError{code: mmqerrors.ExitValidation, msg: "expectations failed"}

// ExitCode maps an Execute error to the process exit code: 0 on success,
// 2 for validation and config errors, 3 for I/O errors, 1 otherwise.
func ExitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return mmqerrors.ExitCode(err)
}

// Execute runs the root command. Errors print here rather than through
// cobra so they render with their code and suggestion.
func Execute() error {
	err := NewRootCmd().Execute()
	var ee *exitError
	if err != nil && !errors.As(err, &ee) {
		fmt.Fprint(os.Stderr, mmqerrors.FormatForCLI(err))
	}
	return err
}
