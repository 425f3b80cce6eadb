package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tahyonline/mismisquote/internal/config"
	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
	"github.com/tahyonline/mismisquote/internal/logging"
	"github.com/tahyonline/mismisquote/internal/output"
	"github.com/tahyonline/mismisquote/pkg/matcher"
)

// scanFlags are the flags shared by the scan-like commands (scan, verify,
// watch). A flag set on the command line overrides the config file value;
// an untouched flag leaves the merged config alone.
type scanFlags struct {
	policy          string
	combine         string
	threshold       float64
	reportThreshold float64
	granularity     string
	gapDecay        float64
	overlaps        bool
	sortBy          string
	jsonOut         bool
	noColor         bool
	quiet           bool
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.policy, "policy", "p", "", "Similarity policy: exact, near-symbol, edit-tolerant")
	cmd.Flags().StringVar(&f.combine, "combine", "", "Score combine mode: multiply, max-decay")
	cmd.Flags().Float64VarP(&f.threshold, "threshold", "t", 0, "Scan threshold in [0,1]")
	cmd.Flags().Float64Var(&f.reportThreshold, "report-threshold", 0, "Report cutoff, at or above the scan threshold (0: same)")
	cmd.Flags().StringVarP(&f.granularity, "granularity", "g", "", "Tokenization granularity: letter, word")
	cmd.Flags().Float64Var(&f.gapDecay, "gap-decay", 0, "Hold/skip decay of the max-decay combine mode, [0,1)")
	cmd.Flags().BoolVar(&f.overlaps, "overlaps", false, "Report overlapping spans instead of the best per cluster")
	cmd.Flags().StringVar(&f.sortBy, "sort", "position", "Span order: position, score")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Machine-readable JSON output")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Suppress status output; results and errors still print")
}

// merge overlays the explicitly set flags onto the loaded config, then
// revalidates so flag values face the same rules as file values.
func (f *scanFlags) merge(cmd *cobra.Command, cfg *config.Config) error {
	fl := cmd.Flags()
	if fl.Changed("policy") {
		cfg.Scan.Policy = f.policy
	}
	if fl.Changed("combine") {
		cfg.Scan.Combine = f.combine
	}
	if fl.Changed("threshold") {
		cfg.Scan.Threshold = f.threshold
	}
	if fl.Changed("report-threshold") {
		cfg.Scan.ReportThreshold = f.reportThreshold
	}
	if fl.Changed("granularity") {
		cfg.Scan.Granularity = f.granularity
	}
	if fl.Changed("gap-decay") {
		cfg.Scan.GapDecay = f.gapDecay
	}
	if fl.Changed("overlaps") {
		cfg.Scan.ReportOverlaps = f.overlaps
	}
	if f.sortBy != "position" && f.sortBy != "score" {
		return mmqerrors.ConflictError(
			"--sort must be 'position' or 'score', got '" + f.sortBy + "'")
	}
	return cfg.Validate()
}

// sortByScore reports whether --sort score was selected.
func (f *scanFlags) sortByScore() bool {
	return f.sortBy == "score"
}

// newOutput builds the output writer honoring --no-color and --quiet.
func (f *scanFlags) newOutput(cmd *cobra.Command) *output.Writer {
	w := output.New(cmd.OutOrStdout(), f.noColor)
	w.SetQuiet(f.quiet)
	return w
}

// matcherOptions translates the merged config into matcher options.
func matcherOptions(cfg *config.Config, sortByScore bool, logger *slog.Logger) []matcher.Option {
	opts := []matcher.Option{
		matcher.WithPolicy(cfg.Scan.Policy),
		matcher.WithCombine(cfg.Scan.Combine),
		matcher.WithThreshold(cfg.Scan.Threshold),
		matcher.WithReportThreshold(cfg.Scan.ReportThreshold),
		matcher.WithGapDecay(cfg.Scan.GapDecay),
		matcher.WithGranularity(cfg.Scan.Granularity),
		matcher.WithLetterFallback(cfg.Scan.LetterFallback),
		matcher.WithMaxQueryLength(cfg.Scan.MaxQueryLength),
		matcher.WithReportOverlaps(cfg.Scan.ReportOverlaps),
		matcher.WithWeights(matcher.Weights{
			Near:         cfg.Weights.Near,
			Transpose:    cfg.Weights.Transpose,
			Substitution: cfg.Weights.Substitution,
		}),
		matcher.WithLogger(logger),
	}
	if sortByScore {
		opts = append(opts, matcher.WithSortByScore(true))
	}
	return opts
}

// loadConfig builds the effective config: the explicit --config file when
// given, otherwise defaults, user and project files, then env overrides.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load(".")
}

// setupLogging opens the configured log file. Under --debug the root hook
// already installed a verbose logger; reuse it. File logging is best
// effort, a scan still works when the log dir is unwritable.
func setupLogging(cfg *config.Config) (*slog.Logger, func()) {
	if debugMode {
		return slog.Default(), func() {}
	}
	lc := logging.Config{
		Level:     cfg.Logging.Level,
		FilePath:  cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	}
	if lc.FilePath == "" {
		lc.FilePath = logging.DefaultLogPath()
	}
	logger, cleanup, err := logging.Setup(lc)
	if err != nil {
		return logging.Discard(), func() {}
	}
	return logger, cleanup
}

// historyPath resolves the telemetry store location.
func historyPath(cfg *config.Config) string {
	if cfg.Telemetry.Path != "" {
		return cfg.Telemetry.Path
	}
	return logging.DefaultHistoryPath()
}

// reportBar is the effective report threshold: the explicit one, or the
// scan threshold when unset.
func reportBar(cfg *config.Config) float64 {
	if cfg.Scan.ReportThreshold != 0 {
		return cfg.Scan.ReportThreshold
	}
	return cfg.Scan.Threshold
}
