// Package config loads, merges, and validates MisMisQuote configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
)

// projectConfigNames are the project-level config files Load looks for, in
// preference order. Only the first one found is read.
var projectConfigNames = []string{".mismisquote.yaml", ".mismisquote.yml"}

// Config is the complete MisMisQuote configuration. The field layout
// mirrors the schema of .mismisquote.yaml.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Scan      ScanConfig      `yaml:"scan" json:"scan"`
	Weights   WeightsConfig   `yaml:"weights" json:"weights"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Watch     WatchConfig     `yaml:"watch" json:"watch"`
}

// ScanConfig configures the matching pipeline: which policy scores symbol
// pairs, how evidence is combined along the reference, and which emissions
// are reported.
type ScanConfig struct {
	// Policy is the symbol policy: "exact", "near-symbol" or
	// "edit-tolerant".
	Policy string `yaml:"policy" json:"policy"`

	// Combine is the evidence combination mode: "multiply" or "max-decay".
	Combine string `yaml:"combine" json:"combine"`

	// Threshold is the scan emission threshold (0.0-1.0).
	Threshold float64 `yaml:"threshold" json:"threshold"`

	// ReportThreshold filters reported matches. Zero means "same as
	// Threshold"; any other value must be at least Threshold.
	ReportThreshold float64 `yaml:"report_threshold" json:"report_threshold"`

	// GapDecay is the max-decay hold/skip factor, at least 0 and below 1.
	GapDecay float64 `yaml:"gap_decay" json:"gap_decay"`

	// Granularity is the symbol stream granularity: "letter" or "word".
	Granularity string `yaml:"granularity" json:"granularity"`

	// LetterFallback enables letter-level row synthesis for reference
	// words missing from a word-granularity table.
	LetterFallback bool `yaml:"letter_fallback" json:"letter_fallback"`

	// MaxQueryLength bounds the compiled query, in symbols.
	MaxQueryLength int `yaml:"max_query_length" json:"max_query_length"`

	// ReportOverlaps disables overlap suppression and reports every
	// emission above the report threshold.
	ReportOverlaps bool `yaml:"report_overlaps" json:"report_overlaps"`
}

// WeightsConfig tunes the similarity weights shared by the symbol policies.
// A zero value selects the built-in default for that weight.
type WeightsConfig struct {
	// Near is the near-symbol confusable weight.
	Near float64 `yaml:"near" json:"near"`

	// Transpose is the adjacent-transposition credit.
	Transpose float64 `yaml:"transpose" json:"transpose"`

	// Substitution is the edit-tolerant miss penalty.
	Substitution float64 `yaml:"substitution" json:"substitution"`
}

// TelemetryConfig configures local scan history recording.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Path overrides the history database location. Empty uses
	// ~/.mismisquote/history.db.
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig configures structured log output.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level" json:"level"`

	// File overrides the log file location. Empty uses
	// ~/.mismisquote/logs/mismisquote.log.
	File string `yaml:"file" json:"file"`

	MaxSizeMB int `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int `yaml:"max_files" json:"max_files"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is the quiet period after a filesystem event before a
	// rescan, as a Go duration string.
	Debounce string `yaml:"debounce" json:"debounce"`
}

// DebounceInterval returns the parsed debounce duration. Missing or
// malformed values fall back to 500ms; Validate rejects them first when the
// config went through Load.
func (w WatchConfig) DebounceInterval() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// NewConfig returns a configuration populated with the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Scan: ScanConfig{
			Policy:          "near-symbol",
			Combine:         "multiply",
			Threshold:       0.75,
			ReportThreshold: 0, // same as Threshold
			GapDecay:        0.85,
			Granularity:     "letter",
			LetterFallback:  true,
			MaxQueryLength:  512,
			ReportOverlaps:  false,
		},
		Weights: WeightsConfig{
			Near:         0.9,
			Transpose:    0.85,
			Substitution: 0.7,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
			Path:    "", // resolved to ~/.mismisquote/history.db
		},
		Logging: LoggingConfig{
			Level:     "info",
			File:      "", // resolved to ~/.mismisquote/logs/mismisquote.log
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/mismisquote/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/mismisquote/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mismisquote", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".mismisquote", "config.yaml")
	}
	return filepath.Join(home, ".config", "mismisquote", "config.yaml")
}

// ProjectConfigPath returns the project config file Load would pick up in
// dir, or "" when there is none.
func ProjectConfigPath(dir string) string {
	for _, name := range projectConfigNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load builds the effective configuration for a run rooted at dir.
// Precedence, lowest to highest: built-in defaults, the user config file,
// the project config file (.mismisquote.yaml or .mismisquote.yml in dir),
// then MISMISQUOTE_* environment variables. The merged result is validated
// before it is returned.
//
// Both config files are optional. Keys a file does not mention keep the
// value from the layer below; keys it does mention override it, including
// explicit false and zero values.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.applyFile(GetUserConfigPath()); err != nil {
		return nil, err
	}

	if path := ProjectConfigPath(dir); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile builds the configuration from one explicit config file, skipping
// user and project discovery. Unlike Load, the file must exist. Environment
// overrides and validation still apply.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, mmqerrors.New(mmqerrors.ErrCodeConfigNotFound,
				"config file not found: "+path, err).
				WithSuggestion("check the --config path or create the file")
		}
		return nil, mmqerrors.IOError("read "+path+" failed", err)
	}
	if err := cfg.applyFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile overlays the YAML document at path onto c. A missing file is
// not an error. Decoding into the live struct means keys absent from the
// document leave the current values untouched, while present keys always
// win, so a file can explicitly set letter_fallback or telemetry.enabled
// to false.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		if os.IsPermission(err) {
			return mmqerrors.New(mmqerrors.ErrCodeFilePermission,
				"read "+path+" failed", err)
		}
		return mmqerrors.IOError("read "+path+" failed", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return mmqerrors.ConfigError("parse "+path+" failed", err).
			WithDetail("path", path)
	}
	return nil
}

// applyEnvOverrides applies MISMISQUOTE_* environment variable overrides.
// Values that do not parse are ignored; out-of-range values are left for
// Validate to reject.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MISMISQUOTE_POLICY"); v != "" {
		c.Scan.Policy = v
	}
	if v := os.Getenv("MISMISQUOTE_COMBINE"); v != "" {
		c.Scan.Combine = v
	}
	if v := os.Getenv("MISMISQUOTE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Scan.Threshold = f
		}
	}
	if v := os.Getenv("MISMISQUOTE_REPORT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Scan.ReportThreshold = f
		}
	}
	if v := os.Getenv("MISMISQUOTE_GAP_DECAY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Scan.GapDecay = f
		}
	}
	if v := os.Getenv("MISMISQUOTE_GRANULARITY"); v != "" {
		c.Scan.Granularity = v
	}
	if v := os.Getenv("MISMISQUOTE_LETTER_FALLBACK"); v != "" {
		if b, ok := parseBool(v); ok {
			c.Scan.LetterFallback = b
		}
	}
	if v := os.Getenv("MISMISQUOTE_MAX_QUERY_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Scan.MaxQueryLength = n
		}
	}
	if v := os.Getenv("MISMISQUOTE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MISMISQUOTE_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("MISMISQUOTE_TELEMETRY"); v != "" {
		if b, ok := parseBool(v); ok {
			c.Telemetry.Enabled = b
		}
	}
	if v := os.Getenv("MISMISQUOTE_HISTORY_PATH"); v != "" {
		c.Telemetry.Path = v
	}
	if v := os.Getenv("MISMISQUOTE_WATCH_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
}

// parseBool accepts the usual spellings of a boolean environment value.
func parseBool(v string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// Validate checks the merged configuration for unknown enum spellings and
// out-of-range values. The offending key is attached as a detail so the CLI
// can point at the exact line to fix.
func (c *Config) Validate() error {
	validPolicies := map[string]bool{"exact": true, "near-symbol": true, "edit-tolerant": true}
	if !validPolicies[c.Scan.Policy] {
		return mmqerrors.ConflictError(
			"scan.policy must be 'exact', 'near-symbol' or 'edit-tolerant', got '"+c.Scan.Policy+"'").
			WithDetail("key", "scan.policy")
	}

	validCombine := map[string]bool{"multiply": true, "max-decay": true}
	if !validCombine[c.Scan.Combine] {
		return mmqerrors.ConflictError(
			"scan.combine must be 'multiply' or 'max-decay', got '"+c.Scan.Combine+"'").
			WithDetail("key", "scan.combine")
	}

	validGranularity := map[string]bool{"letter": true, "word": true}
	if !validGranularity[c.Scan.Granularity] {
		return mmqerrors.ConflictError(
			"scan.granularity must be 'letter' or 'word', got '"+c.Scan.Granularity+"'").
			WithDetail("key", "scan.granularity")
	}

	if c.Scan.Threshold < 0 || c.Scan.Threshold > 1 {
		return mmqerrors.ConflictError(
			fmt.Sprintf("scan.threshold must be between 0 and 1, got %g", c.Scan.Threshold)).
			WithDetail("key", "scan.threshold")
	}

	if c.Scan.ReportThreshold != 0 {
		if c.Scan.ReportThreshold > 1 {
			return mmqerrors.ConflictError(
				fmt.Sprintf("scan.report_threshold must be between 0 and 1, got %g", c.Scan.ReportThreshold)).
				WithDetail("key", "scan.report_threshold")
		}
		if c.Scan.ReportThreshold < c.Scan.Threshold {
			return mmqerrors.ConflictError(
				fmt.Sprintf("scan.report_threshold %g is below scan.threshold %g",
					c.Scan.ReportThreshold, c.Scan.Threshold)).
				WithDetail("key", "scan.report_threshold").
				WithSuggestion("set report_threshold to 0 to reuse the scan threshold")
		}
	}

	if c.Scan.GapDecay < 0 || c.Scan.GapDecay >= 1 {
		return mmqerrors.ConflictError(
			fmt.Sprintf("scan.gap_decay must be at least 0 and below 1, got %g", c.Scan.GapDecay)).
			WithDetail("key", "scan.gap_decay")
	}

	if c.Scan.MaxQueryLength <= 0 {
		return mmqerrors.ConflictError(
			fmt.Sprintf("scan.max_query_length must be positive, got %d", c.Scan.MaxQueryLength)).
			WithDetail("key", "scan.max_query_length")
	}

	weights := []struct {
		key   string
		value float64
	}{
		{"weights.near", c.Weights.Near},
		{"weights.transpose", c.Weights.Transpose},
		{"weights.substitution", c.Weights.Substitution},
	}
	for _, w := range weights {
		if w.value < 0 || w.value > 1 {
			return mmqerrors.ConflictError(
				fmt.Sprintf("%s must be between 0 and 1, got %g", w.key, w.value)).
				WithDetail("key", w.key)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return mmqerrors.ConflictError(
			"logging.level must be 'debug', 'info', 'warn' or 'error', got '"+c.Logging.Level+"'").
			WithDetail("key", "logging.level")
	}

	if c.Logging.MaxSizeMB <= 0 {
		return mmqerrors.ConflictError(
			fmt.Sprintf("logging.max_size_mb must be positive, got %d", c.Logging.MaxSizeMB)).
			WithDetail("key", "logging.max_size_mb")
	}
	if c.Logging.MaxFiles <= 0 {
		return mmqerrors.ConflictError(
			fmt.Sprintf("logging.max_files must be positive, got %d", c.Logging.MaxFiles)).
			WithDetail("key", "logging.max_files")
	}

	if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d <= 0 {
		return mmqerrors.ConflictError(
			"watch.debounce must be a positive duration, got '"+c.Watch.Debounce+"'").
			WithDetail("key", "watch.debounce")
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file, creating the parent
// directory if needed.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return mmqerrors.InternalError("marshal config", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return mmqerrors.IOError("create "+dir+" failed", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return mmqerrors.IOError("write "+path+" failed", err)
	}
	return nil
}
