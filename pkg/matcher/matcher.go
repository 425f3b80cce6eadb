package matcher

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/tahyonline/mismisquote/internal/corpus"
	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
	"github.com/tahyonline/mismisquote/internal/match"
	"github.com/tahyonline/mismisquote/internal/pattern"
	"github.com/tahyonline/mismisquote/internal/scan"
)

// Similarity policy names.
const (
	PolicyExact        = pattern.PolicyExact
	PolicyNearSymbol   = pattern.PolicyNearSymbol
	PolicyEditTolerant = pattern.PolicyEditTolerant
)

// Combine modes for the scan update step.
const (
	CombineMultiply = scan.CombineMultiply
	CombineMaxDecay = scan.CombineMaxDecay
)

// Tokenization granularities.
const (
	GranularityLetter = corpus.GranularityLetter
	GranularityWord   = corpus.GranularityWord
)

// Weights holds the tunable partial-credit values of the fuzzy policies.
type Weights = pattern.Weights

// Match is one reported occurrence of the quote in a reference text.
// Start and End are symbol offsets (End exclusive); ByteStart and ByteEnd
// locate the passage in the reference bytes, so reference[ByteStart:ByteEnd]
// is the matched text.
type Match struct {
	Start     int     `json:"start"`
	End       int     `json:"end"`
	ByteStart int     `json:"byte_start"`
	ByteEnd   int     `json:"byte_end"`
	Score     float64 `json:"score"`
	Text      string  `json:"text"`
}

// Result is the full outcome of scanning one reference.
type Result struct {
	// Name identifies the reference: a file path or a caller label.
	Name string `json:"name"`
	// Matches are the reported spans, ordered per the sort option.
	Matches []Match `json:"matches"`
	// Symbols is how many reference symbols were scanned.
	Symbols int `json:"symbols"`
	// Unknown counts scanned symbols without a compiled contribution row,
	// a quality signal for noisy or mismatched references.
	Unknown int `json:"unknown"`
	// Text is the full reference text, kept for renderers that show
	// context around a match. Excluded from JSON output.
	Text string `json:"-"`
}

// BestScore returns the highest match score, or 0 with no matches.
func (r *Result) BestScore() float64 {
	best := 0.0
	for _, m := range r.Matches {
		if m.Score > best {
			best = m.Score
		}
	}
	return best
}

type config struct {
	policy          string
	combine         string
	threshold       float64
	reportThreshold float64
	gapDecay        float64
	granularity     string
	caseFold        bool
	letterFallback  bool
	maxQueryLength  int
	reportOverlaps  bool
	sortByScore     bool
	weights         Weights
	maxFileSize     int64
	parallelism     int
	logger          *slog.Logger
}

func defaultConfig() config {
	sc := scan.DefaultConfig()
	return config{
		policy:         PolicyNearSymbol,
		combine:        sc.Combine,
		threshold:      sc.Threshold,
		gapDecay:       scan.DefaultGapDecay,
		granularity:    GranularityLetter,
		caseFold:       true,
		letterFallback: true,
		maxQueryLength: pattern.DefaultMaxQueryLength,
	}
}

// Option configures a Matcher at construction time.
type Option func(*config)

// WithPolicy selects the similarity policy: PolicyExact, PolicyNearSymbol,
// or PolicyEditTolerant.
func WithPolicy(name string) Option { return func(c *config) { c.policy = name } }

// WithCombine selects the scan combine mode: CombineMultiply or
// CombineMaxDecay.
func WithCombine(mode string) Option { return func(c *config) { c.combine = mode } }

// WithThreshold sets the scan threshold in [0,1].
func WithThreshold(t float64) Option { return func(c *config) { c.threshold = t } }

// WithReportThreshold sets a stricter reporting cutoff. Zero means "same as
// the scan threshold"; values below the scan threshold are a configuration
// conflict.
func WithReportThreshold(t float64) Option { return func(c *config) { c.reportThreshold = t } }

// WithGapDecay sets the max-decay hold/skip factor in [0,1).
func WithGapDecay(d float64) Option { return func(c *config) { c.gapDecay = d } }

// WithGranularity selects GranularityLetter or GranularityWord.
func WithGranularity(g string) Option { return func(c *config) { c.granularity = g } }

// WithCaseFold controls case folding during tokenization. On by default.
func WithCaseFold(fold bool) Option { return func(c *config) { c.caseFold = fold } }

// WithLetterFallback controls the word-granularity letter-level sub-scan
// for unknown reference words. On by default; ignored at letter granularity
// and under the exact policy.
func WithLetterFallback(on bool) Option { return func(c *config) { c.letterFallback = on } }

// WithMaxQueryLength caps the compiled query length in symbols.
func WithMaxQueryLength(n int) Option { return func(c *config) { c.maxQueryLength = n } }

// WithReportOverlaps reports every emission above the report threshold
// instead of collapsing overlapping clusters.
func WithReportOverlaps(on bool) Option { return func(c *config) { c.reportOverlaps = on } }

// WithSortByScore orders matches by descending score instead of position.
func WithSortByScore(on bool) Option { return func(c *config) { c.sortByScore = on } }

// WithWeights overrides the fuzzy policy weights. Zero fields keep their
// defaults.
func WithWeights(w Weights) Option { return func(c *config) { c.weights = w } }

// WithMaxFileSize caps how large a reference file may be, in bytes.
func WithMaxFileSize(n int64) Option { return func(c *config) { c.maxFileSize = n } }

// WithParallelism caps how many files MatchFiles scans concurrently.
// Defaults to the number of CPUs.
func WithParallelism(n int) Option { return func(c *config) { c.parallelism = n } }

// WithLogger attaches a logger for scan diagnostics.
func WithLogger(logger *slog.Logger) Option { return func(c *config) { c.logger = logger } }

// Matcher holds one compiled quote and scans references against it.
// Construct with New; the zero value is not usable.
type Matcher struct {
	cfg        config
	quote      string
	policy     pattern.Policy
	table      *pattern.Table
	tokenizer  corpus.Tokenizer
	loader     *corpus.Loader
	scanCfg    scan.Config
	extractCfg match.Config
	logger     *slog.Logger
}

// New compiles a quote into a reusable Matcher.
func New(quote string, opts ...Option) (*Matcher, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.reportThreshold == 0 {
		cfg.reportThreshold = cfg.threshold
	}
	if cfg.reportThreshold < cfg.threshold {
		return nil, mmqerrors.ConflictError(
			"report threshold is below the scan threshold").
			WithSuggestion("Raise report_threshold to at least the scan threshold")
	}

	policy, err := pattern.ParsePolicy(cfg.policy, cfg.weights)
	if err != nil {
		return nil, err
	}

	tokenizer, err := corpus.NewTokenizer(cfg.granularity, cfg.caseFold)
	if err != nil {
		return nil, err
	}

	scanCfg := scan.Config{
		Threshold: cfg.threshold,
		Combine:   cfg.combine,
		GapDecay:  cfg.gapDecay,
	}
	if err := scanCfg.Validate(); err != nil {
		return nil, err
	}

	queryTokens := tokenizer.Tokenize(quote)
	querySymbols := corpus.Symbols(queryTokens)

	compileOpts := []pattern.Option{pattern.WithMaxQueryLength(cfg.maxQueryLength)}
	if cfg.granularity == GranularityWord && cfg.letterFallback {
		if cfg.policy == PolicyExact {
			logger.Debug("letter fallback disabled under the exact policy")
		} else if len(querySymbols) > 0 {
			fallback, err := newLetterFallback(querySymbols, policy, scanCfg, logger)
			if err != nil {
				return nil, err
			}
			compileOpts = append(compileOpts, pattern.WithRowSynth(fallback.synth))
		}
	}

	table, err := pattern.Compile(querySymbols, policy, compileOpts...)
	if err != nil {
		return nil, err
	}

	m := &Matcher{
		cfg:       cfg,
		quote:     quote,
		policy:    policy,
		table:     table,
		tokenizer: tokenizer,
		loader:    corpus.NewLoader(tokenizer, cfg.maxFileSize, logger),
		scanCfg:   scanCfg,
		extractCfg: match.Config{
			ReportThreshold: cfg.reportThreshold,
			ReportOverlaps:  cfg.reportOverlaps,
		},
		logger: logger,
	}

	logger.Debug("compiled quote",
		slog.String("policy", policy.Name()),
		slog.String("granularity", cfg.granularity),
		slog.Int("symbols", table.Length()),
		slog.Int("alphabet", table.Alphabet()))
	return m, nil
}

// Quote returns the original quote text.
func (m *Matcher) Quote() string { return m.quote }

// QueryLength returns the compiled query length in symbols.
func (m *Matcher) QueryLength() int { return m.table.Length() }

// Policy returns the similarity policy name.
func (m *Matcher) Policy() string { return m.policy.Name() }

// Granularity returns the tokenization granularity.
func (m *Matcher) Granularity() string { return m.cfg.granularity }

// Threshold returns the scan threshold.
func (m *Matcher) Threshold() float64 { return m.cfg.threshold }

// MatchString scans an in-memory reference and returns its matches.
func (m *Matcher) MatchString(ctx context.Context, reference string) ([]Match, error) {
	result, err := m.ScanText(ctx, "", reference)
	if err != nil {
		return nil, err
	}
	return result.Matches, nil
}

// Match scans a reference read from r and returns its matches.
func (m *Matcher) Match(ctx context.Context, r io.Reader) ([]Match, error) {
	result, err := m.ScanReader(ctx, "", r)
	if err != nil {
		return nil, err
	}
	return result.Matches, nil
}

// ScanText scans an in-memory reference and returns the full outcome.
func (m *Matcher) ScanText(ctx context.Context, name, reference string) (*Result, error) {
	return m.scanReference(ctx, m.loader.LoadString(name, reference))
}

// ScanReader scans a reference read from r and returns the full outcome.
func (m *Matcher) ScanReader(ctx context.Context, name string, r io.Reader) (*Result, error) {
	ref, err := m.loader.LoadReader(name, r)
	if err != nil {
		return nil, err
	}
	return m.scanReference(ctx, ref)
}

// ScanFile loads and scans one reference file.
func (m *Matcher) ScanFile(ctx context.Context, path string) (*Result, error) {
	ref, err := m.loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return m.scanReference(ctx, ref)
}

func (m *Matcher) scanReference(ctx context.Context, ref *corpus.Reference) (*Result, error) {
	engine, err := scan.New(m.table, m.scanCfg)
	if err != nil {
		return nil, err
	}

	emissions, err := engine.Scan(ctx, ref.Symbols())
	if err != nil {
		return nil, err
	}

	spans := match.Extract(emissions, m.table.Length(), m.extractCfg)
	matches := m.toMatches(ref, spans)

	if unknown := engine.UnknownSymbols(); unknown > 0 {
		m.logger.Debug("reference contains symbols outside the compiled alphabet",
			slog.String("name", ref.Name),
			slog.Int("unknown", unknown),
			slog.Int("symbols", engine.Consumed()))
	}

	return &Result{
		Name:    ref.Name,
		Matches: matches,
		Symbols: engine.Consumed(),
		Unknown: engine.UnknownSymbols(),
		Text:    ref.Text,
	}, nil
}

func (m *Matcher) toMatches(ref *corpus.Reference, spans []match.Span) []Match {
	matches := make([]Match, 0, len(spans))
	for _, span := range spans {
		if span.Start >= len(ref.Tokens) || span.End > len(ref.Tokens) || span.Start >= span.End {
			continue
		}
		byteStart := ref.Tokens[span.Start].Start
		byteEnd := ref.Tokens[span.End-1].End
		matches = append(matches, Match{
			Start:     span.Start,
			End:       span.End,
			ByteStart: byteStart,
			ByteEnd:   byteEnd,
			Score:     span.Score,
			Text:      ref.Text[byteStart:byteEnd],
		})
	}
	if m.cfg.sortByScore {
		sort.SliceStable(matches, func(a, b int) bool {
			if matches[a].Score != matches[b].Score {
				return matches[a].Score > matches[b].Score
			}
			return matches[a].Start < matches[b].Start
		})
	}
	return matches
}
