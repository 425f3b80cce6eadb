// Package pattern compiles a query into the per-symbol contribution table
// consumed by the scan engine. For each symbol the table holds a weight
// vector of the query's length; position i is the strength that observing
// the symbol contributes toward matching the query's i-th symbol. Compiling
// is a pure function of query and policy, and a compiled table is immutable
// and safe to share across concurrent scans.
package pattern

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
)

// DefaultMaxQueryLength bounds the state-vector cost of a scan.
const DefaultMaxQueryLength = 512

// DefaultSynthCacheSize bounds the memoized rows a synthesizer may hold.
const DefaultSynthCacheSize = 1024

// RowSynth derives a contribution row for a symbol outside the compiled
// alphabet. Word-granularity matching uses this to score unknown reference
// words with letter-level sub-scans. A nil return falls back to the zero
// row. Implementations must be safe for concurrent use.
type RowSynth func(sym string) []float64

// Table is the compiled Symbol Contribution Map for one query.
type Table struct {
	query  []string
	rows   map[string][]float64
	zero   []float64
	policy Policy

	synth      RowSynth
	synthCache *lru.Cache[string, []float64]
}

// Option adjusts compilation.
type Option func(*compileOptions)

type compileOptions struct {
	maxQueryLength int
	synth          RowSynth
	synthCacheSize int
}

// WithMaxQueryLength overrides the default query length bound.
func WithMaxQueryLength(n int) Option {
	return func(o *compileOptions) {
		o.maxQueryLength = n
	}
}

// WithRowSynth attaches a fallback row synthesizer for symbols outside the
// compiled alphabet. Synthesized rows are memoized.
func WithRowSynth(fn RowSynth) Option {
	return func(o *compileOptions) {
		o.synth = fn
	}
}

// WithSynthCacheSize overrides the synthesizer memo capacity.
func WithSynthCacheSize(n int) Option {
	return func(o *compileOptions) {
		o.synthCacheSize = n
	}
}

// Compile builds the contribution table for a tokenized query under the
// given policy. The query must have at least one symbol and at most the
// configured maximum.
func Compile(query []string, policy Policy, opts ...Option) (*Table, error) {
	options := compileOptions{
		maxQueryLength: DefaultMaxQueryLength,
		synthCacheSize: DefaultSynthCacheSize,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if policy == nil {
		return nil, mmqerrors.InternalError("pattern: nil similarity policy", nil)
	}
	if len(query) == 0 {
		return nil, mmqerrors.New(mmqerrors.ErrCodeQueryEmpty,
			"query produced no symbols", nil).
			WithSuggestion("Provide a non-empty quote")
	}
	if options.maxQueryLength > 0 && len(query) > options.maxQueryLength {
		return nil, mmqerrors.New(mmqerrors.ErrCodeQueryTooLong,
			fmt.Sprintf("query has %d symbols, limit is %d", len(query), options.maxQueryLength), nil).
			WithDetail("symbols", fmt.Sprintf("%d", len(query))).
			WithDetail("limit", fmt.Sprintf("%d", options.maxQueryLength)).
			WithSuggestion("Shorten the quote or raise scan.max_query_length")
	}

	length := len(query)
	t := &Table{
		query:  append([]string(nil), query...),
		rows:   make(map[string][]float64),
		zero:   make([]float64, length),
		policy: policy,
	}

	// Alphabet: the query's own symbols plus the policy's variants of each.
	candidates := make(map[string]struct{}, length*2)
	for _, q := range query {
		candidates[q] = struct{}{}
		for _, v := range policy.Variants(q) {
			candidates[v] = struct{}{}
		}
	}

	tw := policy.TransposeWeight()
	for sym := range candidates {
		row := make([]float64, length)
		nonzero := false
		for i, q := range query {
			w := policy.Similarity(sym, q)
			if tw > 0 && w < tw {
				if (i > 0 && sym == query[i-1]) || (i+1 < length && sym == query[i+1]) {
					w = tw
				}
			}
			if w > 0 {
				row[i] = w
				nonzero = true
			}
		}
		if nonzero {
			t.rows[sym] = row
		}
	}

	if options.synth != nil {
		cache, err := lru.New[string, []float64](options.synthCacheSize)
		if err != nil {
			return nil, mmqerrors.InternalError("pattern: synth cache", err)
		}
		t.synth = options.synth
		t.synthCache = cache
	}

	return t, nil
}

// Length returns the query length L, which is also the row width.
func (t *Table) Length() int { return len(t.query) }

// Query returns the compiled query symbols. Callers must not modify it.
func (t *Table) Query() []string { return t.query }

// Policy returns the similarity policy the table was compiled with.
func (t *Table) Policy() Policy { return t.policy }

// Contains reports whether a symbol has a directly compiled row. Symbols
// outside the alphabet degrade to the fallback row (or a synthesized one)
// and are worth counting as a scan-quality signal.
func (t *Table) Contains(sym string) bool {
	_, ok := t.rows[sym]
	return ok
}

// Row returns the contribution row for a symbol. Unknown symbols fall back
// to the synthesizer when one is attached, else to the shared zero row.
// Returned rows are read-only.
func (t *Table) Row(sym string) []float64 {
	if row, ok := t.rows[sym]; ok {
		return row
	}
	if t.synth == nil {
		return t.zero
	}
	if row, ok := t.synthCache.Get(sym); ok {
		return row
	}
	row := t.synth(sym)
	if row == nil {
		row = t.zero
	}
	t.synthCache.Add(sym, row)
	return row
}

// Alphabet returns the number of directly compiled symbols.
func (t *Table) Alphabet() int { return len(t.rows) }
