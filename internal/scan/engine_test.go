package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
	"github.com/tahyonline/mismisquote/internal/pattern"
)

// --- Test Helpers ---

// letters splits a string into one symbol per rune, spaces included.
func letters(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

func compile(t *testing.T, query string, policy pattern.Policy) *pattern.Table {
	t.Helper()
	table, err := pattern.Compile(letters(query), policy)
	require.NoError(t, err)
	return table
}

func newEngine(t *testing.T, query string, policy pattern.Policy, cfg Config) *Engine {
	t.Helper()
	engine, err := New(compile(t, query, policy), cfg)
	require.NoError(t, err)
	return engine
}

func scanAll(t *testing.T, engine *Engine, reference string) []Emission {
	t.Helper()
	emissions, err := engine.Scan(context.Background(), letters(reference))
	require.NoError(t, err)
	return emissions
}

// naiveFind returns every start offset where query occurs verbatim in ref,
// overlaps included. The exact policy at threshold 1.0 must agree with it.
func naiveFind(ref, query []string) []int {
	var starts []int
	for s := 0; s+len(query) <= len(ref); s++ {
		match := true
		for i, q := range query {
			if ref[s+i] != q {
				match = false
				break
			}
		}
		if match {
			starts = append(starts, s)
		}
	}
	return starts
}

// --- Configuration Validation ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantCode string
	}{
		{
			name: "defaults are valid",
			cfg:  func() Config { c := DefaultConfig(); c.GapDecay = DefaultGapDecay; return c }(),
		},
		{
			name:     "threshold below zero",
			cfg:      Config{Threshold: -0.1, Combine: CombineMultiply, GapDecay: 0.85},
			wantCode: mmqerrors.ErrCodeConfigConflict,
		},
		{
			name:     "threshold above one",
			cfg:      Config{Threshold: 1.5, Combine: CombineMultiply, GapDecay: 0.85},
			wantCode: mmqerrors.ErrCodeConfigConflict,
		},
		{
			name:     "unknown combine mode",
			cfg:      Config{Threshold: 0.75, Combine: "average", GapDecay: 0.85},
			wantCode: mmqerrors.ErrCodeConfigConflict,
		},
		{
			name:     "gap decay of one is out of range",
			cfg:      Config{Threshold: 0.75, Combine: CombineMaxDecay, GapDecay: 1.0},
			wantCode: mmqerrors.ErrCodeConfigConflict,
		},
		{
			name: "gap decay just below one",
			cfg:  Config{Threshold: 0.75, Combine: CombineMaxDecay, GapDecay: 0.99},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, mmqerrors.GetCode(err))
		})
	}
}

func TestNew_FillsGapDecayDefault(t *testing.T) {
	// Given: a config that leaves the gap decay unset
	cfg := Config{Threshold: 0.6, Combine: CombineMaxDecay}

	// When: constructing the engine
	engine, err := New(compile(t, "cat", pattern.NewExactPolicy()), cfg)

	// Then: the default decay is applied instead of failing validation
	require.NoError(t, err)
	assert.InDelta(t, DefaultGapDecay, engine.gapDecay, 1e-12)
}

func TestNew_NilTable(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	require.Error(t, err)
	assert.Equal(t, mmqerrors.ErrCodeInternal, mmqerrors.GetCode(err))
}

// --- Exact Matching ---

func TestScan_ExactSubstringScoresOne(t *testing.T) {
	// Given: a reference containing the query verbatim
	engine := newEngine(t, "cat", pattern.NewExactPolicy(), DefaultConfig())

	// When: scanning "the cat sat"
	emissions := scanAll(t, engine, "the cat sat")

	// Then: exactly one emission covers "cat" with a perfect score
	require.Len(t, emissions, 1)
	assert.Equal(t, 4, emissions[0].Start)
	assert.Equal(t, 6, emissions[0].End)
	assert.Equal(t, 1.0, emissions[0].Score)
}

func TestScan_ExactEqualsBruteForce(t *testing.T) {
	// Given: overlapping and repeated occurrences
	tests := []struct {
		name      string
		query     string
		reference string
	}{
		{"overlapping occurrences", "aba", "abababa"},
		{"repeated pairs", "ab", "aabbab"},
		{"no occurrence", "xyz", "the quick brown fox"},
		{"query equals reference", "same", "same"},
		{"occurrence at both ends", "aa", "aabaa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Threshold: 1.0, Combine: CombineMultiply}
			engine := newEngine(t, tt.query, pattern.NewExactPolicy(), cfg)

			// When: scanning at threshold 1.0 under the exact policy
			emissions := scanAll(t, engine, tt.reference)

			// Then: emissions agree with a naive substring search
			want := naiveFind(letters(tt.reference), letters(tt.query))
			require.Len(t, emissions, len(want))
			for i, em := range emissions {
				assert.Equal(t, want[i], em.Start, "emission %d start", i)
				assert.Equal(t, want[i]+len(tt.query)-1, em.End, "emission %d end", i)
				assert.Equal(t, 1.0, em.Score, "emission %d score", i)
			}
		})
	}
}

func TestScan_SingleSymbolQuery(t *testing.T) {
	// Given: the shortest possible query
	engine := newEngine(t, "a", pattern.NewExactPolicy(), DefaultConfig())

	// When: scanning a reference with three occurrences
	emissions := scanAll(t, engine, "banana")

	// Then: each occurrence is its own single-symbol emission
	require.Len(t, emissions, 3)
	for i, want := range []int{1, 3, 5} {
		assert.Equal(t, want, emissions[i].Start)
		assert.Equal(t, want, emissions[i].End)
		assert.Equal(t, 1.0, emissions[i].Score)
	}
}

func TestScan_EmptyReference(t *testing.T) {
	engine := newEngine(t, "cat", pattern.NewExactPolicy(), DefaultConfig())

	emissions, err := engine.Scan(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, emissions)
	assert.Equal(t, 0, engine.Consumed())
}

// --- Near-Symbol Matching ---

func TestScan_NearSymbolTransposition(t *testing.T) {
	// Given: "qoute", a transposition of the query "quote"
	cfg := Config{Threshold: 0.6, Combine: CombineMultiply}
	engine := newEngine(t, "quote", pattern.NewNearSymbolPolicy(pattern.Weights{}), cfg)

	// When: scanning the misquoted reference
	emissions := scanAll(t, engine, "this is a qoute from someone")

	// Then: one partial-score emission covers exactly the "qoute" span
	require.Len(t, emissions, 1)
	em := emissions[0]
	assert.Equal(t, 10, em.Start)
	assert.Equal(t, 14, em.End)
	assert.Greater(t, em.Score, 0.6)
	assert.Less(t, em.Score, 1.0)
	// Two transposed positions, each worth the transposition weight.
	assert.InDelta(t, 0.85*0.85, em.Score, 1e-12)
}

func TestScan_ExactPolicyRejectsTransposition(t *testing.T) {
	// Given: the same misquote under the strict policy
	cfg := Config{Threshold: 0.6, Combine: CombineMultiply}
	engine := newEngine(t, "quote", pattern.NewExactPolicy(), cfg)

	// When: scanning
	emissions := scanAll(t, engine, "this is a qoute from someone")

	// Then: the miss zeroes the alignment and nothing is reported
	assert.Empty(t, emissions)
}

// --- Edit-Tolerant Matching ---

func TestScan_EditTolerantSubstitution(t *testing.T) {
	// Given: "sat", one substitution away from the query "cat"
	cfg := Config{Threshold: 0.7, Combine: CombineMultiply}
	engine := newEngine(t, "cat", pattern.NewEditTolerantPolicy(pattern.Weights{}), cfg)

	// When: scanning "the cat sat"
	emissions := scanAll(t, engine, "the cat sat")

	// Then: the exact hit and the substituted hit are both reported
	require.Len(t, emissions, 2)

	assert.Equal(t, 4, emissions[0].Start)
	assert.Equal(t, 6, emissions[0].End)
	assert.Equal(t, 1.0, emissions[0].Score)

	assert.Equal(t, 8, emissions[1].Start)
	assert.Equal(t, 10, emissions[1].End)
	assert.InDelta(t, 0.7, emissions[1].Score, 1e-12)
}

func TestScan_EditTolerantRespectsThreshold(t *testing.T) {
	// Given: a threshold just above the single-substitution score
	cfg := Config{Threshold: 0.71, Combine: CombineMultiply}
	engine := newEngine(t, "cat", pattern.NewEditTolerantPolicy(pattern.Weights{}), cfg)

	// When: scanning "the cat sat"
	emissions := scanAll(t, engine, "the cat sat")

	// Then: only the exact occurrence survives
	require.Len(t, emissions, 1)
	assert.Equal(t, 1.0, emissions[0].Score)
}

// --- Max-Decay Combine ---

func TestScan_MaxDecayAbsorbsInsertion(t *testing.T) {
	// Given: "caxt", the query "cat" with one inserted symbol
	cfg := Config{Threshold: 0.6, Combine: CombineMaxDecay, GapDecay: 0.85}
	engine := newEngine(t, "cat", pattern.NewExactPolicy(), cfg)

	// When: scanning
	emissions := scanAll(t, engine, "caxt")

	// Then: the final emission bridges the insertion at one decay step,
	// and its span covers all four consumed symbols
	require.NotEmpty(t, emissions)
	last := emissions[len(emissions)-1]
	assert.Equal(t, 0, last.Start)
	assert.Equal(t, 3, last.End)
	assert.InDelta(t, 0.85, last.Score, 1e-12)
}

func TestScan_MaxDecayAbsorbsDeletion(t *testing.T) {
	// Given: "ct", the query "cat" with the middle symbol deleted
	cfg := Config{Threshold: 0.6, Combine: CombineMaxDecay, GapDecay: 0.85}
	engine := newEngine(t, "cat", pattern.NewExactPolicy(), cfg)

	// When: scanning
	emissions := scanAll(t, engine, "ct")

	// Then: the skip transition bridges the deletion; the span stays at
	// the two symbols actually consumed
	require.NotEmpty(t, emissions)
	last := emissions[len(emissions)-1]
	assert.Equal(t, 0, last.Start)
	assert.Equal(t, 1, last.End)
	assert.InDelta(t, 0.85, last.Score, 1e-12)
}

func TestScan_MaxDecayPrefersAdvanceOnTies(t *testing.T) {
	// Given: a self-overlapping query where hold paths shadow advances
	cfg := Config{Threshold: 0.9, Combine: CombineMaxDecay, GapDecay: 0.85}
	engine := newEngine(t, "aa", pattern.NewExactPolicy(), cfg)

	// When: scanning a run of the same symbol
	emissions := scanAll(t, engine, "aaaa")

	// Then: every emission is a tight two-symbol advance, never a
	// decay-stretched span
	require.Len(t, emissions, 3)
	for i, em := range emissions {
		assert.Equal(t, em.End-1, em.Start, "emission %d", i)
		assert.Equal(t, 1.0, em.Score, "emission %d", i)
	}
}

func TestScan_MaxDecayMatchesMultiplyOnCleanText(t *testing.T) {
	// Given: a reference with only verbatim occurrences
	reference := "one cat, two cats"
	multiply := newEngine(t, "cat", pattern.NewExactPolicy(),
		Config{Threshold: 1.0, Combine: CombineMultiply})
	decay := newEngine(t, "cat", pattern.NewExactPolicy(),
		Config{Threshold: 1.0, Combine: CombineMaxDecay, GapDecay: 0.85})

	// When: scanning under both combine modes at threshold 1.0
	fromMultiply := scanAll(t, multiply, reference)
	fromDecay := scanAll(t, decay, reference)

	// Then: decayed paths never reach 1.0, so the modes agree
	assert.Equal(t, fromMultiply, fromDecay)
}

// --- Determinism and Thresholds ---

func TestScan_Deterministic(t *testing.T) {
	// Given: two engines with identical configuration
	cfg := Config{Threshold: 0.5, Combine: CombineMaxDecay, GapDecay: 0.85}
	reference := "this is a qoute from someone who qoutes a lot"
	first := newEngine(t, "quote", pattern.NewNearSymbolPolicy(pattern.Weights{}), cfg)
	second := newEngine(t, "quote", pattern.NewNearSymbolPolicy(pattern.Weights{}), cfg)

	// When: scanning the same reference
	a := scanAll(t, first, reference)
	b := scanAll(t, second, reference)

	// Then: the emission streams are identical
	assert.Equal(t, a, b)
}

func TestScan_ThresholdMonotonicity(t *testing.T) {
	// Given: the same reference scanned at a loose and a strict threshold
	reference := "the cat sat on the mat"
	loose := newEngine(t, "cat", pattern.NewEditTolerantPolicy(pattern.Weights{}),
		Config{Threshold: 0.4, Combine: CombineMultiply})
	strict := newEngine(t, "cat", pattern.NewEditTolerantPolicy(pattern.Weights{}),
		Config{Threshold: 0.8, Combine: CombineMultiply})

	// When: scanning both
	looseEmissions := scanAll(t, loose, reference)
	strictEmissions := scanAll(t, strict, reference)

	// Then: the strict emissions are a subset of the loose ones
	require.NotEmpty(t, looseEmissions)
	seen := make(map[Emission]bool, len(looseEmissions))
	for _, em := range looseEmissions {
		seen[em] = true
	}
	for _, em := range strictEmissions {
		assert.True(t, seen[em], "emission %+v missing at the loose threshold", em)
	}
	assert.Less(t, len(strictEmissions), len(looseEmissions))
}

func TestEngine_Reset(t *testing.T) {
	// Given: an engine that has already consumed a reference
	engine := newEngine(t, "cat", pattern.NewExactPolicy(), DefaultConfig())
	first := scanAll(t, engine, "the cat sat")

	// When: resetting and scanning the same reference again
	engine.Reset()
	require.Equal(t, 0, engine.Consumed())
	second := scanAll(t, engine, "the cat sat")

	// Then: the second scan reproduces the first exactly
	assert.Equal(t, first, second)
}

// --- Scan Quality Signals ---

func TestEngine_CountsUnknownSymbols(t *testing.T) {
	// Given: a reference with symbols outside the compiled alphabet
	engine := newEngine(t, "cat", pattern.NewExactPolicy(), DefaultConfig())

	// When: scanning "the cat sat"
	scanAll(t, engine, "the cat sat")

	// Then: h, e, s and both spaces are counted, matched symbols are not
	assert.Equal(t, 11, engine.Consumed())
	assert.Equal(t, 5, engine.UnknownSymbols())
}

// --- Cancellation ---

func TestScan_Cancellation(t *testing.T) {
	// Given: a cancelled context and a long reference
	engine := newEngine(t, "cat", pattern.NewExactPolicy(), DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	symbols := make([]string, 4096)
	for i := range symbols {
		symbols[i] = "x"
	}

	// When: scanning
	_, err := engine.Scan(ctx, symbols)

	// Then: the scan stops with a wrapped cancellation error
	require.Error(t, err)
	assert.Equal(t, mmqerrors.ErrCodeScanFailed, mmqerrors.GetCode(err))
	assert.ErrorIs(t, err, context.Canceled)
}
