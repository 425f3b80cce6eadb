package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahyonline/mismisquote/internal/logging"
	"github.com/tahyonline/mismisquote/internal/pattern"
	"github.com/tahyonline/mismisquote/internal/scan"
)

// --- Word Granularity ---

func TestMatchString_WordGranularity(t *testing.T) {
	// Given: a word-level matcher with strict matching
	m, err := New("hello world", testLogger(),
		WithGranularity(GranularityWord),
		WithPolicy(PolicyExact),
		WithThreshold(1.0))
	require.NoError(t, err)

	// When: scanning a reference with the phrase mid-sentence
	matches, err := m.MatchString(context.Background(), "say hello world now")

	// Then: the match covers both words and their separator bytes
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].Start)
	assert.Equal(t, 3, matches[0].End)
	assert.Equal(t, "hello world", matches[0].Text)
	assert.Equal(t, 1.0, matches[0].Score)
}

func TestMatchString_WordGranularityPunctuation(t *testing.T) {
	// Given: punctuation and case differences around the words
	m, err := New("hello world", testLogger(),
		WithGranularity(GranularityWord),
		WithPolicy(PolicyExact),
		WithThreshold(1.0))
	require.NoError(t, err)

	// When: scanning
	matches, err := m.MatchString(context.Background(), "Hello, World!")

	// Then: folding and segmentation absorb the differences
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Hello, World", matches[0].Text)
}

// --- Letter-Level Fallback ---

func TestMatchString_LetterFallbackBridgesMisspelledWord(t *testing.T) {
	// Given: a reference word with a confusable digit in it
	reference := "say h3llo world"

	// When: scanning with the fallback on and off
	withFallback, err := New("hello world", testLogger(),
		WithGranularity(GranularityWord))
	require.NoError(t, err)
	withoutFallback, err := New("hello world", testLogger(),
		WithGranularity(GranularityWord),
		WithLetterFallback(false))
	require.NoError(t, err)

	bridged, err := withFallback.MatchString(context.Background(), reference)
	require.NoError(t, err)
	dropped, err := withoutFallback.MatchString(context.Background(), reference)
	require.NoError(t, err)

	// Then: only the fallback recovers the misspelled word
	require.Len(t, bridged, 1)
	assert.Equal(t, "h3llo world", bridged[0].Text)
	assert.InDelta(t, 0.9, bridged[0].Score, 1e-9)
	assert.Empty(t, dropped)
}

func TestMatchString_LetterFallbackScoresSubstitution(t *testing.T) {
	// Given: an edit-tolerant word matcher and a one-letter typo
	m, err := New("hello world", testLogger(),
		WithGranularity(GranularityWord),
		WithPolicy(PolicyEditTolerant),
		WithThreshold(0.6))
	require.NoError(t, err)

	// When: scanning "hxllo world"
	matches, err := m.MatchString(context.Background(), "say hxllo world")

	// Then: the sub-scan prices the typo at one substitution
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "hxllo world", matches[0].Text)
	assert.InDelta(t, 0.7, matches[0].Score, 1e-9)
}

// --- Synthesizer Internals ---

func newTestFallback(t *testing.T, queryWords []string, policyName string) *letterFallback {
	t.Helper()
	policy, err := pattern.ParsePolicy(policyName, pattern.Weights{})
	require.NoError(t, err)
	fallback, err := newLetterFallback(queryWords, policy, scan.DefaultConfig(), logging.Discard())
	require.NoError(t, err)
	return fallback
}

func TestLetterFallback_SynthesizesRow(t *testing.T) {
	// Given: sub-tables for two query words
	fallback := newTestFallback(t, []string{"hello", "world"}, PolicyEditTolerant)

	// When: synthesizing a row for a word containing "world" verbatim
	row := fallback.synth("worlds")

	// Then: the row credits the matching query position only
	require.NotNil(t, row)
	require.Len(t, row, 2)
	assert.Equal(t, 0.0, row[0])
	assert.InDelta(t, 1.0, row[1], 1e-9)
}

func TestLetterFallback_RepeatedQueryWords(t *testing.T) {
	// Given: the same word at two query positions
	fallback := newTestFallback(t, []string{"is", "it", "is"}, PolicyEditTolerant)

	// When: synthesizing for a word that sub-matches "is"
	row := fallback.synth("isle")

	// Then: both positions of the repeated word are credited
	require.NotNil(t, row)
	require.Len(t, row, 3)
	assert.InDelta(t, 1.0, row[0], 1e-9)
	assert.InDelta(t, 1.0, row[2], 1e-9)
}

func TestLetterFallback_NoSubMatchReturnsNil(t *testing.T) {
	// Given: a near-symbol fallback, where misses stay fatal
	fallback := newTestFallback(t, []string{"hello"}, PolicyNearSymbol)

	// When: synthesizing for an unrelated word
	row := fallback.synth("zzz")

	// Then: no row is fabricated
	assert.Nil(t, row)
}

func TestLetterFallback_EmptySymbol(t *testing.T) {
	fallback := newTestFallback(t, []string{"hello"}, PolicyEditTolerant)
	assert.Nil(t, fallback.synth(""))
}
