package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahyonline/mismisquote/internal/output"
)

func TestHistoryCmd_Empty(t *testing.T) {
	// Given: a history store no scan has written to
	cfg := writeTestConfig(t, true)

	// When: showing the history
	out, err := runCommand(t, "history", "--config", cfg)

	// Then: it should say so instead of rendering empty tables
	require.NoError(t, err)
	assert.Contains(t, out, "no scans recorded yet")
}

func TestHistoryCmd_AfterScans(t *testing.T) {
	// Given: one matching and one zero-match scan recorded
	cfg := writeTestConfig(t, true)
	ref := writeRef(t, "speech.txt", "we shall fight on the beaches")

	_, err := runCommand(t, "scan", "--config", cfg,
		"--quote", "fight on the beaches", ref)
	require.NoError(t, err)
	_, err = runCommand(t, "scan", "--config", cfg,
		"--quote", "zqxjkv wvzqxj kvqzwx", ref)
	require.ErrorIs(t, err, errNoMatches)

	// When: showing the history
	out, err := runCommand(t, "history", "--config", cfg)

	// Then: runs, aggregates and the zero-match quote all render
	require.NoError(t, err)
	assert.Contains(t, out, "Scan history", "Header should render")
	assert.Contains(t, out, "near-symbol", "Run rows should carry the policy")
	assert.Contains(t, out, "just now", "Fresh runs should render as recent")
	assert.Contains(t, out, "2 total, 1 found nothing", "Aggregates should count both runs")
	assert.Contains(t, out, "Quotes that found nothing", "Zero-match section should render")
	assert.Contains(t, out, "zqxjkv wvzqxj kvqzwx", "The zero-match quote should be listed")
}

func TestHistoryCmd_JSON(t *testing.T) {
	// Given: one recorded scan
	cfg := writeTestConfig(t, true)
	ref := writeRef(t, "speech.txt", "we shall fight on the beaches")
	_, err := runCommand(t, "scan", "--config", cfg,
		"--quote", "fight on the beaches", ref)
	require.NoError(t, err)

	// When: dumping the history as JSON
	out, err := runCommand(t, "history", "--config", cfg, "--json")

	// Then: the rows should round-trip into the history shape
	require.NoError(t, err)
	var h output.History
	require.NoError(t, json.Unmarshal([]byte(out), &h), "Output should be valid JSON")
	require.Len(t, h.Runs, 1)
	assert.Equal(t, "near-symbol", h.Runs[0].Policy)
	assert.Equal(t, 1, h.Runs[0].Files)
	assert.Equal(t, 1, h.Runs[0].Matches)
	assert.InDelta(t, 1.0, h.Runs[0].BestScore, 1e-9)
	require.NotNil(t, h.Stats)
	assert.EqualValues(t, 1, h.Stats.TotalRuns)
	assert.NotEmpty(t, h.DBPath, "The store path should be reported")
}

func TestHistoryCmd_RespectsLimit(t *testing.T) {
	// Given: three recorded scans
	cfg := writeTestConfig(t, true)
	ref := writeRef(t, "speech.txt", "we shall fight on the beaches")
	for i := 0; i < 3; i++ {
		_, err := runCommand(t, "scan", "--config", cfg,
			"--quote", "fight on the beaches", ref)
		require.NoError(t, err)
	}

	// When: limiting to two
	out, err := runCommand(t, "history", "--config", cfg, "--json", "--limit", "2")

	// Then: only two rows return
	require.NoError(t, err)
	var h output.History
	require.NoError(t, json.Unmarshal([]byte(out), &h))
	assert.Len(t, h.Runs, 2)
	require.NotNil(t, h.Stats)
	assert.EqualValues(t, 3, h.Stats.TotalRuns, "Aggregates still cover every run")
}

func TestHistoryCmd_DisabledTelemetryRecordsNothing(t *testing.T) {
	// Given: telemetry disabled and a scan run
	cfg := writeTestConfig(t, false)
	ref := writeRef(t, "speech.txt", "we shall fight on the beaches")
	_, err := runCommand(t, "scan", "--config", cfg,
		"--quote", "fight on the beaches", ref)
	require.NoError(t, err)

	// When: showing the history afterwards
	out, err := runCommand(t, "history", "--config", cfg)

	// Then: nothing was recorded
	require.NoError(t, err)
	assert.Contains(t, out, "no scans recorded yet")
}
