package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tahyonline/mismisquote/internal/telemetry"
)

func historyFixture() History {
	return History{
		Runs: []telemetry.Run{
			{
				ID:        "run-1",
				Timestamp: time.Now().Add(-2 * time.Minute),
				Policy:    "near-symbol",
				Threshold: 0.75,
				Files:     3,
				Matches:   2,
				BestScore: 0.91,
				Duration:  42 * time.Millisecond,
			},
		},
		Stats: &telemetry.HistoryStats{
			TotalRuns:     10,
			ZeroMatchRuns: 4,
			AvgBestScore:  0.81,
			AvgDuration:   55 * time.Millisecond,
		},
		Latencies: map[telemetry.LatencyBucket]int64{
			telemetry.BucketUnder10ms: 2,
			telemetry.BucketUnder50ms: 8,
		},
		ZeroMatch: []telemetry.ZeroMatchQuote{
			{Quote: "four scores and seven years", Count: 3},
		},
		DBPath: "/tmp/history.db",
		DBSize: 4096,
	}
}

func TestWriter_RenderHistory_PrintsRunsTable(t *testing.T) {
	// Given: a history with one recent run
	buf := &bytes.Buffer{}
	w := New(buf, false)

	// When: rendering history
	w.RenderHistory(historyFixture())

	// Then: the table header and run values appear
	output := buf.String()
	assert.Contains(t, output, "WHEN")
	assert.Contains(t, output, "POLICY")
	assert.Contains(t, output, "near-symbol")
	assert.Contains(t, output, "2 minutes ago")
	assert.Contains(t, output, "42ms")
}

func TestWriter_RenderHistory_PrintsPathAndSize(t *testing.T) {
	// Given: a history fixture
	buf := &bytes.Buffer{}
	w := New(buf, false)

	// When: rendering history
	w.RenderHistory(historyFixture())

	// Then: the store path and size appear in the header
	output := buf.String()
	assert.Contains(t, output, "/tmp/history.db")
	assert.Contains(t, output, "4.0 KB")
}

func TestWriter_RenderHistory_PrintsAggregates(t *testing.T) {
	// Given: a history with stats
	buf := &bytes.Buffer{}
	w := New(buf, false)

	// When: rendering history
	w.RenderHistory(historyFixture())

	// Then: totals and averages appear
	output := buf.String()
	assert.Contains(t, output, "10 total, 4 found nothing")
	assert.Contains(t, output, "0.81")
	assert.Contains(t, output, "55ms")
}

func TestWriter_RenderHistory_PrintsLatencySparkline(t *testing.T) {
	// Given: a history with latency counts
	buf := &bytes.Buffer{}
	w := New(buf, false)

	// When: rendering history
	w.RenderHistory(historyFixture())

	// Then: the latency line and the bucket range label appear
	output := buf.String()
	assert.Contains(t, output, "Latency:")
	assert.Contains(t, output, string(telemetry.BucketUnder10ms))
	assert.Contains(t, output, string(telemetry.BucketOver1s))
}

func TestWriter_RenderHistory_PrintsZeroMatchQuotes(t *testing.T) {
	// Given: a history with zero-match quotes
	buf := &bytes.Buffer{}
	w := New(buf, false)

	// When: rendering history
	w.RenderHistory(historyFixture())

	// Then: the quote and its count appear
	output := buf.String()
	assert.Contains(t, output, "Quotes that found nothing")
	assert.Contains(t, output, "four scores and seven years")
	assert.Contains(t, output, "3x")
}

func TestWriter_RenderHistory_EmptyHistory(t *testing.T) {
	// Given: no recorded runs
	buf := &bytes.Buffer{}
	w := New(buf, false)

	// When: rendering history
	w.RenderHistory(History{DBPath: "/tmp/history.db"})

	// Then: a friendly empty message appears
	assert.Contains(t, buf.String(), "no scans recorded yet")
}

func TestRelativeTime(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		ts   time.Time
		want string
	}{
		{"seconds ago", now.Add(-10 * time.Second), "just now"},
		{"one minute", now.Add(-90 * time.Second), "1 minute ago"},
		{"minutes", now.Add(-5 * time.Minute), "5 minutes ago"},
		{"one hour", now.Add(-90 * time.Minute), "1 hour ago"},
		{"hours", now.Add(-7 * time.Hour), "7 hours ago"},
		{"one day", now.Add(-25 * time.Hour), "1 day ago"},
		{"days", now.Add(-3 * 24 * time.Hour), "3 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relativeTime(tt.ts))
		})
	}

	// Older than a week falls back to an absolute date
	old := now.Add(-30 * 24 * time.Hour)
	assert.Equal(t, old.Format("2006-01-02 15:04"), relativeTime(old))
}
