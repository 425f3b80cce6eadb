package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahyonline/mismisquote/internal/logging"
)

func testRun(matches int, d time.Duration) Run {
	return Run{
		Policy:      "near-symbol",
		Combine:     "multiply",
		Threshold:   0.75,
		Granularity: "letter",
		QueryLength: 11,
		Files:       1,
		Symbols:     420,
		Unknown:     3,
		Matches:     matches,
		BestScore:   0.92,
		Duration:    d,
		Quote:       "the quick brown fox",
	}
}

func TestLatencyToBucket(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want LatencyBucket
	}{
		{5 * time.Millisecond, BucketUnder10ms},
		{10 * time.Millisecond, BucketUnder50ms},
		{49 * time.Millisecond, BucketUnder50ms},
		{100 * time.Millisecond, BucketUnder250ms},
		{700 * time.Millisecond, BucketUnder1s},
		{3 * time.Second, BucketOver1s},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LatencyToBucket(tt.d), "duration %s", tt.d)
	}
}

func TestRingBuffer_KeepsNewestInFIFOOrder(t *testing.T) {
	buf := newRingBuffer[int](3)
	for i := 1; i <= 5; i++ {
		buf.add(i)
	}

	assert.Equal(t, 3, buf.len())
	assert.Equal(t, []int{3, 4, 5}, buf.all())
}

func TestRingBuffer_PartialFill(t *testing.T) {
	buf := newRingBuffer[string](4)
	buf.add("a")
	buf.add("b")

	assert.Equal(t, []string{"a", "b"}, buf.all())
}

func TestCollector_RecordFillsIDAndTimestamp(t *testing.T) {
	// --- Given: a memory-only collector ---
	c := NewCollector(nil, logging.Discard())

	// --- When: recording a run without ID or timestamp ---
	run := c.Record(testRun(2, 20*time.Millisecond))

	// --- Then: both are assigned ---
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.Timestamp.IsZero())
}

func TestCollector_SnapshotAggregates(t *testing.T) {
	// --- Given: a few recorded runs ---
	c := NewCollector(nil, logging.Discard())
	c.Record(testRun(2, 5*time.Millisecond))
	c.Record(testRun(0, 30*time.Millisecond))
	c.Record(testRun(1, 30*time.Millisecond))

	// --- When: taking a snapshot ---
	snap := c.Snapshot()

	// --- Then: totals, recency and buckets line up ---
	assert.Equal(t, int64(3), snap.TotalRuns)
	assert.Equal(t, int64(1), snap.ZeroMatchRuns)
	assert.Len(t, snap.Recent, 3)
	assert.Equal(t, int64(1), snap.LatencyDistribution[BucketUnder10ms])
	assert.Equal(t, int64(2), snap.LatencyDistribution[BucketUnder50ms])
}

func TestCollector_TracksDistinctZeroMatchQuotes(t *testing.T) {
	c := NewCollector(nil, logging.Discard())

	missing := testRun(0, time.Millisecond)
	missing.Quote = "no such line"
	c.Record(missing)
	c.Record(missing)

	other := testRun(0, time.Millisecond)
	other.Quote = "another ghost"
	c.Record(other)

	snap := c.Snapshot()
	require.Len(t, snap.ZeroMatchQuotes, 2)

	byQuote := map[string]int64{}
	for _, z := range snap.ZeroMatchQuotes {
		byQuote[z.Quote] = z.Count
	}
	assert.Equal(t, int64(2), byQuote["no such line"])
	assert.Equal(t, int64(1), byQuote["another ghost"])
}

func TestCollector_WritesRunsThroughToStore(t *testing.T) {
	// --- Given: a collector backed by a real store ---
	store, err := OpenStore(t.TempDir() + "/history.db")
	require.NoError(t, err)
	defer store.Close()

	c := NewCollector(store, logging.Discard())

	// --- When: recording ---
	recorded := c.Record(testRun(1, 12*time.Millisecond))

	// --- Then: the row is already persisted without a Flush ---
	runs, err := store.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, recorded.ID, runs[0].ID)
}

func TestCollector_FlushDrainsAggregates(t *testing.T) {
	// --- Given: a recorded zero-match run ---
	store, err := OpenStore(t.TempDir() + "/history.db")
	require.NoError(t, err)
	defer store.Close()

	c := NewCollector(store, logging.Discard())
	c.Record(testRun(0, 5*time.Millisecond))

	// --- When: flushing twice ---
	require.NoError(t, c.Flush())
	require.NoError(t, c.Flush())

	// --- Then: the histogram and zero-match counts are not doubled ---
	counts, err := store.AllLatencyCounts()
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[BucketUnder10ms])

	quotes, err := store.TopZeroMatches(10)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, int64(1), quotes[0].Count)
}

func TestCollector_CloseIsIdempotent(t *testing.T) {
	c := NewCollector(nil, logging.Discard())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	// Recording after close is a no-op rather than a panic.
	c.Record(testRun(1, time.Millisecond))
	assert.Equal(t, int64(0), c.Snapshot().TotalRuns)
}

func TestCollector_NilReceiverIsSafe(t *testing.T) {
	var c *Collector

	run := c.Record(testRun(1, time.Millisecond))
	assert.Equal(t, 1, run.Matches)
	assert.NoError(t, c.Flush())
	assert.NoError(t, c.Close())
	assert.NotNil(t, c.Snapshot())
}
