// Package telemetry records local scan history for the history command.
// All data stays on the local machine, nothing is reported externally.
package telemetry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// =============================================================================
// Run rows
// =============================================================================

// Run is one recorded scan run. Quote is kept in memory for zero-match
// tracking but is not persisted as part of the run row.
type Run struct {
	ID          string        `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	Version     string        `json:"version"`
	Policy      string        `json:"policy"`
	Combine     string        `json:"combine"`
	Threshold   float64       `json:"threshold"`
	Granularity string        `json:"granularity"`
	QueryLength int           `json:"query_length"`
	Files       int           `json:"files"`
	Symbols     int           `json:"symbols"`
	Unknown     int           `json:"unknown"`
	Matches     int           `json:"matches"`
	BestScore   float64       `json:"best_score"`
	Duration    time.Duration `json:"duration"`

	Quote string `json:"quote,omitempty"`
}

// IsZeroMatch returns true if this run found no matches.
func (r Run) IsZeroMatch() bool {
	return r.Matches == 0
}

// =============================================================================
// Latency buckets
// =============================================================================

// LatencyBucket is a scan-duration histogram bucket. The bucket name is the
// stored key and the label shown by the history command.
type LatencyBucket string

const (
	BucketUnder10ms  LatencyBucket = "<10ms"
	BucketUnder50ms  LatencyBucket = "10-50ms"
	BucketUnder250ms LatencyBucket = "50-250ms"
	BucketUnder1s    LatencyBucket = "250ms-1s"
	BucketOver1s     LatencyBucket = ">=1s"
)

// BucketOrder lists the buckets from fastest to slowest, for rendering.
var BucketOrder = []LatencyBucket{
	BucketUnder10ms, BucketUnder50ms, BucketUnder250ms, BucketUnder1s, BucketOver1s,
}

// LatencyToBucket converts a scan duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketUnder10ms
	case ms < 50:
		return BucketUnder50ms
	case ms < 250:
		return BucketUnder250ms
	case ms < 1000:
		return BucketUnder1s
	default:
		return BucketOver1s
	}
}

// =============================================================================
// Ring buffer
// =============================================================================

// ringBuffer is a fixed-capacity FIFO buffer.
type ringBuffer[T any] struct {
	mu    sync.RWMutex
	items []T
	head  int
	size  int
}

func newRingBuffer[T any](capacity int) *ringBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &ringBuffer[T]{items: make([]T, capacity)}
}

// add appends an item, evicting the oldest when full.
func (b *ringBuffer[T]) add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % len(b.items)
	if b.size < len(b.items) {
		b.size++
	}
}

// all returns the buffered items in FIFO order, oldest first.
func (b *ringBuffer[T]) all() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return []T{}
	}
	out := make([]T, b.size)
	if b.size < len(b.items) {
		copy(out, b.items[:b.size])
		return out
	}
	copy(out, b.items[b.head:])
	copy(out[len(b.items)-b.head:], b.items[:b.head])
	return out
}

func (b *ringBuffer[T]) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// =============================================================================
// Collector
// =============================================================================

// ZeroMatchQuote is a distinct quote that produced no matches, with how
// often it was seen.
type ZeroMatchQuote struct {
	Quote    string    `json:"quote"`
	Count    int64     `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

// Snapshot is an immutable view of the collector state.
type Snapshot struct {
	TotalRuns           int64                   `json:"total_runs"`
	ZeroMatchRuns       int64                   `json:"zero_match_runs"`
	Recent              []Run                   `json:"recent"`
	ZeroMatchQuotes     []ZeroMatchQuote        `json:"zero_match_quotes"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	Since               time.Time               `json:"since"`
}

// CollectorConfig bounds the collector's in-memory structures.
type CollectorConfig struct {
	RecentCapacity    int // recent runs kept in the ring buffer (default 100)
	ZeroMatchCapacity int // distinct zero-match quotes tracked (default 100)
}

// DefaultCollectorConfig returns the default bounds.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		RecentCapacity:    100,
		ZeroMatchCapacity: 100,
	}
}

// zeroMatchEntry is the LRU value for a zero-match quote.
type zeroMatchEntry struct {
	count    int64
	lastSeen time.Time
}

// Collector aggregates scan runs in memory and writes them through to an
// optional Store. All methods are safe on a nil *Collector, which is how a
// disabled telemetry config is represented. Recording is best-effort: store
// failures are logged and never fail a scan.
type Collector struct {
	mu sync.Mutex

	recent        *ringBuffer[Run]
	zeroMatch     *lru.Cache[string, zeroMatchEntry]
	latencies     map[LatencyBucket]int64
	totalRuns     int64
	zeroMatchRuns int64
	startTime     time.Time

	store  *Store
	logger *slog.Logger
	closed bool
}

// NewCollector creates a collector. store may be nil, in which case runs are
// only kept in memory.
func NewCollector(store *Store, logger *slog.Logger) *Collector {
	return NewCollectorWithConfig(store, logger, DefaultCollectorConfig())
}

// NewCollectorWithConfig creates a collector with explicit bounds.
func NewCollectorWithConfig(store *Store, logger *slog.Logger, cfg CollectorConfig) *Collector {
	if cfg.RecentCapacity <= 0 {
		cfg.RecentCapacity = 100
	}
	if cfg.ZeroMatchCapacity <= 0 {
		cfg.ZeroMatchCapacity = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	zeroMatch, _ := lru.New[string, zeroMatchEntry](cfg.ZeroMatchCapacity)

	return &Collector{
		recent:    newRingBuffer[Run](cfg.RecentCapacity),
		zeroMatch: zeroMatch,
		latencies: make(map[LatencyBucket]int64),
		startTime: time.Now(),
		store:     store,
		logger:    logger,
	}
}

// Record captures one scan run. A missing ID or Timestamp is filled in.
// The run row is written through to the store immediately so a one-shot CLI
// process persists its run even without an explicit Flush.
func (c *Collector) Record(run Run) Run {
	if c == nil {
		return run
	}

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now()
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return run
	}

	c.recent.add(run)
	c.totalRuns++
	c.latencies[LatencyToBucket(run.Duration)]++

	if run.IsZeroMatch() {
		c.zeroMatchRuns++
		if run.Quote != "" {
			entry, _ := c.zeroMatch.Get(run.Quote)
			entry.count++
			entry.lastSeen = run.Timestamp
			c.zeroMatch.Add(run.Quote, entry)
		}
	}
	store := c.store
	c.mu.Unlock()

	if store != nil {
		if err := store.SaveRun(run); err != nil {
			c.logger.Warn("history_run_save_failed",
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()))
		}
	}
	return run
}

// Snapshot returns the current in-memory state.
func (c *Collector) Snapshot() *Snapshot {
	if c == nil {
		return &Snapshot{LatencyDistribution: map[LatencyBucket]int64{}}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	latencies := make(map[LatencyBucket]int64, len(c.latencies))
	for k, v := range c.latencies {
		latencies[k] = v
	}

	var zeroMatches []ZeroMatchQuote
	for _, quote := range c.zeroMatch.Keys() {
		if entry, ok := c.zeroMatch.Peek(quote); ok {
			zeroMatches = append(zeroMatches, ZeroMatchQuote{
				Quote:    quote,
				Count:    entry.count,
				LastSeen: entry.lastSeen,
			})
		}
	}

	return &Snapshot{
		TotalRuns:           c.totalRuns,
		ZeroMatchRuns:       c.zeroMatchRuns,
		Recent:              c.recent.all(),
		ZeroMatchQuotes:     zeroMatches,
		LatencyDistribution: latencies,
		Since:               c.startTime,
	}
}

// Flush drains the aggregate structures to the store. Run rows were already
// written through by Record; Flush persists the latency histogram and the
// zero-match quotes, then resets them so a later Flush never double-counts.
// Safe to call with no store configured.
func (c *Collector) Flush() error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	store := c.store
	if store == nil {
		c.mu.Unlock()
		return nil
	}

	latencies := c.latencies
	c.latencies = make(map[LatencyBucket]int64)

	zeroMatches := make(map[string]ZeroMatchQuote, c.zeroMatch.Len())
	for _, quote := range c.zeroMatch.Keys() {
		if entry, ok := c.zeroMatch.Peek(quote); ok {
			zeroMatches[quote] = ZeroMatchQuote{
				Quote:    quote,
				Count:    entry.count,
				LastSeen: entry.lastSeen,
			}
		}
	}
	c.zeroMatch.Purge()
	c.mu.Unlock()

	if len(latencies) > 0 {
		date := time.Now().Format("2006-01-02")
		if err := store.SaveLatencyCounts(date, latencies); err != nil {
			return err
		}
	}
	if len(zeroMatches) > 0 {
		if err := store.UpsertZeroMatches(zeroMatches); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and marks the collector closed. The store is not closed,
// its lifetime belongs to the caller.
func (c *Collector) Close() error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.Flush()
}
