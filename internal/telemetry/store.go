package telemetry

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
)

// HistoryStats are whole-table aggregates for the history command.
type HistoryStats struct {
	TotalRuns     int64         `json:"total_runs"`
	ZeroMatchRuns int64         `json:"zero_match_runs"`
	AvgBestScore  float64       `json:"avg_best_score"`
	AvgDuration   time.Duration `json:"avg_duration"`
}

// Store persists scan history in a SQLite database. It owns the database
// handle; Close releases it.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (or creates) the history database at path. The parent
// directory is created if needed. WAL journaling keeps a scanning process
// and a concurrent history command from blocking each other.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, mmqerrors.New(mmqerrors.ErrCodeHistoryStore,
				"create history directory "+dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, mmqerrors.New(mmqerrors.ErrCodeHistoryStore,
			"open history store "+path, err)
	}

	// Single writer keeps SQLite lock contention out of the picture.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// modernc.org/sqlite ignores DSN pragma parameters, set them explicitly.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, mmqerrors.New(mmqerrors.ErrCodeHistoryStore,
				"configure history store "+path, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	-- One row per scan run. The quote text itself is not stored here.
	CREATE TABLE IF NOT EXISTS scan_runs (
		id TEXT PRIMARY KEY,
		timestamp TIMESTAMP NOT NULL,
		version TEXT NOT NULL DEFAULT '',
		policy TEXT NOT NULL,
		combine_mode TEXT NOT NULL,
		threshold REAL NOT NULL,
		granularity TEXT NOT NULL,
		query_length INTEGER NOT NULL,
		files INTEGER NOT NULL,
		symbols INTEGER NOT NULL,
		unknown_symbols INTEGER NOT NULL,
		matches INTEGER NOT NULL,
		best_score REAL NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scan_runs_timestamp ON scan_runs(timestamp DESC);

	-- Distinct quotes that found nothing, the citation-checking signal.
	CREATE TABLE IF NOT EXISTS zero_match_quotes (
		quote TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 1,
		last_seen TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_zero_match_count ON zero_match_quotes(count DESC);

	-- Scan duration histogram, aggregated daily.
	CREATE TABLE IF NOT EXISTS scan_latency_stats (
		date TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, bucket)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "create history schema", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Size returns the database file size in bytes.
func (s *Store) Size() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// SaveRun inserts one run row.
func (s *Store) SaveRun(run Run) error {
	_, err := s.db.Exec(`
		INSERT INTO scan_runs (
			id, timestamp, version, policy, combine_mode, threshold,
			granularity, query_length, files, symbols, unknown_symbols,
			matches, best_score, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Timestamp.UTC(), run.Version, run.Policy, run.Combine,
		run.Threshold, run.Granularity, run.QueryLength, run.Files,
		run.Symbols, run.Unknown, run.Matches, run.BestScore,
		run.Duration.Milliseconds())
	if err != nil {
		return mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "save run "+run.ID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, timestamp, version, policy, combine_mode, threshold,
		       granularity, query_length, files, symbols, unknown_symbols,
		       matches, best_score, duration_ms
		FROM scan_runs
		ORDER BY timestamp DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "query recent runs", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var durationMS int64
		if err := rows.Scan(&run.ID, &run.Timestamp, &run.Version, &run.Policy,
			&run.Combine, &run.Threshold, &run.Granularity, &run.QueryLength,
			&run.Files, &run.Symbols, &run.Unknown, &run.Matches,
			&run.BestScore, &durationMS); err != nil {
			return nil, mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "scan run row", err)
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "iterate run rows", err)
	}
	return runs, nil
}

// Stats returns whole-table aggregates.
func (s *Store) Stats() (*HistoryStats, error) {
	row := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN matches = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(best_score), 0),
		       COALESCE(AVG(duration_ms), 0)
		FROM scan_runs
	`)

	var stats HistoryStats
	var avgMS float64
	if err := row.Scan(&stats.TotalRuns, &stats.ZeroMatchRuns,
		&stats.AvgBestScore, &avgMS); err != nil {
		return nil, mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "query history stats", err)
	}
	stats.AvgDuration = time.Duration(avgMS * float64(time.Millisecond))
	return &stats, nil
}

// UpsertZeroMatches accumulates zero-match quote counts.
func (s *Store) UpsertZeroMatches(quotes map[string]ZeroMatchQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "begin zero-match upsert", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO zero_match_quotes (quote, count, last_seen)
		VALUES (?, ?, ?)
		ON CONFLICT(quote) DO UPDATE SET
			count = count + excluded.count,
			last_seen = excluded.last_seen
	`)
	if err != nil {
		return mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "prepare zero-match upsert", err)
	}
	defer stmt.Close()

	for quote, entry := range quotes {
		if _, err := stmt.Exec(quote, entry.Count, entry.LastSeen.UTC()); err != nil {
			return mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "upsert zero-match quote", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "commit zero-match upsert", err)
	}
	return nil
}

// TopZeroMatches returns the most frequent zero-match quotes.
func (s *Store) TopZeroMatches(limit int) ([]ZeroMatchQuote, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT quote, count, last_seen
		FROM zero_match_quotes
		ORDER BY count DESC, last_seen DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "query zero-match quotes", err)
	}
	defer rows.Close()

	var quotes []ZeroMatchQuote
	for rows.Next() {
		var q ZeroMatchQuote
		if err := rows.Scan(&q.Quote, &q.Count, &q.LastSeen); err != nil {
			return nil, mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "scan zero-match row", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "iterate zero-match rows", err)
	}
	return quotes, nil
}

// SaveLatencyCounts accumulates daily latency histogram counts.
func (s *Store) SaveLatencyCounts(date string, counts map[LatencyBucket]int64) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "begin latency upsert", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO scan_latency_stats (date, bucket, count)
		VALUES (?, ?, ?)
		ON CONFLICT(date, bucket) DO UPDATE SET count = count + excluded.count
	`)
	if err != nil {
		return mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "prepare latency upsert", err)
	}
	defer stmt.Close()

	for bucket, count := range counts {
		if _, err := stmt.Exec(date, string(bucket), count); err != nil {
			return mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "upsert latency count", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "commit latency upsert", err)
	}
	return nil
}

// LatencyCounts returns the latency distribution over a date range
// (inclusive, "2006-01-02" strings).
func (s *Store) LatencyCounts(from, to string) (map[LatencyBucket]int64, error) {
	rows, err := s.db.Query(`
		SELECT bucket, SUM(count)
		FROM scan_latency_stats
		WHERE date >= ? AND date <= ?
		GROUP BY bucket
	`, from, to)
	if err != nil {
		return nil, mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "query latency counts", err)
	}
	defer rows.Close()

	counts := make(map[LatencyBucket]int64)
	for rows.Next() {
		var bucket string
		var count int64
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "scan latency row", err)
		}
		counts[LatencyBucket(bucket)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, mmqerrors.New(mmqerrors.ErrCodeHistoryStore, "iterate latency rows", err)
	}
	return counts, nil
}

// AllLatencyCounts returns the latency distribution over all recorded days.
func (s *Store) AllLatencyCounts() (map[LatencyBucket]int64, error) {
	return s.LatencyCounts("0001-01-01", "9999-12-31")
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
