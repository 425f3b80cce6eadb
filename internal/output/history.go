package output

import (
	"fmt"
	"time"

	"github.com/tahyonline/mismisquote/internal/telemetry"
)

// History bundles everything the history command renders.
type History struct {
	Runs      []telemetry.Run                   `json:"runs"`
	Stats     *telemetry.HistoryStats           `json:"stats"`
	Latencies map[telemetry.LatencyBucket]int64 `json:"latency_distribution"`
	ZeroMatch []telemetry.ZeroMatchQuote        `json:"zero_match_quotes"`
	DBPath    string                            `json:"db_path"`
	DBSize    int64                             `json:"db_size"`
}

// RenderHistory prints recent runs, aggregate stats, the latency sparkline,
// and the most frequent zero-match quotes.
func (w *Writer) RenderHistory(h History) {
	_, _ = fmt.Fprintf(w.out, "%s %s\n\n",
		w.styles.Header.Render("Scan history"),
		w.styles.Dim.Render(fmt.Sprintf("(%s, %s)", h.DBPath, FormatBytes(h.DBSize))))

	if len(h.Runs) == 0 {
		w.Status("", "no scans recorded yet")
		return
	}

	_, _ = fmt.Fprintf(w.out, "  %-16s %-14s %5s %6s %8s %6s %8s\n",
		"WHEN", "POLICY", "THR", "FILES", "MATCHES", "BEST", "TIME")
	for _, run := range h.Runs {
		_, _ = fmt.Fprintf(w.out, "  %-16s %-14s %5.2f %6d %8d %s %8s\n",
			relativeTime(run.Timestamp),
			run.Policy,
			run.Threshold,
			run.Files,
			run.Matches,
			w.styles.Score(run.BestScore).Render(fmt.Sprintf("%6.2f", run.BestScore)),
			run.Duration.Round(time.Millisecond))
	}
	_, _ = fmt.Fprintln(w.out)

	if h.Stats != nil {
		_, _ = fmt.Fprintf(w.out, "  Runs:           %d total, %d found nothing\n",
			h.Stats.TotalRuns, h.Stats.ZeroMatchRuns)
		_, _ = fmt.Fprintf(w.out, "  Avg best score: %.2f\n", h.Stats.AvgBestScore)
		_, _ = fmt.Fprintf(w.out, "  Avg scan time:  %s\n", h.Stats.AvgDuration.Round(time.Millisecond))
	}

	if len(h.Latencies) > 0 {
		counts := make([]float64, len(telemetry.BucketOrder))
		for i, bucket := range telemetry.BucketOrder {
			counts[i] = float64(h.Latencies[bucket])
		}
		_, _ = fmt.Fprintf(w.out, "  Latency:        %s  %s\n",
			w.styles.Sparkline.Render(Sparkline(counts, 0)),
			w.styles.Dim.Render(fmt.Sprintf("(%s to %s)",
				telemetry.BucketOrder[0], telemetry.BucketOrder[len(telemetry.BucketOrder)-1])))
	}

	if len(h.ZeroMatch) > 0 {
		_, _ = fmt.Fprintln(w.out)
		_, _ = fmt.Fprintf(w.out, "  %s\n", w.styles.Header.Render("Quotes that found nothing"))
		for _, z := range h.ZeroMatch {
			_, _ = fmt.Fprintf(w.out, "    %3dx  %q\n", z.Count, z.Quote)
		}
	}
}

// relativeTime renders a timestamp the way humans read recent history,
// falling back to an absolute date for older entries.
func relativeTime(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}
