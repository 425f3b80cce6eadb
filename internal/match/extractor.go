// Package match converts the scan engine's raw emissions into reportable
// match spans. Suppression, thresholding, and ordering are pure functions
// of the emission stream, so extraction is deterministic and re-derivable.
package match

import (
	"sort"

	"github.com/tahyonline/mismisquote/internal/scan"
)

// Span is one reported match over the reference text, in symbol offsets.
// End is exclusive, so a span covers symbols [Start, End).
type Span struct {
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
}

// Len returns the number of reference symbols the span covers.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether two spans share at least one symbol.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Config controls extraction.
type Config struct {
	// ReportThreshold is the minimum score a span needs to be reported.
	// It may be stricter than the engine's scan threshold ("scan loose,
	// report strict") but never looser.
	ReportThreshold float64

	// ReportOverlaps bypasses suppression and reports every emission that
	// clears the report threshold.
	ReportOverlaps bool
}

// Extract collapses raw emissions into ordered, non-overlapping spans.
//
// Emissions are ranked by score (ties: earlier end, then earlier start)
// and greedily accepted; accepting an emission suppresses every other
// emission whose end lies within one query length of it or whose span
// overlaps it. The survivors are returned ordered by start offset.
func Extract(emissions []scan.Emission, queryLen int, cfg Config) []Span {
	if len(emissions) == 0 {
		return nil
	}

	kept := make([]scan.Emission, 0, len(emissions))
	for _, em := range emissions {
		if em.Score+scan.Epsilon >= cfg.ReportThreshold {
			kept = append(kept, em)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	if cfg.ReportOverlaps {
		spans := toSpans(kept)
		sortSpans(spans)
		return spans
	}

	// Greedy non-max suppression: strongest emission first.
	order := make([]int, len(kept))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := kept[order[a]], kept[order[b]]
		if ea.Score != eb.Score {
			return ea.Score > eb.Score
		}
		if ea.End != eb.End {
			return ea.End < eb.End
		}
		return ea.Start < eb.Start
	})

	suppressed := make([]bool, len(kept))
	var winners []scan.Emission
	for _, i := range order {
		if suppressed[i] {
			continue
		}
		winner := kept[i]
		winners = append(winners, winner)
		for j := range kept {
			if j == i || suppressed[j] {
				continue
			}
			if conflicts(winner, kept[j], queryLen) {
				suppressed[j] = true
			}
		}
	}

	spans := toSpans(winners)
	sortSpans(spans)
	return spans
}

// conflicts reports whether two emissions compete for the same stretch of
// reference: their ends fall within one query-length window, or their
// consumed spans overlap outright (gap absorption can stretch a span past
// the window).
func conflicts(a, b scan.Emission, queryLen int) bool {
	d := a.End - b.End
	if d < 0 {
		d = -d
	}
	if d < queryLen {
		return true
	}
	return a.Start <= b.End && b.Start <= a.End
}

func toSpans(emissions []scan.Emission) []Span {
	spans := make([]Span, len(emissions))
	for i, em := range emissions {
		spans[i] = Span{Start: em.Start, End: em.End + 1, Score: em.Score}
	}
	return spans
}

func sortSpans(spans []Span) {
	sort.SliceStable(spans, func(a, b int) bool {
		if spans[a].Start != spans[b].Start {
			return spans[a].Start < spans[b].Start
		}
		if spans[a].End != spans[b].End {
			return spans[a].End < spans[b].End
		}
		return spans[a].Score > spans[b].Score
	})
}
