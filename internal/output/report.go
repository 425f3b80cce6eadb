package output

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/tahyonline/mismisquote/pkg/matcher"
)

// contextBytes is how much reference text is shown on each side of a
// matched span.
const contextBytes = 32

// RenderResult prints the matches found in one reference, one line per
// match: location, score, and the span highlighted inside its context.
func (w *Writer) RenderResult(res *matcher.Result) {
	for _, m := range res.Matches {
		location := w.styles.Label.Render(fmt.Sprintf("%s:%d-%d", res.Name, m.ByteStart, m.ByteEnd))
		score := w.styles.Score(m.Score).Render(fmt.Sprintf("%.2f", m.Score))
		_, _ = fmt.Fprintf(w.out, "%s  %s  %s\n", location, score, w.excerpt(res, m))
	}
}

// RenderResults prints per-reference matches followed by a summary line.
func (w *Writer) RenderResults(results []*matcher.Result, elapsed time.Duration) {
	for _, res := range results {
		w.RenderResult(res)
	}
	w.RenderSummary(results, elapsed)
}

// RenderSummary prints match and file counts, unknown-symbol totals, and,
// for multi-file scans, a sparkline of per-file best scores.
func (w *Writer) RenderSummary(results []*matcher.Result, elapsed time.Duration) {
	if w.quiet {
		return
	}

	var matches, filesWithMatches, symbols, unknown int
	bestScores := make([]float64, 0, len(results))
	for _, res := range results {
		matches += len(res.Matches)
		if len(res.Matches) > 0 {
			filesWithMatches++
		}
		symbols += res.Symbols
		unknown += res.Unknown
		bestScores = append(bestScores, res.BestScore())
	}

	summary := fmt.Sprintf("%s in %s",
		plural(matches, "match", "matches"),
		plural(len(results), "reference", "references"))
	if len(results) > 1 {
		summary += fmt.Sprintf(" (%d with matches)", filesWithMatches)
	}
	summary += fmt.Sprintf(", %s", elapsed.Round(time.Millisecond))

	_, _ = fmt.Fprintln(w.out)
	if matches > 0 {
		w.Status("✅", summary)
	} else {
		w.Status("➖", summary)
	}
	if unknown > 0 {
		w.Status("", w.styles.Dim.Render(fmt.Sprintf("%d of %d symbols outside the quote alphabet", unknown, symbols)))
	}
	if len(results) > 1 {
		w.Status("", w.styles.Label.Render("best per reference ")+
			w.styles.Sparkline.Render(Sparkline(bestScores, 1.0)))
	}
}

// excerpt returns the matched text highlighted inside a window of
// surrounding reference text. Newlines are flattened so a match always
// renders on a single line.
func (w *Writer) excerpt(res *matcher.Result, m matcher.Match) string {
	text := res.Text
	if text == "" || m.ByteStart < 0 || m.ByteEnd > len(text) || m.ByteStart >= m.ByteEnd {
		return w.styles.Highlight.Render(flatten(m.Text))
	}

	from := m.ByteStart - contextBytes
	if from < 0 {
		from = 0
	}
	for from < m.ByteStart && !utf8.RuneStart(text[from]) {
		from++
	}

	to := m.ByteEnd + contextBytes
	if to > len(text) {
		to = len(text)
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}

	var prefix, suffix string
	if from > 0 {
		prefix = "…"
	}
	if to < len(text) {
		suffix = "…"
	}

	return prefix +
		w.styles.Dim.Render(flatten(text[from:m.ByteStart])) +
		w.styles.Highlight.Render(flatten(text[m.ByteStart:m.ByteEnd])) +
		w.styles.Dim.Render(flatten(text[m.ByteEnd:to])) +
		suffix
}

// flatten collapses whitespace control characters so excerpts stay on one
// line.
func flatten(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '\n', '\r', '\t':
			out = append(out, ' ')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
