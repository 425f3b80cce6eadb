package output

import (
	"fmt"
	"time"

	"github.com/tahyonline/mismisquote/internal/verify"
)

// RenderVerify prints one line per expectation and a pass/fail summary.
// Passing lines are status output and drop under quiet; failed
// expectations render through Error, so they survive --quiet and the exit
// code never points at an empty screen.
func (w *Writer) RenderVerify(r *verify.Report) {
	w.Statusf("", "%s %s",
		w.styles.Header.Render("Suite "+r.Suite),
		w.styles.Dim.Render(fmt.Sprintf("(%s)", plural(len(r.Results), "expectation", "expectations"))))
	w.Newline()

	for _, res := range r.Results {
		if res.Passed {
			w.Statusf("✅", "%s", w.expectationLine(res))
		} else {
			w.Errorf("%s", w.expectationLine(res))
		}
	}
	w.Newline()

	elapsed := r.Duration.Round(time.Millisecond)
	if r.Failed == 0 {
		w.Successf("%d of %d passed, %s", r.Passed, len(r.Results), elapsed)
	} else {
		w.Errorf("%d of %d failed, %s", r.Failed, len(r.Results), elapsed)
	}
}

// expectationLine renders one suite entry outcome: id, expectation, and
// either the best span, "not found", or the per-quote error.
func (w *Writer) expectationLine(res verify.Result) string {
	head := fmt.Sprintf("%-6s %-7s", res.Spec.ID, res.Spec.Expect)
	switch {
	case res.Error != "":
		return fmt.Sprintf("%s %s", head, res.Error)
	case res.Best != nil:
		score := w.styles.Score(res.Best.Score).Render(fmt.Sprintf("%.2f", res.Best.Score))
		return fmt.Sprintf("%s %s  %s:%d-%d", head, score,
			res.Reference, res.Best.ByteStart, res.Best.ByteEnd)
	default:
		return head + " not found"
	}
}
