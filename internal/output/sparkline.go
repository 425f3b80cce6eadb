package output

import "strings"

// SparklineChars are the Unicode block characters for rendering sparklines,
// eight levels from lowest to full.
var SparklineChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a series of values as one row of block characters.
// Values are scaled against max; pass max <= 0 to scale against the largest
// value in the series. An empty series renders as an empty string.
func Sparkline(values []float64, max float64) string {
	if len(values) == 0 {
		return ""
	}
	if max <= 0 {
		for _, v := range values {
			if v > max {
				max = v
			}
		}
	}
	if max <= 0 {
		max = 1
	}

	var sb strings.Builder
	sb.Grow(len(values) * 3)
	for _, v := range values {
		idx := int(v / max * float64(len(SparklineChars)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(SparklineChars) {
			idx = len(SparklineChars) - 1
		}
		sb.WriteRune(SparklineChars[idx])
	}
	return sb.String()
}
