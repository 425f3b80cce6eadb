package output

import "github.com/charmbracelet/lipgloss"

// ANSI 256 palette. A single amber accent for headers and highlighted
// spans, plus traffic-light colors for match scores.
const (
	ColorAmber    = "214" // primary accent
	ColorWhite    = "255"
	ColorGray     = "245"
	ColorDarkGray = "238"
	ColorGreen    = "114" // confident scores
	ColorYellow   = "220" // borderline scores, warnings
	ColorRed      = "196" // weak scores, errors
)

// Styles holds the lipgloss styles used by the CLI renderers.
type Styles struct {
	Header    lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Dim       lipgloss.Style
	Label     lipgloss.Style
	Highlight lipgloss.Style
	ScoreHigh lipgloss.Style
	ScoreMid  lipgloss.Style
	ScoreLow  lipgloss.Style
	Sparkline lipgloss.Style
}

// DefaultStyles returns the styled set for terminal output.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAmber)),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGreen)),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Highlight: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAmber)).Underline(true),
		ScoreHigh: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGreen)),
		ScoreMid:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		ScoreLow:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Sparkline: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAmber)),
	}
}

// NoColorStyles returns unstyled components for plain output.
func NoColorStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle(),
		Success:   lipgloss.NewStyle(),
		Warning:   lipgloss.NewStyle(),
		Error:     lipgloss.NewStyle(),
		Dim:       lipgloss.NewStyle(),
		Label:     lipgloss.NewStyle(),
		Highlight: lipgloss.NewStyle(),
		ScoreHigh: lipgloss.NewStyle(),
		ScoreMid:  lipgloss.NewStyle(),
		ScoreLow:  lipgloss.NewStyle(),
		Sparkline: lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}

// Score picks the style for a match score: green for confident matches,
// yellow for borderline, red for weak.
func (s Styles) Score(score float64) lipgloss.Style {
	switch {
	case score >= 0.9:
		return s.ScoreHigh
	case score >= 0.7:
		return s.ScoreMid
	default:
		return s.ScoreLow
	}
}
