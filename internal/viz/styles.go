package viz

import "github.com/charmbracelet/lipgloss"

// bench palette: laser red on a dark rail
var (
	rail   = lipgloss.Color("#3a3f4b")
	muted  = lipgloss.Color("#7a8194")
	laser  = lipgloss.Color("#ff3b30")
	amber  = lipgloss.Color("#ffb000")
	glass  = lipgloss.Color("#5ac8fa")
	signal = lipgloss.Color("#34c759")
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(glass)

	// Selected marks the element under the cursor.
	Selected = lipgloss.NewStyle().
			Bold(true).
			Foreground(amber).
			Background(lipgloss.Color("#2a2000"))

	Subtle = lipgloss.NewStyle().Foreground(muted)

	StatusOK    = lipgloss.NewStyle().Bold(true).Foreground(signal)
	StatusError = lipgloss.NewStyle().Bold(true).Foreground(laser)

	MetricValue = lipgloss.NewStyle().Bold(true).Foreground(glass)
	MetricLabel = lipgloss.NewStyle().Foreground(muted)

	KeyHint = lipgloss.NewStyle().Italic(true).Foreground(muted)

	Beam = lipgloss.NewStyle().Foreground(laser)

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#f2f2f7")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(rail)
)

// Metric renders "label value" with the shared metric styles.
func Metric(label, value string) string {
	return MetricLabel.Render(label+" ") + MetricValue.Render(value)
}
