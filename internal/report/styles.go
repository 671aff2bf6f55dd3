package report

import "github.com/charmbracelet/lipgloss"

// Colors adapt to light and dark terminals.
var (
	okColor      = lipgloss.AdaptiveColor{Light: "#15803d", Dark: "#22c55e"}
	failColor    = lipgloss.AdaptiveColor{Light: "#b91c1c", Dark: "#ef4444"}
	warnColor    = lipgloss.AdaptiveColor{Light: "#a16207", Dark: "#eab308"}
	accentColor  = lipgloss.AdaptiveColor{Light: "#1d4ed8", Dark: "#3b82f6"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#4b5563", Dark: "#6b7280"}
	headingColor = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#f9fafb"}
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(headingColor)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor).MarginTop(1)
	// labelStyle pads "UI" and "API" so both URLs start in the same column.
	labelStyle   = lipgloss.NewStyle().Width(8)
	urlStyle     = lipgloss.NewStyle().Foreground(okColor)
	readyStyle   = lipgloss.NewStyle().Foreground(okColor)
	failedStyle  = lipgloss.NewStyle().Foreground(failColor)
	warningStyle = lipgloss.NewStyle().Foreground(warnColor)
	dimStyle     = lipgloss.NewStyle().Foreground(mutedColor)
)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(accentColor).
	Padding(0, 1)

// Pod marks stay readable when colors are stripped.
const (
	checkMark = "[OK]"
	crossMark = "[!!]"
	warnMark  = "[??]"
)
