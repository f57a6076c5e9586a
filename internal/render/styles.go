package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	DoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	MilestoneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	TodayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("86"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	CellStyle = lipgloss.NewStyle().
			Width(14).
			Height(4).
			Border(lipgloss.NormalBorder(), false, true, true, false).
			BorderForeground(lipgloss.Color("238"))
)

// ProgressBar renders a fixed-width bar, clamped to 10..50 cells.
func ProgressBar(percent int, width int) string {
	if width < 10 {
		width = 10
	}
	if width > 50 {
		width = 50
	}
	filled := (percent * width) / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + DoneStyle.Render(strings.Repeat("█", filled)) + MutedStyle.Render(strings.Repeat("░", width-filled)) + "]"
}

func check(done bool) string {
	if done {
		return DoneStyle.Render("[x]")
	}
	return "[ ]"
}
