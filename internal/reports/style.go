package reports

import (
	"github.com/charmbracelet/lipgloss"
)

// StyleMessage receives a string and return a style string
func StyleMessage(message string) string {
	const boldAmber = "#e8c47a"
	const deepSlate = "#2e3440"

	var style = lipgloss.NewStyle().
		Foreground(lipgloss.Color(boldAmber)).
		Background(lipgloss.Color(deepSlate)).
		PaddingTop(1).
		PaddingBottom(1).
		PaddingLeft(2).
		PaddingRight(2).
		Width(75)

	return style.Render(message)
}
