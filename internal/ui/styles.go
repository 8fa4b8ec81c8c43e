package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Adaptive colors based on terminal background
var (
	ColorPrimary   lipgloss.Color
	ColorAccent    lipgloss.Color
	ColorSuccess   lipgloss.Color
	ColorError     lipgloss.Color
	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color
	ColorBorder    lipgloss.Color
)

// initializeColors sets up adaptive colors based on terminal background
func initializeColors() {
	if lipgloss.HasDarkBackground() {
		ColorPrimary = lipgloss.Color("205")
		ColorAccent = lipgloss.Color("214")
		ColorSuccess = lipgloss.Color("10")
		ColorError = lipgloss.Color("9")
		ColorText = lipgloss.Color("252")
		ColorTextMuted = lipgloss.Color("244")
		ColorBorder = lipgloss.Color("238")
	} else {
		ColorPrimary = lipgloss.Color("125")
		ColorAccent = lipgloss.Color("130")
		ColorSuccess = lipgloss.Color("22")
		ColorError = lipgloss.Color("160")
		ColorText = lipgloss.Color("235")
		ColorTextMuted = lipgloss.Color("243")
		ColorBorder = lipgloss.Color("250")
	}
}

// Shared styles, built after color initialization
var (
	titleStyle    lipgloss.Style
	statusStyle   lipgloss.Style
	errorStyle    lipgloss.Style
	fieldStyle    lipgloss.Style
	selectedStyle lipgloss.Style
	valueStyle    lipgloss.Style
	errValueStyle lipgloss.Style
	helpStyle     lipgloss.Style
	paneStyle     lipgloss.Style
)

func initializeStyles() {
	initializeColors()
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	errorStyle = lipgloss.NewStyle().Foreground(ColorError)
	fieldStyle = lipgloss.NewStyle().Foreground(ColorText)
	selectedStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	valueStyle = lipgloss.NewStyle().Foreground(ColorTextMuted)
	errValueStyle = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	helpStyle = lipgloss.NewStyle().Foreground(ColorTextMuted).Padding(1, 1, 0, 1)
	paneStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)
}
