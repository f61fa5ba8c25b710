package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fishalchemy/reel/internal/domain"
)

// Palette. Every screen draws from these so the board, forms and toasts agree.
const (
	colorTide   = lipgloss.Color("37")  // accent: selection, headers, focus
	colorDeep   = lipgloss.Color("24")  // borders of active panels
	colorFoam   = lipgloss.Color("252") // body text
	colorSilt   = lipgloss.Color("241") // hints and labels
	colorRock   = lipgloss.Color("240") // idle borders
	colorCoral  = lipgloss.Color("203") // errors
	colorSand   = lipgloss.Color("222") // warnings
	colorKelp   = lipgloss.Color("35")  // success
	colorLagoon = lipgloss.Color("111") // review
	colorInk    = lipgloss.Color("0")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorTide)
	dimStyle   = lipgloss.NewStyle().Foreground(colorSilt)
	textStyle  = lipgloss.NewStyle().Foreground(colorFoam)

	errorStyle   = lipgloss.NewStyle().Foreground(colorCoral).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorSand).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(colorKelp)

	// Lists and pickers.
	listTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorInk).Background(colorTide).Padding(0, 1)
	selectedStyle  = lipgloss.NewStyle().Foreground(colorTide).Bold(true)

	// Inverted badge for modal board states such as DRAG and MOVE.
	badgeStyle = lipgloss.NewStyle().Background(colorTide).Foreground(colorInk).Padding(0, 1)

	panelStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorRock)
	focusedPanelStyle = panelStyle.BorderForeground(colorDeep)
)

// stateColor tints a ticket state the same way on the board and in detail.
func stateColor(s domain.TicketState) lipgloss.Color {
	switch s {
	case domain.StateInProgress:
		return colorSand
	case domain.StateReview:
		return colorLagoon
	case domain.StateFinished:
		return colorKelp
	}
	return colorFoam
}
