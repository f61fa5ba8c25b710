package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

var helpBoxStyle = focusedPanelStyle.Padding(1, 2).MarginTop(1)

// helpOverlay lists every binding of a key map in the columns its FullHelp
// returns, under a title naming the screen.
type helpOverlay struct {
	title  string
	help   help.Model
	keymap help.KeyMap
}

func newHelpOverlay(title string, keymap help.KeyMap) helpOverlay {
	h := help.New()
	h.ShowAll = true
	h.FullSeparator = "   "
	h.Styles.FullKey = selectedStyle
	h.Styles.FullDesc = textStyle
	h.Styles.FullSeparator = dimStyle
	return helpOverlay{title: title, help: h, keymap: keymap}
}

// View fits the overlay into width cells, border and padding included.
func (o helpOverlay) View(width int) string {
	o.help.Width = max(0, width-8)
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(o.title),
		"",
		o.help.View(o.keymap),
		"",
		dimStyle.Render("? or esc to close"),
	)
	return helpBoxStyle.Render(body)
}
