package components

import (
	"strings"

	"github.com/davrell/chemviz/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar: key hints on the left,
// activity and identity on the right.
func RenderStatusBar(width int, username string, busy []string, errMsg string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)

	left := " [j/k]select [u]pload [r]efresh [d]ownload [s]ign out [?]help [q]uit"
	if errMsg != "" {
		left = " " + lipgloss.NewStyle().
			Foreground(t.Red).
			Background(t.Surface).
			Render("✗ "+errMsg)
	}

	right := ""
	if len(busy) > 0 {
		right = strings.Join(busy, " · ") + "… "
	}
	if username != "" {
		right += username + " "
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}
