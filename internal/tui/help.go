package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// helpOverlay renders the key binding reference inside a scrollable viewport.
type helpOverlay struct {
	vp   viewport.Model
	keys KeyMap
}

func newHelpOverlay(keys KeyMap) *helpOverlay {
	return &helpOverlay{vp: viewport.New(0, 0), keys: keys}
}

func (h *helpOverlay) content() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	keyStyle := lipgloss.NewStyle().Foreground(ColorForeground).Bold(true).Width(14)
	desc := lipgloss.NewStyle().Foreground(ColorMuted)

	var b strings.Builder
	for i, g := range h.keys.HelpGroups() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(header.Render(g.Title))
		b.WriteString("\n")
		for _, kb := range g.Bindings {
			hp := kb.Help()
			b.WriteString("  " + keyStyle.Render(hp.Key) + desc.Render(hp.Desc) + "\n")
		}
	}
	return b.String()
}

func (h *helpOverlay) ScrollUp()   { h.vp.ScrollUp(1) }
func (h *helpOverlay) ScrollDown() { h.vp.ScrollDown(1) }

func (h *helpOverlay) View(width, height int) string {
	boxW := min(width-4, 56)
	boxH := max(height-4, 5)
	h.vp.Width = max(boxW-4, 10)
	h.vp.Height = max(boxH-4, 3)
	h.vp.SetContent(h.content())

	title := lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).Render("Keys")
	footer := lipgloss.NewStyle().Foreground(ColorMuted).Render("esc close")
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(0, 1).
		Render(title + "\n" + h.vp.View() + "\n" + footer)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
