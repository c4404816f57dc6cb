package tui

import tea "github.com/charmbracelet/bubbletea"

// Page IDs.
const (
	PageDashboard = "dashboard"
	PageDetail    = "detail"
)

// Page represents a top-level screen in the TUI.
type Page interface {
	ID() string
	Init() tea.Cmd
	Update(msg tea.Msg) (tea.Cmd, *PageNav)
	View(width, height int) string
}

// PageNav is returned from Update to request a page switch.
type PageNav struct {
	PageID string
	Params any
}

// paramReceiver is implemented by pages that take navigation parameters.
type paramReceiver interface {
	SetParams(params any)
}
