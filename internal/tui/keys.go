package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all dashboard key bindings with built-in help text.
type KeyMap struct {
	// Global
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
	Escape    key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Home     key.Binding
	End      key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Enter    key.Binding

	// View state
	TabAll       key.Binding
	TabWatchlist key.Binding
	NextTab      key.Binding
	SortPrice    key.Binding
	SortMarket   key.Binding
	SortChange   key.Binding
	Search       key.Binding

	// Actions
	Watch    key.Binding
	Refresh  key.Binding
	Currency key.Binding
	Theme    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "h"),
			key.WithHelp("?/h", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("escape", "esc"),
			key.WithHelp("esc", "clear/close"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "pagedown"),
			key.WithHelp("pgdn", "page down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "asset details"),
		),

		TabAll: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "all assets"),
		),
		TabWatchlist: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "watchlist"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch tab"),
		),
		SortPrice: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "sort by price"),
		),
		SortMarket: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "sort by market cap"),
		),
		SortChange: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "sort by 24h change"),
		),
		Search: key.NewBinding(
			key.WithKeys("/", "s"),
			key.WithHelp("/", "search"),
		),

		Watch: key.NewBinding(
			key.WithKeys("w", " "),
			key.WithHelp("w/space", "watch/unwatch"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh now"),
		),
		Currency: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "next currency"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "light/dark theme"),
		),
	}
}

// HelpGroups returns the bindings grouped for the help screen.
func (k KeyMap) HelpGroups() []struct {
	Title    string
	Bindings []key.Binding
} {
	return []struct {
		Title    string
		Bindings []key.Binding
	}{
		{"Navigation", []key.Binding{k.Up, k.Down, k.Home, k.End, k.PageUp, k.PageDown, k.Enter}},
		{"View", []key.Binding{k.TabAll, k.TabWatchlist, k.NextTab, k.SortPrice, k.SortMarket, k.SortChange, k.Search}},
		{"Actions", []key.Binding{k.Watch, k.Refresh, k.Currency, k.Theme}},
		{"General", []key.Binding{k.Help, k.Escape, k.Quit, k.ForceQuit}},
	}
}
