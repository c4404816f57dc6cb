package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/novacrypto/nova/internal/model"
)

func (d *DashboardPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case TickMsg:
		if msg.Gen != d.tickGen {
			return nil, nil
		}
		if d.lastError != "" && d.now().Sub(d.lastErrorAt) > errorDisplayTime {
			d.lastError = ""
		}
		if d.tickInFlight {
			return d.tickCmd(), nil
		}
		d.tickInFlight = true
		return tea.Batch(d.loadCmd(), d.refreshCmd(), d.tickCmd()), nil

	case dataLoadedMsg:
		d.tickInFlight = false
		if msg.err != nil {
			d.setError(msg.err)
			return nil, nil
		}
		return d.applyData(msg), nil

	case refreshDoneMsg:
		d.refreshing = false
		d.setError(msg.err)
		return d.loadCmd(), nil

	case actionDoneMsg:
		d.setError(msg.err)
		return d.loadCmd(), nil

	case themeChangedMsg:
		if msg.err != nil {
			d.setError(msg.err)
		}
		d.setError(InitializeTheme(msg.theme, d.themeDir))
		return nil, nil

	case flashExpiredMsg:
		now := d.now()
		for id, f := range d.flashes {
			if !now.Before(f.until) {
				delete(d.flashes, id)
			}
		}
		return nil, nil

	case tea.KeyMsg:
		return d.handleKey(msg)
	}

	if d.search.active {
		// cursor blink
		var cmd tea.Cmd
		d.search.input, cmd = d.search.input.Update(msg)
		return cmd, nil
	}
	return nil, nil
}

// applyData installs freshly loaded rows and flashes the rows whose price
// moved when a new snapshot was applied.
func (d *DashboardPage) applyData(msg dataLoadedMsg) tea.Cmd {
	var selectedID string
	if row, ok := d.selected(); ok {
		selectedID = row.ID
	}

	d.rows = msg.rows
	d.status = msg.status
	if !d.search.active {
		d.view = msg.view
	} else {
		search := d.view.Search
		d.view = msg.view
		d.view.Search = search
	}
	d.loaded = true

	// keep the cursor on the same asset across re-sorts
	d.cursor = min(d.cursor, max(len(d.rows)-1, 0))
	for i, r := range d.rows {
		if r.ID == selectedID {
			d.cursor = i
			break
		}
	}

	if msg.status.LastSeq == d.lastSeq {
		return nil
	}
	d.lastSeq = msg.status.LastSeq

	until := d.now().Add(flashDuration)
	flashed := false
	for _, r := range d.rows {
		if r.Direction == model.DirectionUp || r.Direction == model.DirectionDown {
			d.flashes[r.ID] = flash{dir: r.Direction, until: until}
			flashed = true
		}
	}
	if !flashed {
		return nil
	}
	return tea.Tick(flashDuration, func(_ time.Time) tea.Msg {
		return flashExpiredMsg{}
	})
}

func (d *DashboardPage) handleKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	if key.Matches(msg, d.keys.ForceQuit) {
		return tea.Quit, nil
	}

	if d.showHelp {
		switch {
		case key.Matches(msg, d.keys.Escape), key.Matches(msg, d.keys.Help), key.Matches(msg, d.keys.Quit):
			d.showHelp = false
		case key.Matches(msg, d.keys.Up):
			d.help.ScrollUp()
		case key.Matches(msg, d.keys.Down):
			d.help.ScrollDown()
		}
		return nil, nil
	}

	if d.search.active {
		term, changed, cmd := d.search.Update(msg, d.keys)
		if !changed {
			return cmd, nil
		}
		d.view.Search = term
		d.cursor, d.offset = 0, 0
		api := d.api
		return tea.Batch(cmd, d.mutate(func() error { return api.SetSearch(term) })), nil
	}

	api := d.api
	switch {
	case key.Matches(msg, d.keys.Quit):
		return tea.Quit, nil
	case key.Matches(msg, d.keys.Help):
		d.showHelp = true
	case key.Matches(msg, d.keys.Escape):
		if d.view.Search != "" {
			d.view.Search = ""
			return d.mutate(func() error { return api.SetSearch("") }), nil
		}

	case key.Matches(msg, d.keys.Up):
		d.moveCursor(-1)
	case key.Matches(msg, d.keys.Down):
		d.moveCursor(1)
	case key.Matches(msg, d.keys.PageUp):
		d.moveCursor(-max(d.height, 1))
	case key.Matches(msg, d.keys.PageDown):
		d.moveCursor(max(d.height, 1))
	case key.Matches(msg, d.keys.Home):
		d.cursor = 0
	case key.Matches(msg, d.keys.End):
		d.cursor = max(len(d.rows)-1, 0)
	case key.Matches(msg, d.keys.Enter):
		if row, ok := d.selected(); ok {
			return nil, &PageNav{
				PageID: PageDetail,
				Params: DetailParams{Row: row, Currency: d.view.Currency},
			}
		}

	case key.Matches(msg, d.keys.Search):
		return d.search.Start(d.view.Search), nil
	case key.Matches(msg, d.keys.TabAll):
		return d.setTab(model.TabAll), nil
	case key.Matches(msg, d.keys.TabWatchlist):
		return d.setTab(model.TabWatchlist), nil
	case key.Matches(msg, d.keys.NextTab):
		if d.view.Tab == model.TabWatchlist {
			return d.setTab(model.TabAll), nil
		}
		return d.setTab(model.TabWatchlist), nil
	case key.Matches(msg, d.keys.SortPrice):
		return d.mutate(func() error { return api.SetSort(model.SortPrice) }), nil
	case key.Matches(msg, d.keys.SortMarket):
		return d.mutate(func() error { return api.SetSort(model.SortMarket) }), nil
	case key.Matches(msg, d.keys.SortChange):
		return d.mutate(func() error { return api.SetSort(model.SortChange) }), nil

	case key.Matches(msg, d.keys.Watch):
		if row, ok := d.selected(); ok {
			id := row.ID
			return d.mutate(func() error {
				_, err := api.ToggleWatch(id)
				return err
			}), nil
		}
	case key.Matches(msg, d.keys.Refresh):
		return d.refreshCmd(), nil
	case key.Matches(msg, d.keys.Currency):
		next := d.nextCurrency()
		d.view.Currency = next
		d.rows = nil
		d.cursor, d.offset = 0, 0
		return d.switchCurrencyCmd(next), nil
	case key.Matches(msg, d.keys.Theme):
		return d.toggleThemeCmd(), nil
	}
	return nil, nil
}

func (d *DashboardPage) setTab(tab model.Tab) tea.Cmd {
	if d.view.Tab == tab {
		return nil
	}
	d.view.Tab = tab
	d.cursor, d.offset = 0, 0
	api := d.api
	return d.mutate(func() error { return api.SetTab(tab) })
}

func (d *DashboardPage) moveCursor(delta int) {
	d.cursor += delta
	if d.cursor >= len(d.rows) {
		d.cursor = len(d.rows) - 1
	}
	if d.cursor < 0 {
		d.cursor = 0
	}
}

func (d *DashboardPage) toggleThemeCmd() tea.Cmd {
	next := "dark"
	if ActiveTheme() == "dark" {
		next = "light"
	}
	store := d.themes
	return func() tea.Msg {
		if store == nil {
			return themeChangedMsg{theme: next}
		}
		return themeChangedMsg{theme: next, err: store.SetTheme(next)}
	}
}
