package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/novacrypto/nova/internal/model"
)

type fakeAPI struct {
	mu         sync.Mutex
	rows       []model.Row
	view       model.ViewState
	status     model.Status
	history    []model.PricePoint
	historyErr error
	actionErr  error
	theme      string
	calls      []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		rows: []model.Row{
			testRow("bitcoin", "Bitcoin", "BTC", 1, 60000, model.DirectionUp),
			testRow("ethereum", "Ethereum", "ETH", 2, 3000, model.DirectionDown),
			testRow("tether", "Tether", "USDT", 3, 1, model.DirectionUnchanged),
		},
		view:   model.DefaultViewState(),
		status: model.Status{State: model.RefreshIdle, LastSeq: 1, AssetCount: 3},
		theme:  "light",
	}
}

func testRow(id, name, symbol string, rank int, price float64, dir model.Direction) model.Row {
	change := 1.5
	if dir == model.DirectionDown {
		change = -2.25
	}
	return model.Row{
		AssetQuote: model.AssetQuote{
			ID:           id,
			Name:         name,
			Symbol:       symbol,
			Rank:         &rank,
			Price:        price,
			MarketCap:    price * 1000,
			Volume24h:    price * 10,
			ChangePct24h: &change,
			Sparkline:    []float64{price * 0.9, price, price * 1.1},
		},
		Direction: dir,
	}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeAPI) called(call string) bool {
	for _, c := range f.Calls() {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeAPI) VisibleRows() ([]model.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Row, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeAPI) View() (model.ViewState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view, nil
}

func (f *fakeAPI) Status() (model.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeAPI) Refresh(ctx context.Context) (model.Snapshot, error) {
	f.record("Refresh")
	return model.Snapshot{}, nil
}

func (f *fakeAPI) SetTab(tab model.Tab) error {
	f.record("SetTab:" + string(tab))
	return f.actionErr
}

func (f *fakeAPI) SetSort(key model.SortKey) error {
	f.record("SetSort:" + string(key))
	return f.actionErr
}

func (f *fakeAPI) SetSortDirection(dir model.SortDirection) error {
	f.record("SetSortDirection:" + string(dir))
	return f.actionErr
}

func (f *fakeAPI) SetSearch(text string) error {
	f.record("SetSearch:" + text)
	return f.actionErr
}

func (f *fakeAPI) SetCurrency(code string) error {
	f.record("SetCurrency:" + code)
	return f.actionErr
}

func (f *fakeAPI) ToggleWatch(id string) (bool, error) {
	f.record("ToggleWatch:" + id)
	return true, f.actionErr
}

func (f *fakeAPI) PriceHistory(ctx context.Context, id string) ([]model.PricePoint, error) {
	f.record("PriceHistory:" + id)
	return f.history, f.historyErr
}

func (f *fakeAPI) Theme() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.theme, nil
}

func (f *fakeAPI) SetTheme(theme string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.theme = theme
	return nil
}

// runCmd executes cmd and flattens batches. Commands that do not return
// promptly (timers) are dropped.
func runCmd(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	select {
	case msg := <-done:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, runCmd(t, c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// drain feeds msgs to page and follows resulting commands a few levels deep.
func drain(t *testing.T, page Page, msgs ...tea.Msg) *PageNav {
	t.Helper()
	var nav *PageNav
	for depth := 0; depth < 5 && len(msgs) > 0; depth++ {
		var next []tea.Msg
		for _, msg := range msgs {
			cmd, n := page.Update(msg)
			if n != nil {
				nav = n
			}
			next = append(next, runCmd(t, cmd)...)
		}
		msgs = next
	}
	return nav
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newLoadedDashboard(t *testing.T, api *fakeAPI) *DashboardPage {
	t.Helper()
	d := NewDashboardPage(api, time.Hour)
	drain(t, d, runCmd(t, d.loadCmd())...)
	if !d.loaded {
		t.Fatal("dashboard did not load")
	}
	return d
}

func mustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("output does not contain %q:\n%s", needle, haystack)
	}
}
