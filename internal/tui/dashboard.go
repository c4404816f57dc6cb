package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/novacrypto/nova/internal/model"
)

const (
	flashDuration    = 900 * time.Millisecond
	errorDisplayTime = 30 * time.Second
	refreshTimeout   = 45 * time.Second
)

// DefaultCurrencies is the cycle offered by the currency key.
var DefaultCurrencies = []string{"usd", "eur", "gbp", "jpy"}

// TickMsg drives the periodic reload. Gen identifies the tick chain so a
// chain restarted by Init does not run alongside a stale one.
type TickMsg struct {
	Gen  int
	Time time.Time
}

type dataLoadedMsg struct {
	rows   []model.Row
	view   model.ViewState
	status model.Status
	err    error
}

type refreshDoneMsg struct {
	err error
}

// actionDoneMsg reports a finished mutation; a reload follows.
type actionDoneMsg struct {
	err error
}

type flashExpiredMsg struct{}

type themeChangedMsg struct {
	theme string
	err   error
}

type flash struct {
	dir   model.Direction
	until time.Time
}

// DashboardPage is the main asset table.
type DashboardPage struct {
	api        model.DashboardAPI
	themes     model.ThemeStore
	themeDir   string
	keys       KeyMap
	interval   time.Duration
	currencies []string
	now        func() time.Time

	rows    []model.Row
	view    model.ViewState
	status  model.Status
	loaded  bool
	lastSeq uint64
	flashes map[string]flash

	cursor int
	offset int
	height int // rows visible in the last render

	search   searchInput
	help     *helpOverlay
	showHelp bool

	tickGen      int
	tickInFlight bool
	refreshing   bool

	lastError   string
	lastErrorAt time.Time
}

// DashboardOption customizes a DashboardPage.
type DashboardOption func(*DashboardPage)

// WithThemeStore enables the theme toggle, persisted through store.
func WithThemeStore(store model.ThemeStore, dir string) DashboardOption {
	return func(d *DashboardPage) {
		d.themes = store
		d.themeDir = dir
	}
}

// WithCurrencies overrides the currency cycle.
func WithCurrencies(codes ...string) DashboardOption {
	return func(d *DashboardPage) {
		if len(codes) > 0 {
			d.currencies = codes
		}
	}
}

// NewDashboardPage creates the dashboard polling api every interval.
func NewDashboardPage(api model.DashboardAPI, interval time.Duration, opts ...DashboardOption) *DashboardPage {
	if interval <= 0 {
		interval = model.DefaultRefreshInterval
	}
	keys := DefaultKeyMap()
	d := &DashboardPage{
		api:        api,
		keys:       keys,
		interval:   interval,
		currencies: DefaultCurrencies,
		now:        time.Now,
		view:       model.DefaultViewState(),
		flashes:    make(map[string]flash),
		search:     newSearchInput(),
		help:       newHelpOverlay(keys),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DashboardPage) ID() string { return PageDashboard }

// Init loads the current state, starts a fresh tick chain and requests an
// immediate refresh from the source.
func (d *DashboardPage) Init() tea.Cmd {
	d.tickGen++
	d.tickInFlight = true
	return tea.Batch(d.loadCmd(), d.tickCmd(), d.refreshCmd())
}

func (d *DashboardPage) tickCmd() tea.Cmd {
	gen := d.tickGen
	return tea.Tick(d.interval, func(t time.Time) tea.Msg {
		return TickMsg{Gen: gen, Time: t}
	})
}

func (d *DashboardPage) loadCmd() tea.Cmd {
	api := d.api
	return func() tea.Msg {
		rows, err := api.VisibleRows()
		if err != nil {
			return dataLoadedMsg{err: err}
		}
		vs, err := api.View()
		if err != nil {
			return dataLoadedMsg{err: err}
		}
		st, err := api.Status()
		if err != nil {
			return dataLoadedMsg{err: err}
		}
		return dataLoadedMsg{rows: rows, view: vs, status: st}
	}
}

func (d *DashboardPage) refreshCmd() tea.Cmd {
	if d.refreshing {
		return nil
	}
	d.refreshing = true
	api := d.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		_, err := api.Refresh(ctx)
		return refreshDoneMsg{err: err}
	}
}

// switchCurrencyCmd sets the currency, then refreshes under the new epoch.
// A refresh already in flight is for the old currency, so the guard is skipped.
func (d *DashboardPage) switchCurrencyCmd(code string) tea.Cmd {
	d.refreshing = true
	api := d.api
	return func() tea.Msg {
		if err := api.SetCurrency(code); err != nil {
			return refreshDoneMsg{err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		_, err := api.Refresh(ctx)
		return refreshDoneMsg{err: err}
	}
}

// mutate runs fn off the UI goroutine and reports through actionDoneMsg.
func (d *DashboardPage) mutate(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: fn()}
	}
}

func (d *DashboardPage) setError(err error) {
	if err == nil || errors.Is(err, model.ErrSuperseded) || errors.Is(err, context.Canceled) {
		return
	}
	d.lastError = err.Error()
	d.lastErrorAt = d.now()
}

// selected returns the row under the cursor.
func (d *DashboardPage) selected() (model.Row, bool) {
	if d.cursor < 0 || d.cursor >= len(d.rows) {
		return model.Row{}, false
	}
	return d.rows[d.cursor], true
}

// flashFor returns the active flash direction of id, if any.
func (d *DashboardPage) flashFor(id string) (model.Direction, bool) {
	f, ok := d.flashes[id]
	if !ok || !d.now().Before(f.until) {
		return "", false
	}
	return f.dir, true
}

func (d *DashboardPage) nextCurrency() string {
	if len(d.currencies) == 0 {
		return d.view.Currency
	}
	for i, c := range d.currencies {
		if c == d.view.Currency {
			return d.currencies[(i+1)%len(d.currencies)]
		}
	}
	return d.currencies[0]
}
