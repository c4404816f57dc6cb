package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/novacrypto/nova/internal/format"
	"github.com/novacrypto/nova/internal/model"
)

const historyTimeout = 30 * time.Second

// DetailParams selects the asset shown by the detail page.
type DetailParams struct {
	Row      model.Row
	Currency string
}

type historyLoadedMsg struct {
	id     string
	points []model.PricePoint
	err    error
}

type detailWatchMsg struct {
	id      string
	watched bool
	err     error
}

// DetailPage shows one asset with its recent price history.
type DetailPage struct {
	api  model.DashboardAPI
	keys KeyMap

	row      model.Row
	currency string
	points   []model.PricePoint
	err      error
	loading  bool
}

// NewDetailPage creates the asset detail page.
func NewDetailPage(api model.DashboardAPI) *DetailPage {
	return &DetailPage{api: api, keys: DefaultKeyMap()}
}

func (p *DetailPage) ID() string { return PageDetail }

// SetParams switches the page to another asset and drops the old series.
func (p *DetailPage) SetParams(params any) {
	dp, ok := params.(DetailParams)
	if !ok {
		return
	}
	p.row = dp.Row
	p.currency = dp.Currency
	p.points = nil
	p.err = nil
	p.loading = true
}

func (p *DetailPage) Init() tea.Cmd {
	if p.row.ID == "" {
		return nil
	}
	api := p.api
	id := p.row.ID
	load := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		points, err := api.PriceHistory(ctx, id)
		return historyLoadedMsg{id: id, points: points, err: err}
	}
	return tea.Batch(load, spinnerTick())
}

func (p *DetailPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.id != p.row.ID {
			return nil, nil
		}
		p.loading = false
		p.points = msg.points
		p.err = msg.err
	case detailWatchMsg:
		if msg.err == nil && msg.id == p.row.ID {
			p.row.Watched = msg.watched
		}
	case SpinnerTickMsg:
		if p.loading {
			return spinnerTick(), nil
		}
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.ForceQuit):
			return tea.Quit, nil
		case key.Matches(msg, p.keys.Escape), key.Matches(msg, p.keys.Quit), key.Matches(msg, p.keys.Enter):
			return nil, &PageNav{PageID: PageDashboard}
		case key.Matches(msg, p.keys.Watch):
			api := p.api
			id := p.row.ID
			return func() tea.Msg {
				watched, err := api.ToggleWatch(id)
				return detailWatchMsg{id: id, watched: watched, err: err}
			}, nil
		}
	}
	return nil, nil
}

func (p *DetailPage) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	header := p.renderHeader()
	footer := lipgloss.NewStyle().Foreground(ColorMuted).Render("esc back • w watch/unwatch • ctrl+c quit")
	chartH := max(height-lipgloss.Height(header)-lipgloss.Height(footer)-1, 3)

	var body string
	switch {
	case p.loading:
		body = renderLoadingPlaceholder("Loading price history…", width, chartH)
	case len(p.points) == 0:
		text := "No price history"
		if p.err != nil {
			text = "Price history unavailable: " + p.err.Error()
		}
		body = lipgloss.Place(width, chartH, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Foreground(ColorDown).Render(text))
	default:
		body = p.renderChart(width, chartH)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, footer)
}

func (p *DetailPage) renderHeader() string {
	r := p.row
	star := "☆"
	if r.Watched {
		star = "★"
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).
		Render(fmt.Sprintf("%s %s (%s)", star, r.Name, r.Symbol))

	changeStyle := lipgloss.NewStyle().Foreground(ColorUp)
	if r.ChangePct24h != nil && *r.ChangePct24h < 0 {
		changeStyle = changeStyle.Foreground(ColorDown)
	}
	label := lipgloss.NewStyle().Foreground(ColorMuted)

	rank := "n/a"
	if r.Rank != nil {
		rank = fmt.Sprintf("#%d", *r.Rank)
	}
	lines := []string{
		title,
		label.Render("price      ") + format.Currency(r.Price, p.currency) + "  " +
			changeStyle.Render(format.Percent(r.ChangePct24h)),
		label.Render("market cap ") + format.Currency(r.MarketCap, p.currency),
		label.Render("volume 24h ") + format.Currency(r.Volume24h, p.currency),
		label.Render("rank       ") + rank,
	}
	if len(r.Sparkline) > 0 {
		sl := sparkline.New(32, 1, sparkline.WithStyle(lipgloss.NewStyle().Foreground(ColorAccent)))
		sl.PushAll(r.Sparkline)
		sl.Draw()
		lines = append(lines, label.Render("7d         ")+sl.View())
	}
	return strings.Join(lines, "\n")
}

func (p *DetailPage) renderChart(width, height int) string {
	prices := make([]float64, len(p.points))
	for i, pt := range p.points {
		prices[i] = pt.Price
	}
	lo, hi, last := prices[0], prices[0], prices[len(prices)-1]
	for _, v := range prices {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	summary := lipgloss.NewStyle().Foreground(ColorMuted).Render(fmt.Sprintf(
		"%d-day  low %s  high %s  last %s",
		model.DefaultHistoryDays,
		format.Currency(lo, p.currency),
		format.Currency(hi, p.currency),
		format.Currency(last, p.currency),
	))

	chartW := max(width-2, 4)
	chartH := max(height-1, 2)
	buckets := bucketPrices(prices, chartW/2)

	// Bars start slightly below the low so the variation stays visible.
	floor := lo - (hi-lo)*0.05
	if hi == lo {
		floor = lo * 0.95
	}

	bc := barchart.New(chartW, chartH,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)
	style := lipgloss.NewStyle().Foreground(ColorAccent)
	for _, v := range buckets {
		bc.Push(barchart.BarData{
			Label: "",
			Values: []barchart.BarValue{
				{Name: "price", Value: max(v-floor, 0), Style: style},
			},
		})
	}
	bc.Draw()
	return lipgloss.JoinVertical(lipgloss.Left, summary, bc.View())
}

// bucketPrices averages prices into at most n consecutive buckets.
func bucketPrices(prices []float64, n int) []float64 {
	if n <= 0 || len(prices) == 0 {
		return nil
	}
	if len(prices) <= n {
		out := make([]float64, len(prices))
		copy(out, prices)
		return out
	}
	out := make([]float64, n)
	for i := range n {
		start := i * len(prices) / n
		end := (i + 1) * len(prices) / n
		var sum float64
		for _, v := range prices[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
