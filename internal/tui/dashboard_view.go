package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/novacrypto/nova/internal/format"
	"github.com/novacrypto/nova/internal/model"
)

type column struct {
	title string
	width int
	right bool
}

type tableLayout struct {
	rank, name, price, change, mcap, volume, spark, watch column
	showVolume, showSpark                                  bool
}

func layoutFor(width int) tableLayout {
	l := tableLayout{
		rank:   column{"#", 4, true},
		price:  column{"Price", 14, true},
		change: column{"24h", 9, true},
		mcap:   column{"Market Cap", 18, true},
		volume: column{"Volume 24h", 18, true},
		spark:  column{"7d", 16, false},
		watch:  column{"", 2, false},
	}
	fixed := l.rank.width + l.price.width + l.change.width + l.mcap.width + l.watch.width + 5
	l.showSpark = width-fixed-l.volume.width-l.spark.width-2 >= 16
	l.showVolume = width-fixed-l.volume.width-1 >= 16
	if l.showVolume {
		fixed += l.volume.width + 1
	}
	if l.showSpark {
		fixed += l.spark.width + 1
	}
	l.name = column{"Name", max(width-fixed, 8), false}
	return l
}

func (l tableLayout) columns() []column {
	cols := []column{l.watch, l.rank, l.name, l.price, l.change, l.mcap}
	if l.showVolume {
		cols = append(cols, l.volume)
	}
	if l.showSpark {
		cols = append(cols, l.spark)
	}
	return cols
}

func cell(text string, c column) string {
	if lipgloss.Width(text) > c.width {
		r := []rune(text)
		if len(r) > c.width {
			text = string(r[:max(c.width-1, 0)]) + "…"
		}
	}
	style := lipgloss.NewStyle().Width(c.width).MaxWidth(c.width)
	if c.right {
		style = style.Align(lipgloss.Right)
	}
	return style.Render(text)
}

func (d *DashboardPage) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if d.showHelp {
		return d.help.View(width, height)
	}

	header := d.renderHeader(width)
	status := d.renderStatusLine(width)

	var searchLine string
	if d.search.active {
		searchLine = d.search.View()
	} else if d.view.Search != "" {
		searchLine = lipgloss.NewStyle().Foreground(ColorMuted).
			Render(fmt.Sprintf("search: %q (esc to clear)", d.view.Search))
	}

	used := lipgloss.Height(header) + lipgloss.Height(status)
	if searchLine != "" {
		used += lipgloss.Height(searchLine)
	}
	body := d.renderTable(width, max(height-used, 1))

	parts := []string{header}
	if searchLine != "" {
		parts = append(parts, searchLine)
	}
	parts = append(parts, body, status)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderNovaBranding renders "Nova" with a violet to blue gradient.
func renderNovaBranding(bg lipgloss.Color) string {
	colors := []string{"#B46CF0", "#9277F2", "#6F83F4", "#4C8EF6"}
	var b strings.Builder
	for i, ch := range "Nova" {
		b.WriteString(lipgloss.NewStyle().
			Background(bg).
			Foreground(lipgloss.Color(colors[i])).
			Bold(true).
			Render(string(ch)))
	}
	return b.String()
}

func (d *DashboardPage) renderHeader(width int) string {
	active := lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).Underline(true)
	inactive := lipgloss.NewStyle().Foreground(ColorMuted)

	tabs := []struct {
		tab   model.Tab
		label string
	}{
		{model.TabAll, fmt.Sprintf("1 All (%d)", d.status.AssetCount)},
		{model.TabWatchlist, fmt.Sprintf("2 Watchlist (%d)", d.status.WatchCount)},
	}
	var left []string
	for _, t := range tabs {
		if d.view.Tab == t.tab {
			left = append(left, active.Render(t.label))
		} else {
			left = append(left, inactive.Render(t.label))
		}
	}
	leftText := strings.Join(left, "   ")

	arrow := "↓"
	if d.view.SortDirection == model.SortAsc {
		arrow = "↑"
	}
	rightText := lipgloss.NewStyle().Foreground(ColorMuted).Render(
		fmt.Sprintf("%s  sort: %s %s", strings.ToUpper(d.view.Currency), d.view.SortKey, arrow))

	gap := width - lipgloss.Width(leftText) - lipgloss.Width(rightText)
	if gap < 1 {
		return leftText
	}
	return leftText + strings.Repeat(" ", gap) + rightText
}

func (d *DashboardPage) renderTable(width, height int) string {
	if !d.loaded {
		return renderLoadingPlaceholder("Loading markets…", width, height)
	}
	if len(d.rows) == 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Foreground(ColorMuted).Render(d.emptyMessage()))
	}

	l := layoutFor(width)
	cols := l.columns()

	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = cell(c.title, c)
	}
	head := lipgloss.NewStyle().Bold(true).Foreground(ColorMuted).
		Render(strings.Join(titles, " "))

	visible := max(height-1, 1)
	d.height = visible
	if d.cursor < d.offset {
		d.offset = d.cursor
	}
	if d.cursor >= d.offset+visible {
		d.offset = d.cursor - visible + 1
	}
	d.offset = max(min(d.offset, len(d.rows)-visible), 0)

	lines := []string{head}
	end := min(d.offset+visible, len(d.rows))
	for i := d.offset; i < end; i++ {
		lines = append(lines, d.renderRow(d.rows[i], l, i == d.cursor))
	}
	return lipgloss.NewStyle().Height(height).Render(strings.Join(lines, "\n"))
}

func (d *DashboardPage) emptyMessage() string {
	switch {
	case d.status.Stale && d.status.State == model.RefreshFetching:
		return fmt.Sprintf("Fetching %s prices…", strings.ToUpper(d.view.Currency))
	case d.view.Search != "":
		return fmt.Sprintf("No assets match %q", d.view.Search)
	case d.view.Tab == model.TabWatchlist:
		return "Your watchlist is empty. Press w on an asset to watch it."
	case d.status.Stale:
		return "No market data yet. Press r to refresh."
	default:
		return "No assets"
	}
}

func (d *DashboardPage) renderRow(r model.Row, l tableLayout, selected bool) string {
	star := "☆"
	if r.Watched {
		star = "★"
	}
	rank := ""
	if r.Rank != nil {
		rank = fmt.Sprintf("%d", *r.Rank)
	}
	name := fmt.Sprintf("%s %s", r.Name, r.Symbol)

	changeStyle := lipgloss.NewStyle()
	if r.ChangePct24h != nil {
		if *r.ChangePct24h < 0 {
			changeStyle = changeStyle.Foreground(ColorDown)
		} else {
			changeStyle = changeStyle.Foreground(ColorUp)
		}
	}

	cells := []string{
		cell(star, l.watch),
		cell(rank, l.rank),
		cell(name, l.name),
		cell(format.Currency(r.Price, d.view.Currency), l.price),
		changeStyle.Render(cell(format.Percent(r.ChangePct24h), l.change)),
		cell(format.Currency(r.MarketCap, d.view.Currency), l.mcap),
	}
	if l.showVolume {
		cells = append(cells, cell(format.Currency(r.Volume24h, d.view.Currency), l.volume))
	}
	if l.showSpark {
		cells = append(cells, cell(format.Sparkline(r.Sparkline, l.spark.width), l.spark))
	}
	line := strings.Join(cells, " ")

	style := lipgloss.NewStyle()
	if dir, ok := d.flashFor(r.ID); ok {
		if dir == model.DirectionUp {
			style = style.Foreground(ColorUp).Bold(true)
		} else {
			style = style.Foreground(ColorDown).Bold(true)
		}
	}
	if selected {
		style = style.Background(ColorSelection)
	}
	return style.Render(line)
}

func (d *DashboardPage) renderStatusLine(width int) string {
	base := lipgloss.NewStyle().Background(ColorStatusBar).Foreground(ColorStatusText)

	var dot string
	switch {
	case d.status.LastError != "":
		dot = base.Foreground(lipgloss.Color("#FF4444")).Render("●")
	case d.status.State == model.RefreshFetching || d.status.Stale:
		dot = base.Foreground(lipgloss.Color("#FFAA00")).Render("●")
	default:
		dot = base.Foreground(lipgloss.Color("#44FF44")).Render("●")
	}

	updated := "never"
	if !d.status.LastRefresh.IsZero() {
		updated = d.status.LastRefresh.Local().Format(time.TimeOnly)
	}

	leftText := base.Render(" ") + dot + base.Render(" updated "+updated)

	var rightParts []string
	if d.lastError != "" && d.now().Sub(d.lastErrorAt) < errorDisplayTime {
		rightParts = append(rightParts, base.Foreground(lipgloss.Color("#FF6666")).Faint(true).Render("error"))
	}
	if width >= 60 {
		rightParts = append(rightParts, base.Render("?: Help • q: Quit"))
	}
	if width >= 30 {
		rightParts = append(rightParts, renderNovaBranding(ColorStatusBar))
	}
	rightText := strings.Join(rightParts, base.Render("  ")) + base.Render(" ")

	gap := width - lipgloss.Width(leftText) - lipgloss.Width(rightText)
	if gap < 0 {
		return base.Width(width).MaxWidth(width).Render(leftText)
	}
	return leftText + base.Render(strings.Repeat(" ", gap)) + rightText
}
