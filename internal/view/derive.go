// Package view derives the visible row set from a snapshot and view state.
package view

import (
	"sort"
	"strings"

	"github.com/novacrypto/nova/internal/model"
)

// Derive filters, searches and sorts the rows of snap according to vs.
// watched reports watchlist membership and may be nil. The result is a new
// slice; snap is never modified. A nil snapshot yields an empty slice.
func Derive(snap *model.Snapshot, watched func(id string) bool, vs model.ViewState) []model.Row {
	if snap == nil {
		return []model.Row{}
	}
	if watched == nil {
		watched = func(string) bool { return false }
	}

	query := strings.ToLower(vs.Search)
	rows := make([]model.Row, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		r.Watched = watched(r.ID)
		if vs.Tab == model.TabWatchlist && !r.Watched {
			continue
		}
		if query != "" && !Matches(r.AssetQuote, query) {
			continue
		}
		rows = append(rows, r)
	}

	field := SortField(vs.SortKey)
	desc := vs.SortDirection == model.SortDesc
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := field(rows[i].AssetQuote), field(rows[j].AssetQuote)
		if desc {
			return a > b
		}
		return a < b
	})
	return rows
}

// Matches reports whether the lower-cased query is a substring of the
// asset's name or symbol.
func Matches(q model.AssetQuote, query string) bool {
	return strings.Contains(strings.ToLower(q.Name), query) ||
		strings.Contains(strings.ToLower(q.Symbol), query)
}

// SortField returns the numeric accessor for key. Unknown keys sort by market cap.
func SortField(key model.SortKey) func(model.AssetQuote) float64 {
	switch key {
	case model.SortPrice:
		return func(q model.AssetQuote) float64 { return q.Price }
	case model.SortChange:
		return func(q model.AssetQuote) float64 {
			if q.ChangePct24h == nil {
				return 0
			}
			return *q.ChangePct24h
		}
	default:
		return func(q model.AssetQuote) float64 { return q.MarketCap }
	}
}
