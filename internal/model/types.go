package model

import "time"

// Direction classifies a price against the previous observation of the same asset.
type Direction string

const (
	DirectionUnknown   Direction = "unknown"
	DirectionUnchanged Direction = "unchanged"
	DirectionUp        Direction = "up"
	DirectionDown      Direction = "down"
)

// Tab selects which subset of the snapshot is visible.
type Tab string

const (
	TabAll       Tab = "all"
	TabWatchlist Tab = "watchlist"
)

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	return t == TabAll || t == TabWatchlist
}

// SortKey is the logical sort column. Unknown keys sort by market cap.
type SortKey string

const (
	SortPrice  SortKey = "price"
	SortMarket SortKey = "market"
	SortChange SortKey = "change"
)

// SortDirection is the sort order.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Valid reports whether d is asc or desc.
func (d SortDirection) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// Toggle returns the opposite direction.
func (d SortDirection) Toggle() SortDirection {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// AssetQuote is one ranked asset as reported by the market data source.
// Numeric fields are never negative except ChangePct24h.
type AssetQuote struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Symbol       string    `json:"symbol"` // upper-cased
	Image        string    `json:"image,omitempty"`
	Rank         *int      `json:"rank,omitempty"`
	Price        float64   `json:"price"`
	MarketCap    float64   `json:"market_cap"`
	Volume24h    float64   `json:"volume_24h"`
	ChangePct24h *float64  `json:"change_pct_24h,omitempty"`
	Sparkline    []float64 `json:"sparkline,omitempty"`
}

// Row is an AssetQuote annotated with its price delta and watch state.
type Row struct {
	AssetQuote
	Direction     Direction `json:"direction"`
	PreviousPrice *float64  `json:"previous_price,omitempty"`
	Watched       bool      `json:"watched"`
}

// Snapshot is one complete fetched set of rows for a quote currency.
// It is replaced wholesale on refresh and never mutated after publication.
type Snapshot struct {
	Seq       uint64    `json:"seq"`
	Currency  string    `json:"currency"`
	FetchedAt time.Time `json:"fetched_at"`
	Rows      []Row     `json:"rows"`
}

// PricePoint is one sample of an asset's price series.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// ViewState is the renderer-independent query state of the dashboard.
type ViewState struct {
	Tab           Tab           `json:"tab"`
	SortKey       SortKey       `json:"sort_key"`
	SortDirection SortDirection `json:"sort_direction"`
	Search        string        `json:"search"`
	Currency      string        `json:"currency"`
}

// DefaultViewState returns the initial view: every asset, largest market cap first.
func DefaultViewState() ViewState {
	return ViewState{
		Tab:           TabAll,
		SortKey:       SortMarket,
		SortDirection: SortDesc,
		Currency:      DefaultCurrency,
	}
}

// RefreshState is the pipeline's refresh state machine position.
type RefreshState string

const (
	RefreshIdle     RefreshState = "idle"
	RefreshFetching RefreshState = "fetching"
)

// Status summarizes the refresh cycle for status bars and health checks.
type Status struct {
	State       RefreshState `json:"state"`
	Epoch       uint64       `json:"epoch"`
	LastSeq     uint64       `json:"last_seq"`
	LastRefresh time.Time    `json:"last_refresh"`
	LastError   string       `json:"last_error,omitempty"`
	Stale       bool         `json:"stale"` // no snapshot for the current currency
	AssetCount  int          `json:"asset_count"`
	WatchCount  int          `json:"watch_count"`
}
