package model

import (
	"context"
	"time"
)

// MarketDataSource fetches market data. Both calls are idempotent reads.
type MarketDataSource interface {
	// FetchSnapshot returns the ranked asset list priced in currency.
	FetchSnapshot(ctx context.Context, currency string) (Snapshot, error)
	// FetchPriceHistory returns the price series of one asset over the last days.
	FetchPriceHistory(ctx context.Context, id, currency string, days int) ([]PricePoint, error)
}

// KeyValueStore persists small opaque string blobs.
type KeyValueStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// HistoryRecorder stores applied snapshots and answers local price history queries.
type HistoryRecorder interface {
	RecordSnapshot(snap Snapshot) error
	PriceHistory(id, currency string, since time.Time) ([]PricePoint, error)
}

// DashboardReader provides the read-side queries a renderer polls.
type DashboardReader interface {
	VisibleRows() ([]Row, error)
	View() (ViewState, error)
	Status() (Status, error)
}

// DashboardWriter provides the mutating operations of the dashboard.
type DashboardWriter interface {
	Refresh(ctx context.Context) (Snapshot, error)
	SetTab(tab Tab) error
	SetSort(key SortKey) error
	SetSortDirection(dir SortDirection) error
	SetSearch(text string) error
	SetCurrency(code string) error
	ToggleWatch(id string) (bool, error)
	PriceHistory(ctx context.Context, id string) ([]PricePoint, error)
}

// DashboardAPI is the unified contract for read/write surfaces (TUI, socket RPC, HTTP).
type DashboardAPI interface {
	DashboardReader
	DashboardWriter
}

// ThemeStore reads and writes the persisted renderer theme.
type ThemeStore interface {
	Theme() (string, error)
	SetTheme(theme string) error
}
