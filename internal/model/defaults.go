package model

import "time"

// Shared defaults used by the daemon, the TUI client and the pipeline.
const (
	DefaultRefreshInterval = 20 * time.Second
	DefaultCurrency        = "usd"
	DefaultTheme           = "light"
	DefaultHistoryDays     = 7
	DefaultPerPage         = 50
)

// Persisted preference keys. The values are kept compatible with the
// browser build so an exported localStorage dump can be imported as-is.
const (
	KeyTheme     = "nova_crypto_theme"
	KeyCurrency  = "nova_crypto_currency"
	KeyWatchlist = "nova_crypto_watchlist"
)
