// Package coingecko implements model.MarketDataSource against a
// CoinGecko-compatible REST API.
package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/novacrypto/nova/internal/model"
)

// DefaultBaseURL is the public CoinGecko v3 endpoint.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Config controls the HTTP client.
type Config struct {
	BaseURL string
	APIKey  string // sent as x-cg-demo-api-key when set
	PerPage int
	Timeout time.Duration
	Retries int
}

// Client fetches market snapshots and price charts.
type Client struct {
	client  *resty.Client
	perPage int
	now     func() time.Time
}

var _ model.MarketDataSource = (*Client)(nil)

// New creates a client. Zero config fields fall back to defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = model.DefaultPerPage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("x-cg-demo-api-key", cfg.APIKey)
	}
	if cfg.Retries > 0 {
		client.SetRetryCount(cfg.Retries)
		client.SetRetryWaitTime(500 * time.Millisecond)
		client.SetRetryMaxWaitTime(5 * time.Second)
		client.AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})
	}

	return &Client{
		client:  client,
		perPage: cfg.PerPage,
		now:     time.Now,
	}
}

type marketEntry struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	MarketCapRank            *int     `json:"market_cap_rank"`
	TotalVolume              *float64 `json:"total_volume"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	SparklineIn7d            *struct {
		Price []float64 `json:"price"`
	} `json:"sparkline_in_7d"`
}

type marketChart struct {
	Prices [][]float64 `json:"prices"`
}

// FetchSnapshot retrieves the top assets by market cap priced in currency.
func (c *Client) FetchSnapshot(ctx context.Context, currency string) (model.Snapshot, error) {
	const op = "coingecko: markets"

	var entries []marketEntry
	if err := c.get(ctx, op, "/coins/markets", map[string]string{
		"vs_currency":             strings.ToLower(currency),
		"order":                   "market_cap_desc",
		"per_page":                strconv.Itoa(c.perPage),
		"page":                    "1",
		"sparkline":               "true",
		"price_change_percentage": "24h",
	}, &entries); err != nil {
		return model.Snapshot{}, err
	}

	return model.Snapshot{
		Currency:  strings.ToLower(currency),
		FetchedAt: c.now(),
		Rows:      normalize(entries),
	}, nil
}

// FetchPriceHistory retrieves the price series of one asset over the last days.
func (c *Client) FetchPriceHistory(ctx context.Context, id, currency string, days int) ([]model.PricePoint, error) {
	const op = "coingecko: market chart"
	if days <= 0 {
		days = model.DefaultHistoryDays
	}

	var chart marketChart
	path := "/coins/" + url.PathEscape(id) + "/market_chart"
	if err := c.get(ctx, op, path, map[string]string{
		"vs_currency": strings.ToLower(currency),
		"days":        strconv.Itoa(days),
	}, &chart); err != nil {
		return nil, err
	}

	points := make([]model.PricePoint, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		if len(p) < 2 || p[1] < 0 {
			continue
		}
		points = append(points, model.PricePoint{
			Time:  time.UnixMilli(int64(p[0])).UTC(),
			Price: p[1],
		})
	}
	return points, nil
}

func (c *Client) get(ctx context.Context, op, path string, query map[string]string, out any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		return &model.NetworkError{Op: op, Err: err}
	}
	if !resp.IsSuccess() {
		return &model.NetworkError{
			Op:         op,
			StatusCode: resp.StatusCode(),
			Err:        errors.New(strings.TrimSpace(truncate(resp.String(), 200))),
		}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &model.DecodeError{Op: op, Err: err}
	}
	return nil
}

// normalize converts wire entries into rows, dropping entries without an id,
// duplicates and entries with negative amounts.
func normalize(entries []marketEntry) []model.Row {
	rows := make([]model.Row, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			log.Printf("coingecko: skipping entry without id (%q)", e.Name)
			continue
		}
		if _, dup := seen[e.ID]; dup {
			log.Printf("coingecko: skipping duplicate id %q", e.ID)
			continue
		}
		price, mcap, vol := deref(e.CurrentPrice), deref(e.MarketCap), deref(e.TotalVolume)
		if price < 0 || mcap < 0 || vol < 0 {
			log.Printf("coingecko: skipping %q with negative amounts", e.ID)
			continue
		}
		seen[e.ID] = struct{}{}

		q := model.AssetQuote{
			ID:           e.ID,
			Name:         e.Name,
			Symbol:       strings.ToUpper(e.Symbol),
			Image:        e.Image,
			Rank:         e.MarketCapRank,
			Price:        price,
			MarketCap:    mcap,
			Volume24h:    vol,
			ChangePct24h: e.PriceChangePercentage24h,
		}
		if e.SparklineIn7d != nil {
			q.Sparkline = e.SparklineIn7d.Price
		}
		rows = append(rows, model.Row{AssetQuote: q, Direction: model.DirectionUnknown})
	}
	return rows
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
