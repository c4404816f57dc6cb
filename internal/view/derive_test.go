package view

import (
	"reflect"
	"testing"

	"github.com/novacrypto/nova/internal/model"
)

func pct(v float64) *float64 { return &v }

func row(id, name, symbol string, price, mcap float64, change *float64) model.Row {
	return model.Row{AssetQuote: model.AssetQuote{
		ID: id, Name: name, Symbol: symbol,
		Price: price, MarketCap: mcap, ChangePct24h: change,
	}}
}

func testSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Currency: "usd",
		Rows: []model.Row{
			row("bitcoin", "Bitcoin", "BTC", 60000, 1200, pct(1.5)),
			row("ethereum", "Ethereum", "ETH", 3000, 400, pct(-2)),
			row("tether", "Tether", "USDT", 1, 100, nil),
			row("solana", "Solana", "SOL", 150, 80, pct(7)),
			row("usdc", "USD Coin", "USDC", 1, 30, pct(0)),
		},
	}
}

func ids(rows []model.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestDeriveSorts(t *testing.T) {
	snap := testSnapshot()
	tests := []struct {
		name string
		key  model.SortKey
		dir  model.SortDirection
		want []string
	}{
		{"market desc", model.SortMarket, model.SortDesc, []string{"bitcoin", "ethereum", "tether", "solana", "usdc"}},
		{"price asc stable", model.SortPrice, model.SortAsc, []string{"tether", "usdc", "solana", "ethereum", "bitcoin"}},
		{"change desc nil as zero", model.SortChange, model.SortDesc, []string{"solana", "bitcoin", "tether", "usdc", "ethereum"}},
		{"unknown key falls back to market", model.SortKey("volume"), model.SortAsc, []string{"usdc", "solana", "tether", "ethereum", "bitcoin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs := model.DefaultViewState()
			vs.SortKey, vs.SortDirection = tt.key, tt.dir
			got := ids(Derive(snap, nil, vs))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Derive = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeriveSearch(t *testing.T) {
	snap := testSnapshot()
	vs := model.DefaultViewState()

	vs.Search = "usd"
	got := ids(Derive(snap, nil, vs))
	want := []string{"tether", "usdc"} // USDT symbol, USD Coin name
	if !reflect.DeepEqual(got, want) {
		t.Errorf("search usd = %v, want %v", got, want)
	}

	// whitespace is part of the substring
	vs.Search = "usd "
	if got := ids(Derive(snap, nil, vs)); !reflect.DeepEqual(got, []string{"usdc"}) {
		t.Errorf("search %q = %v, want [usdc]", vs.Search, got)
	}
	vs.Search = " usd"
	if got := ids(Derive(snap, nil, vs)); len(got) != 0 {
		t.Errorf("search %q = %v, want none", vs.Search, got)
	}

	// "tether" contains "eth" as well.
	vs.Search = "ETH"
	if got := ids(Derive(snap, nil, vs)); !reflect.DeepEqual(got, []string{"ethereum", "tether"}) {
		t.Errorf("search ETH = %v, want [ethereum tether]", got)
	}

	vs.Search = "zzz"
	if got := Derive(snap, nil, vs); got == nil || len(got) != 0 {
		t.Errorf("no-match search = %#v, want empty non-nil slice", got)
	}
}

func TestDeriveWatchlistTab(t *testing.T) {
	snap := testSnapshot()
	watched := map[string]bool{"solana": true, "tether": true}
	vs := model.DefaultViewState()
	vs.Tab = model.TabWatchlist

	rows := Derive(snap, func(id string) bool { return watched[id] }, vs)
	if got := ids(rows); !reflect.DeepEqual(got, []string{"tether", "solana"}) {
		t.Fatalf("watchlist tab = %v, want [tether solana]", got)
	}
	for _, r := range rows {
		if !r.Watched {
			t.Errorf("row %s not annotated as watched", r.ID)
		}
	}

	vs.Tab = model.TabAll
	all := Derive(snap, func(id string) bool { return watched[id] }, vs)
	if len(all) != len(snap.Rows) {
		t.Errorf("all tab returned %d rows, want %d", len(all), len(snap.Rows))
	}
}

func TestDeriveDeterministicAndPure(t *testing.T) {
	snap := testSnapshot()
	before := ids(snap.Rows)
	vs := model.DefaultViewState()
	vs.SortKey, vs.SortDirection = model.SortPrice, model.SortAsc

	a := Derive(snap, nil, vs)
	b := Derive(snap, nil, vs)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different outputs")
	}
	if !reflect.DeepEqual(ids(snap.Rows), before) {
		t.Error("Derive reordered the snapshot rows")
	}

	a[0].Name = "mutated"
	if snap.Rows[2].Name == "mutated" || b[0].Name == "mutated" {
		t.Error("result shares backing storage with the snapshot or other results")
	}
}

func TestDeriveNilSnapshot(t *testing.T) {
	got := Derive(nil, nil, model.DefaultViewState())
	if got == nil || len(got) != 0 {
		t.Errorf("Derive(nil) = %#v, want empty non-nil slice", got)
	}
}
