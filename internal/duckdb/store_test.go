package duckdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/novacrypto/nova/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore(\"\") failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func ptr[T any](v T) *T { return &v }

func testSnapshot(seq uint64, at time.Time, prices map[string]float64) model.Snapshot {
	snap := model.Snapshot{Seq: seq, Currency: "usd", FetchedAt: at}
	for id, p := range prices {
		snap.Rows = append(snap.Rows, model.Row{AssetQuote: model.AssetQuote{
			ID: id, Name: id, Symbol: id, Price: p, MarketCap: p * 10,
			Rank: ptr(1), ChangePct24h: ptr(0.5),
		}})
	}
	return snap
}

func TestPreferencesGetSet(t *testing.T) {
	store := newTestStore(t)

	if _, ok, err := store.Get("nova_crypto_theme"); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v, err %v; want false, nil", ok, err)
	}

	if err := store.Set("nova_crypto_theme", "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set("nova_crypto_theme", "light"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	v, ok, err := store.Get("nova_crypto_theme")
	if err != nil || !ok || v != "light" {
		t.Errorf("Get = %q, %v, %v; want light, true, nil", v, ok, err)
	}
}

func TestPreferencesPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "nova.duckdb")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Set("nova_crypto_watchlist", `["bitcoin"]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	store.Close()

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	v, ok, err := reopened.Get("nova_crypto_watchlist")
	if err != nil || !ok || v != `["bitcoin"]` {
		t.Errorf("Get after reopen = %q, %v, %v", v, ok, err)
	}
}

func TestRecordSnapshotAndHistory(t *testing.T) {
	store := newTestStore(t)
	base := time.Now().UTC().Truncate(time.Second)

	for i, p := range []float64{100, 101, 99} {
		snap := testSnapshot(uint64(i+1), base.Add(time.Duration(i)*time.Minute), map[string]float64{"bitcoin": p, "ethereum": p / 10})
		if err := store.RecordSnapshot(snap); err != nil {
			t.Fatalf("RecordSnapshot #%d: %v", i, err)
		}
	}

	n, err := store.SnapshotCount()
	if err != nil || n != 3 {
		t.Fatalf("SnapshotCount = %d, %v; want 3", n, err)
	}

	points, err := store.PriceHistory("bitcoin", "usd", base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("len(points) = %d, want 3", len(points))
	}
	for i, want := range []float64{100, 101, 99} {
		if points[i].Price != want {
			t.Errorf("points[%d].Price = %v, want %v", i, points[i].Price, want)
		}
	}
	if !points[0].Time.Equal(base) {
		t.Errorf("points[0].Time = %v, want %v", points[0].Time, base)
	}

	recent, err := store.PriceHistory("bitcoin", "usd", base.Add(30*time.Second))
	if err != nil {
		t.Fatalf("PriceHistory since: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("len(recent) = %d, want 2", len(recent))
	}

	other, err := store.PriceHistory("bitcoin", "eur", base.Add(-time.Hour))
	if err != nil || len(other) != 0 {
		t.Errorf("PriceHistory eur = %d points, %v; want 0", len(other), err)
	}
}

func TestRecordSnapshotNilFields(t *testing.T) {
	store := newTestStore(t)
	snap := model.Snapshot{Seq: 1, Currency: "usd", FetchedAt: time.Now(), Rows: []model.Row{
		{AssetQuote: model.AssetQuote{ID: "newcoin", Price: 0}},
	}}
	if err := store.RecordSnapshot(snap); err != nil {
		t.Fatalf("RecordSnapshot with nil rank/change: %v", err)
	}
}

func TestDeleteBefore(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	old := testSnapshot(1, now.Add(-10*24*time.Hour), map[string]float64{"bitcoin": 1, "ethereum": 2})
	fresh := testSnapshot(2, now, map[string]float64{"bitcoin": 3})
	for _, s := range []model.Snapshot{old, fresh} {
		if err := store.RecordSnapshot(s); err != nil {
			t.Fatalf("RecordSnapshot: %v", err)
		}
	}

	deleted, err := store.DeleteBefore(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	if n, _ := store.SnapshotCount(); n != 1 {
		t.Errorf("SnapshotCount = %d, want 1", n)
	}
}
