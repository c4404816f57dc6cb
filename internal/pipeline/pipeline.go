// Package pipeline orchestrates market snapshot refreshes and the derived
// dashboard view state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/novacrypto/nova/internal/delta"
	"github.com/novacrypto/nova/internal/format"
	"github.com/novacrypto/nova/internal/model"
	"github.com/novacrypto/nova/internal/prefs"
	"github.com/novacrypto/nova/internal/view"
	"github.com/novacrypto/nova/internal/watchlist"
	"golang.org/x/sync/singleflight"
)

// Config holds optional pipeline settings.
type Config struct {
	// PruneAfter evicts delta entries not seen for this many refreshes; 0 disables.
	PruneAfter int
	// HistoryDays is the detail chart window. Defaults to model.DefaultHistoryDays.
	HistoryDays int
	// FetchTimeout bounds a single snapshot fetch. Defaults to 30s.
	FetchTimeout time.Duration
	// Recorder stores applied snapshots and serves as the history fallback. Optional.
	Recorder model.HistoryRecorder
}

// Pipeline is the market data pipeline. All state is guarded by mu;
// network calls never run while it is held.
type Pipeline struct {
	source      model.MarketDataSource
	prefs       *prefs.Prefs
	recorder    model.HistoryRecorder
	historyDays int
	timeout     time.Duration
	group       singleflight.Group

	mu          sync.Mutex
	view        model.ViewState
	watch       *watchlist.Watchlist
	tracker     *delta.Tracker
	snapshot    *model.Snapshot
	epoch       uint64
	nextSeq     uint64
	appliedSeq  uint64
	inflight    int
	lastRefresh time.Time
	lastErr     string
}

var _ model.DashboardAPI = (*Pipeline)(nil)

// New builds a pipeline, loading the watchlist and currency preference from store.
// store may be nil, in which case nothing is persisted.
func New(source model.MarketDataSource, store model.KeyValueStore, conf ...Config) *Pipeline {
	var cfg Config
	if len(conf) > 0 {
		cfg = conf[0]
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = model.DefaultHistoryDays
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}

	pr := prefs.New(store)
	vs := model.DefaultViewState()
	vs.Currency = pr.Currency()

	return &Pipeline{
		source:      source,
		prefs:       pr,
		recorder:    cfg.Recorder,
		historyDays: cfg.HistoryDays,
		timeout:     cfg.FetchTimeout,
		view:        vs,
		watch:       watchlist.Load(store),
		tracker:     delta.NewTracker(cfg.PruneAfter),
	}
}

// Refresh fetches a new snapshot for the current currency and applies it.
// Concurrent calls for the same epoch share one fetch. A result made stale
// by a currency change returns model.ErrSuperseded and is not applied.
// On failure the previous snapshot is kept.
func (p *Pipeline) Refresh(ctx context.Context) (model.Snapshot, error) {
	p.mu.Lock()
	epoch, currency := p.epoch, p.view.Currency
	p.mu.Unlock()

	key := strconv.FormatUint(epoch, 10) + ":" + currency
	ch := p.group.DoChan(key, func() (any, error) {
		return p.fetchAndApply(context.WithoutCancel(ctx), epoch, currency)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return model.Snapshot{}, res.Err
		}
		return cloneSnapshot(res.Val.(model.Snapshot)), nil
	case <-ctx.Done():
		return model.Snapshot{}, ctx.Err()
	}
}

func (p *Pipeline) fetchAndApply(ctx context.Context, epoch uint64, currency string) (model.Snapshot, error) {
	p.mu.Lock()
	p.nextSeq++
	seq := p.nextSeq
	p.inflight++
	p.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	snap, err := p.source.FetchSnapshot(fetchCtx, currency)
	cancel()

	applied, err := p.apply(epoch, seq, currency, snap, err)
	if err != nil {
		if errors.Is(err, model.ErrSuperseded) {
			log.Printf("pipeline: discarded refresh #%d for %s: %v", seq, currency, err)
		}
		return model.Snapshot{}, err
	}

	if p.recorder != nil {
		if rerr := p.recorder.RecordSnapshot(applied); rerr != nil {
			log.Printf("pipeline: record snapshot #%d: %v", seq, rerr)
		}
	}
	return applied, nil
}

func (p *Pipeline) apply(epoch, seq uint64, currency string, snap model.Snapshot, fetchErr error) (model.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inflight--

	if epoch != p.epoch || seq <= p.appliedSeq {
		return model.Snapshot{}, model.ErrSuperseded
	}
	if fetchErr != nil {
		p.lastErr = fetchErr.Error()
		return model.Snapshot{}, fetchErr
	}

	snap.Seq = seq
	snap.Currency = currency
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	rows := make([]model.Row, len(snap.Rows))
	for i, r := range snap.Rows {
		if prev, ok := p.tracker.Previous(r.ID); ok {
			r.PreviousPrice = &prev
		} else {
			r.PreviousPrice = nil
		}
		r.Direction = p.tracker.Classify(r.ID, r.Price)
		r.Watched = false
		rows[i] = r
	}
	snap.Rows = rows
	if n := p.tracker.EndCycle(); n > 0 {
		log.Printf("pipeline: pruned %d stale price entries", n)
	}

	p.snapshot = &snap
	p.appliedSeq = seq
	p.lastRefresh = snap.FetchedAt
	p.lastErr = ""
	return snap, nil
}

// VisibleRows returns the current snapshot filtered, searched and sorted by
// the view state. It is empty when there is no snapshot for the view's currency.
func (p *Pipeline) VisibleRows() ([]model.Row, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.snapshot == nil || p.snapshot.Currency != p.view.Currency {
		return []model.Row{}, nil
	}
	return view.Derive(p.snapshot, p.watch.Contains, p.view), nil
}

// View returns the current view state.
func (p *Pipeline) View() (model.ViewState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view, nil
}

// Snapshot returns a copy of the current snapshot, if any.
func (p *Pipeline) Snapshot() (model.Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snapshot == nil {
		return model.Snapshot{}, false
	}
	return cloneSnapshot(*p.snapshot), true
}

// Status reports the refresh state.
func (p *Pipeline) Status() (model.Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := model.Status{
		State:       model.RefreshIdle,
		Epoch:       p.epoch,
		LastSeq:     p.appliedSeq,
		LastRefresh: p.lastRefresh,
		LastError:   p.lastErr,
		Stale:       p.snapshot == nil || p.snapshot.Currency != p.view.Currency,
		WatchCount:  p.watch.Len(),
	}
	if p.inflight > 0 {
		st.State = model.RefreshFetching
	}
	if p.snapshot != nil {
		st.AssetCount = len(p.snapshot.Rows)
	}
	return st, nil
}

// Watching reports whether id is on the watchlist.
func (p *Pipeline) Watching(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watch.Contains(id)
}

// SetTab switches between all assets and the watchlist.
func (p *Pipeline) SetTab(tab model.Tab) error {
	if !tab.Valid() {
		return fmt.Errorf("%w: tab %q", model.ErrInvalidView, tab)
	}
	p.mu.Lock()
	p.view.Tab = tab
	p.mu.Unlock()
	return nil
}

// SetSort selects the sort key and flips the direction, whether or not the
// key changed. From the default market/desc view, SetSort(price) sorts
// ascending.
func (p *Pipeline) SetSort(key model.SortKey) error {
	if key == "" {
		return fmt.Errorf("%w: empty sort key", model.ErrInvalidView)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.SortKey = key
	p.view.SortDirection = p.view.SortDirection.Toggle()
	return nil
}

// SetSortDirection sets the sort direction explicitly.
func (p *Pipeline) SetSortDirection(dir model.SortDirection) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: sort direction %q", model.ErrInvalidView, dir)
	}
	p.mu.Lock()
	p.view.SortDirection = dir
	p.mu.Unlock()
	return nil
}

// SetSearch sets the free-text search.
func (p *Pipeline) SetSearch(text string) error {
	p.mu.Lock()
	p.view.Search = text
	p.mu.Unlock()
	return nil
}

// SetCurrency switches the quote currency. The current snapshot and price
// deltas are discarded and in-flight refreshes become superseded.
// Setting the current currency again is a no-op.
func (p *Pipeline) SetCurrency(code string) error {
	code, err := format.NormalizeCurrency(code)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if code == p.view.Currency {
		p.mu.Unlock()
		return nil
	}
	p.view.Currency = code
	p.epoch++
	p.snapshot = nil
	p.tracker.Reset()
	p.mu.Unlock()

	if err := p.prefs.SetCurrency(code); err != nil {
		log.Printf("pipeline: %v", err)
	}
	return nil
}

// ToggleWatch flips watchlist membership of id and returns the new state.
// The snapshot is not refetched.
func (p *Pipeline) ToggleWatch(id string) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("%w: empty asset id", model.ErrInvalidView)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watch.Toggle(id), nil
}

// PriceHistory fetches the detail chart series for id. When the remote fetch
// fails, locally recorded history is used if there is any. Otherwise an empty
// series is returned along with the fetch error; the snapshot is never touched.
func (p *Pipeline) PriceHistory(ctx context.Context, id string) ([]model.PricePoint, error) {
	p.mu.Lock()
	currency := p.view.Currency
	p.mu.Unlock()

	points, err := p.source.FetchPriceHistory(ctx, id, currency, p.historyDays)
	if err == nil {
		if points == nil {
			points = []model.PricePoint{}
		}
		return points, nil
	}

	if p.recorder != nil {
		since := time.Now().AddDate(0, 0, -p.historyDays)
		local, lerr := p.recorder.PriceHistory(id, currency, since)
		if lerr == nil && len(local) > 0 {
			log.Printf("pipeline: history for %s from local record (%d points): %v", id, len(local), err)
			return local, nil
		}
	}
	return []model.PricePoint{}, err
}

func cloneSnapshot(s model.Snapshot) model.Snapshot {
	rows := make([]model.Row, len(s.Rows))
	copy(rows, s.Rows)
	s.Rows = rows
	return s
}
