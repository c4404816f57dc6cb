package pipeline

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/novacrypto/nova/internal/model"
)

// Refresher is the part of the pipeline the auto refresher drives.
type Refresher interface {
	Refresh(ctx context.Context) (model.Snapshot, error)
}

// AutoRefresher refreshes once on start and then once per interval.
type AutoRefresher struct {
	target   Refresher
	interval time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewAutoRefresher starts refreshing target in the background.
// A non-positive interval uses model.DefaultRefreshInterval.
func NewAutoRefresher(target Refresher, interval time.Duration) *AutoRefresher {
	if interval <= 0 {
		interval = model.DefaultRefreshInterval
	}
	a := &AutoRefresher{
		target:   target,
		interval: interval,
		done:     make(chan struct{}),
	}
	a.wg.Add(1)
	go a.loop()
	return a
}

func (a *AutoRefresher) loop() {
	defer a.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-a.done
		cancel()
	}()

	a.refresh(ctx)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.refresh(ctx)
		case <-a.done:
			return
		}
	}
}

func (a *AutoRefresher) refresh(ctx context.Context) {
	snap, err := a.target.Refresh(ctx)
	switch {
	case err == nil:
		log.Printf("pipeline: refreshed %d assets (%s, #%d)", len(snap.Rows), snap.Currency, snap.Seq)
	case errors.Is(err, model.ErrSuperseded), errors.Is(err, context.Canceled):
	default:
		log.Printf("pipeline: refresh failed, keeping last snapshot: %v", err)
	}
}

// Stop stops the refresher and waits for the loop to exit. Safe to call
// more than once.
func (a *AutoRefresher) Stop() {
	a.stopOnce.Do(func() {
		close(a.done)
		a.wg.Wait()
	})
}
