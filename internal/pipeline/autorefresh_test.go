package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/novacrypto/nova/internal/model"
)

type countingRefresher struct{ n atomic.Int32 }

func (c *countingRefresher) Refresh(ctx context.Context) (model.Snapshot, error) {
	c.n.Add(1)
	return model.Snapshot{}, nil
}

func TestAutoRefresherTicks(t *testing.T) {
	r := &countingRefresher{}
	a := NewAutoRefresher(r, 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for r.n.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	a.Stop()
	a.Stop()

	if r.n.Load() < 3 {
		t.Fatalf("refreshed %d times, want at least 3", r.n.Load())
	}
	after := r.n.Load()
	time.Sleep(30 * time.Millisecond)
	if r.n.Load() != after {
		t.Error("refresher kept running after Stop")
	}
}

func TestAutoRefresherDrivesPipeline(t *testing.T) {
	p := New(newFakeSource(), nil)
	a := NewAutoRefresher(p, time.Hour)
	defer a.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := p.Snapshot(); ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("initial refresh never applied")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
