package duckdb

import (
	"sync/atomic"
	"testing"
	"time"
)

type countingPruner struct {
	calls  atomic.Int32
	cutoff atomic.Int64
}

func (p *countingPruner) DeleteBefore(cutoff time.Time) (int64, error) {
	p.calls.Add(1)
	p.cutoff.Store(cutoff.Unix())
	return 0, nil
}

func TestRetentionCleanerDisabled(t *testing.T) {
	if rc := NewRetentionCleaner(&countingPruner{}, RetentionConfig{}); rc != nil {
		t.Fatal("expected nil cleaner when retention is 0")
	}
}

func TestRetentionCleanerRunsOnStartAndTick(t *testing.T) {
	p := &countingPruner{}
	rc := NewRetentionCleaner(p, RetentionConfig{RetentionDays: 7, Interval: 10 * time.Millisecond})
	defer rc.Stop()

	if p.calls.Load() < 1 {
		t.Fatal("expected startup cleanup")
	}
	want := time.Now().AddDate(0, 0, -7).Unix()
	if got := p.cutoff.Load(); got < want-5 || got > want+5 {
		t.Errorf("cutoff = %d, want about %d", got, want)
	}

	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if p.calls.Load() < 2 {
		t.Error("expected at least one ticked cleanup")
	}
}

func TestRetentionCleaner_StopIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	cleaner := NewRetentionCleaner(store, RetentionConfig{RetentionDays: 1})
	if cleaner == nil {
		t.Fatal("expected non-nil retention cleaner")
	}

	cleaner.Stop()
	cleaner.Stop()
}
