package duckdb

import (
	"log"
	"sync"
	"time"
)

// RetentionConfig holds configuration for the retention cleaner.
type RetentionConfig struct {
	RetentionDays int
	Interval      time.Duration // defaults to 1h
}

type historyPruner interface {
	DeleteBefore(cutoff time.Time) (int64, error)
}

// RetentionCleaner periodically deletes quote history older than the
// configured number of days.
type RetentionCleaner struct {
	store    historyPruner
	days     int
	interval time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRetentionCleaner runs one cleanup immediately and then one per interval.
// Returns nil when retention is 0 (disabled).
func NewRetentionCleaner(store historyPruner, conf RetentionConfig) *RetentionCleaner {
	if conf.RetentionDays <= 0 {
		return nil
	}
	if conf.Interval <= 0 {
		conf.Interval = time.Hour
	}

	rc := &RetentionCleaner{
		store:    store,
		days:     conf.RetentionDays,
		interval: conf.Interval,
		done:     make(chan struct{}),
	}

	rc.cleanup()

	rc.wg.Add(1)
	go rc.loop()
	return rc
}

func (rc *RetentionCleaner) loop() {
	defer rc.wg.Done()
	ticker := time.NewTicker(rc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rc.cleanup()
		case <-rc.done:
			return
		}
	}
}

func (rc *RetentionCleaner) cleanup() {
	cutoff := time.Now().AddDate(0, 0, -rc.days)
	n, err := rc.store.DeleteBefore(cutoff)
	if err != nil {
		log.Printf("duckdb: retention cleanup error: %v", err)
		return
	}
	if n > 0 {
		log.Printf("duckdb: retention cleanup deleted %d quotes older than %d days", n, rc.days)
	}
}

// Stop signals the cleaner to stop and waits for it to finish. Safe to call
// more than once.
func (rc *RetentionCleaner) Stop() {
	rc.stopOnce.Do(func() {
		close(rc.done)
		rc.wg.Wait()
	})
}
