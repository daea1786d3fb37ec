package duckdb

import (
	"log"
	"sync"
	"time"
)

// RetentionConfig controls how long fetched events stay in the cache.
type RetentionConfig struct {
	// MaxAge is measured from when an event was fetched. Zero disables pruning.
	MaxAge time.Duration
	// Interval between sweeps, one hour when zero.
	Interval time.Duration
}

// RetentionCleaner periodically prunes cached events older than MaxAge.
type RetentionCleaner struct {
	store    *Store
	maxAge   time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRetentionCleaner sweeps once immediately and then on every interval.
// It returns nil when MaxAge is not positive.
func NewRetentionCleaner(store *Store, conf RetentionConfig) *RetentionCleaner {
	if conf.MaxAge <= 0 {
		return nil
	}
	interval := conf.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	rc := &RetentionCleaner{
		store:  store,
		maxAge: conf.MaxAge,
		done:   make(chan struct{}),
	}
	rc.cleanup()

	rc.wg.Add(1)
	go rc.tickLoop(interval)
	return rc
}

func (rc *RetentionCleaner) tickLoop(interval time.Duration) {
	defer rc.wg.Done()
	ticker := time.NewTicker(interval)
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
	rows, err := rc.store.DeleteBefore(time.Now().Add(-rc.maxAge))
	if err != nil {
		log.Printf("duckdb: retention cleanup error: %v", err)
		return
	}
	if rows > 0 {
		log.Printf("duckdb: retention cleanup deleted %d cached events (fetched more than %s ago)", rows, rc.maxAge)
	}
}

// Stop ends the sweep loop and waits for it. Safe to call more than once.
func (rc *RetentionCleaner) Stop() {
	rc.stopOnce.Do(func() {
		close(rc.done)
		rc.wg.Wait()
	})
}
