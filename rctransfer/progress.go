package rctransfer

import (
	"sync"
	"time"
)

// ProgressFunc receives the payload bytes sent so far, the size of the
// source file (0 if unknown) and the average rate in bytes per second.
type ProgressFunc func(filename string, sent, total int64, rate float64)

// ProgressTracker throttles ProgressFunc calls while a package is encoded.
// Sent counts are whole CP/M records, so the callback fires at most once
// per record and never more often than the interval.
type ProgressTracker struct {
	mu sync.Mutex

	notify   ProgressFunc
	interval time.Duration

	file     string
	total    int64
	sent     int64
	records  int64
	began    time.Time
	notified time.Time
}

// NewProgressTracker returns a tracker that calls notify at most once per
// interval. A non-positive interval means 100ms.
func NewProgressTracker(notify ProgressFunc, interval time.Duration) *ProgressTracker {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &ProgressTracker{notify: notify, interval: interval}
}

// Start resets the tracker for file.
func (pt *ProgressTracker) Start(file string, total int64) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	now := time.Now()
	pt.file, pt.total = file, total
	pt.sent, pt.records = 0, 0
	pt.began, pt.notified = now, now
}

// Update records that sent payload bytes have been written.
func (pt *ProgressTracker) Update(sent int64) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.sent = sent
	records := sent / BlockSize
	if records == pt.records {
		return
	}
	pt.records = records

	now := time.Now()
	if now.Sub(pt.notified) < pt.interval {
		return
	}
	pt.notified = now
	pt.report(now)
}

// Records returns the number of complete records sent since Start.
func (pt *ProgressTracker) Records() int64 {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.records
}

// Complete sends a final update and returns the time since Start.
func (pt *ProgressTracker) Complete() time.Duration {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	now := time.Now()
	pt.report(now)
	return now.Sub(pt.began)
}

// Duration returns the time since Start.
func (pt *ProgressTracker) Duration() time.Duration {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return time.Since(pt.began)
}

func (pt *ProgressTracker) report(now time.Time) {
	if pt.notify == nil {
		return
	}
	var rate float64
	if elapsed := now.Sub(pt.began).Seconds(); elapsed > 0 {
		rate = float64(pt.sent) / elapsed
	}
	pt.notify(pt.file, pt.sent, pt.total, rate)
}
