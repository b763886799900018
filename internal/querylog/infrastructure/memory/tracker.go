package memory

import (
	"context"
	"sync"
	"time"
)

const defaultCapacity = 1000

// Tracker keeps the timestamps of the most recent queries in a fixed-size
// ring buffer. It is the in-process activity source for the density graph:
// the graph only looks one window back, so a bounded history is enough and
// the oldest entries are simply overwritten.
type Tracker struct {
	mu     sync.Mutex
	stamps []time.Time
	next   int
	filled bool
	total  uint64
}

// NewTracker constructs a Tracker. A non-positive capacity falls back to the
// default of 1000 entries.
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Tracker{stamps: make([]time.Time, capacity)}
}

// Record stores one query timestamp, evicting the oldest when full.
func (t *Tracker) Record(ts time.Time) {
	t.mu.Lock()
	t.stamps[t.next] = ts
	t.next++
	if t.next == len(t.stamps) {
		t.next = 0
		t.filled = true
	}
	t.total++
	t.mu.Unlock()
}

// RecentActivity returns the tracked timestamps newer than now - window.
// The result is a fresh slice in no particular order; future-dated entries
// are passed through untouched, the graph engine treats them as clock skew.
func (t *Tracker) RecentActivity(_ context.Context, now time.Time, window time.Duration) ([]time.Time, error) {
	cutoff := now.Add(-window)

	t.mu.Lock()
	defer t.mu.Unlock()

	size := t.next
	if t.filled {
		size = len(t.stamps)
	}
	recent := make([]time.Time, 0, size)
	for i := 0; i < size; i++ {
		if t.stamps[i].After(cutoff) {
			recent = append(recent, t.stamps[i])
		}
	}
	return recent, nil
}

// Total returns the number of queries recorded over the tracker's lifetime.
func (t *Tracker) Total() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}
