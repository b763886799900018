package memory

import (
	"context"
	"testing"
	"time"
)

func TestTracker_RecentActivityFiltersWindow(t *testing.T) {
	tracker := NewTracker(10)
	now := time.Unix(1_700_000_000, 0)

	tracker.Record(now.Add(-30 * time.Second))
	tracker.Record(now.Add(-2 * time.Minute))
	tracker.Record(now.Add(-time.Second))

	recent, err := tracker.RecentActivity(context.Background(), now, time.Minute)
	if err != nil {
		t.Fatalf("recent activity: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent timestamps, got %d", len(recent))
	}
	for _, ts := range recent {
		if now.Sub(ts) > time.Minute {
			t.Fatalf("timestamp %v is outside the window", ts)
		}
	}
}

func TestTracker_RingEvictsOldest(t *testing.T) {
	tracker := NewTracker(3)
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < 5; i++ {
		tracker.Record(now.Add(time.Duration(i) * time.Second))
	}

	recent, err := tracker.RecentActivity(context.Background(), now.Add(10*time.Second), time.Minute)
	if err != nil {
		t.Fatalf("recent activity: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected capacity-bounded history of 3, got %d", len(recent))
	}
	if got := tracker.Total(); got != 5 {
		t.Fatalf("expected lifetime total 5, got %d", got)
	}
}

func TestTracker_FutureTimestampsPassThrough(t *testing.T) {
	tracker := NewTracker(4)
	now := time.Unix(1_700_000_000, 0)
	tracker.Record(now.Add(time.Second))

	recent, err := tracker.RecentActivity(context.Background(), now, time.Minute)
	if err != nil {
		t.Fatalf("recent activity: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected future timestamp to pass through, got %d entries", len(recent))
	}
}

func TestNewTracker_DefaultCapacity(t *testing.T) {
	tracker := NewTracker(0)
	if len(tracker.stamps) != defaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", defaultCapacity, len(tracker.stamps))
	}
}
