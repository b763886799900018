package application

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	activity "dnspulse/internal/activity/domain"
)

type stubSource struct {
	events []time.Time
	err    error
}

func (s *stubSource) RecentActivity(context.Context, time.Time, time.Duration) ([]time.Time, error) {
	return s.events, s.err
}

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

type captureNotifier struct {
	snapshots []activity.Snapshot
}

func (n *captureNotifier) Notify(_ context.Context, snapshot activity.Snapshot) {
	n.snapshots = append(n.snapshots, snapshot)
}

func TestGraphService_RefreshPublishesSnapshot(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	source := &stubSource{events: []time.Time{now.Add(-time.Second)}}
	notifier := &captureNotifier{}

	service, err := NewGraphService(source, activity.DefaultConfig(),
		WithClock(&stubClock{now: now}),
		WithNotifier(notifier),
	)
	if err != nil {
		t.Fatalf("new graph service: %v", err)
	}

	snapshot, err := service.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if snapshot.Empty {
		t.Fatalf("expected non-empty snapshot")
	}
	if snapshot.Peak <= 0 {
		t.Fatalf("expected positive peak, got %v", snapshot.Peak)
	}
	if len(notifier.snapshots) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.snapshots))
	}

	latest, ok := service.Latest()
	if !ok {
		t.Fatalf("expected a cached snapshot")
	}
	if latest.Peak != snapshot.Peak {
		t.Fatalf("expected cached peak %v, got %v", snapshot.Peak, latest.Peak)
	}
}

func TestGraphService_SourceErrorSurfaces(t *testing.T) {
	source := &stubSource{err: errors.New("source down")}
	service, err := NewGraphService(source, activity.DefaultConfig())
	if err != nil {
		t.Fatalf("new graph service: %v", err)
	}

	if _, err := service.Refresh(context.Background()); err == nil {
		t.Fatalf("expected source error to surface")
	}
	if _, ok := service.Latest(); ok {
		t.Fatalf("expected no cached snapshot after failed refresh")
	}
}

func TestGraphService_PeakStickyThenReset(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := &stubClock{now: now}
	source := &stubSource{events: []time.Time{now.Add(-200 * time.Millisecond)}}

	service, err := NewGraphService(source, activity.DefaultConfig(), WithClock(clock))
	if err != nil {
		t.Fatalf("new graph service: %v", err)
	}

	first, err := service.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// Same event a few seconds later: amplitude diffuses lower, the peak
	// must hold.
	clock.now = now.Add(5 * time.Second)
	second, err := service.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.Peak < first.Peak {
		t.Fatalf("peak shrank from %v to %v", first.Peak, second.Peak)
	}

	// Activity ages fully out of the window: hard reset.
	clock.now = now.Add(3 * time.Minute)
	third, err := service.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !third.Empty || third.Peak != 0 {
		t.Fatalf("expected empty curve with zero peak, got empty=%v peak=%v", third.Empty, third.Peak)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GRAPH_CONFIG", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	graph := cfg.GraphConfig()
	if graph.Window != time.Minute {
		t.Fatalf("expected 60s window, got %v", graph.Window)
	}
	if graph.Resolution != 100*time.Millisecond {
		t.Fatalf("expected 100ms resolution, got %v", graph.Resolution)
	}
	if graph.Buckets() != 600 {
		t.Fatalf("expected 600 buckets, got %d", graph.Buckets())
	}
	if cfg.RefreshInterval() != 250*time.Millisecond {
		t.Fatalf("expected 250ms refresh interval, got %v", cfg.RefreshInterval())
	}
}

func TestLoadConfig_YAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/graph.yaml"
	data := []byte("window_ms: 30000\nresolution_ms: 500\nsmoothing_floor: 4\nrefresh_interval_ms: 1000\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GRAPH_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	graph := cfg.GraphConfig()
	if graph.Window != 30*time.Second || graph.Resolution != 500*time.Millisecond {
		t.Fatalf("yaml overrides not applied: %+v", graph)
	}
	if graph.SmoothingFloor != 4 {
		t.Fatalf("expected smoothing floor 4, got %v", graph.SmoothingFloor)
	}
}
