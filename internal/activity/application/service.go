package application

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	activity "dnspulse/internal/activity/domain"
	"dnspulse/internal/observability/metrics"
	querylog "dnspulse/internal/querylog/domain"
)

// Clock provides time for the refresh loop.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

// Now returns current time.
func (SystemClock) Now() time.Time { return time.Now() }

// SnapshotNotifier receives each refreshed snapshot.
type SnapshotNotifier interface {
	Notify(ctx context.Context, snapshot activity.Snapshot)
}

// GraphService drives the density graph: once per refresh it pulls the
// recent activity snapshot from the source, recomputes the curve and peak,
// caches the result for readers and fans it out to notifiers. Refreshes are
// serialized; the engine itself stays single-threaded.
type GraphService struct {
	mu      sync.Mutex
	grapher *activity.Grapher
	source  querylog.ActivitySource
	clock   Clock
	logger  *log.Logger

	notifiers []SnapshotNotifier

	latest    activity.Snapshot
	hasLatest bool
}

// GraphServiceOption configures the service.
type GraphServiceOption func(*GraphService)

// WithClock overrides the system clock.
func WithClock(clock Clock) GraphServiceOption {
	return func(s *GraphService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithNotifier registers a snapshot notifier.
func WithNotifier(notifier SnapshotNotifier) GraphServiceOption {
	return func(s *GraphService) {
		if notifier != nil {
			s.notifiers = append(s.notifiers, notifier)
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) GraphServiceOption {
	return func(s *GraphService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewGraphService constructs a graph service.
func NewGraphService(source querylog.ActivitySource, cfg activity.Config, opts ...GraphServiceOption) (*GraphService, error) {
	if source == nil {
		return nil, errors.New("activity: nil source")
	}
	grapher, err := activity.NewGrapher(cfg)
	if err != nil {
		return nil, err
	}
	s := &GraphService{
		grapher: grapher,
		source:  source,
		clock:   SystemClock{},
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the graph configuration.
func (s *GraphService) Config() activity.Config { return s.grapher.Config() }

// Refresh recomputes the curve from the current activity and publishes the
// snapshot.
func (s *GraphService) Refresh(ctx context.Context) (activity.Snapshot, error) {
	start := time.Now()
	now := s.clock.Now()

	events, err := s.source.RecentActivity(ctx, now, s.grapher.Config().Window)
	if err != nil {
		metrics.ObserveGraphRefresh(metrics.ResultError, time.Since(start))
		return activity.Snapshot{}, err
	}

	s.mu.Lock()
	snapshot := s.grapher.Refresh(now, events)
	s.latest = snapshot
	s.hasLatest = true
	s.mu.Unlock()

	metrics.ObserveGraphRefresh(metrics.ResultSuccess, time.Since(start))
	metrics.SetCurve(snapshot.Peak, snapshot.Empty)

	for _, notifier := range s.notifiers {
		notifier.Notify(ctx, snapshot)
	}
	return snapshot, nil
}

// Latest returns the most recent snapshot, if any refresh has run.
func (s *GraphService) Latest() (activity.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasLatest
}

// Run drives the refresh loop until the context is canceled.
func (s *GraphService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil {
				s.logger.Printf("graph refresh error: %v", err)
			}
		}
	}
}
