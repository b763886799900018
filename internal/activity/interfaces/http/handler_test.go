package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"dnspulse/internal/activity/application"
	activity "dnspulse/internal/activity/domain"
)

type fixedSource struct {
	events []time.Time
}

func (s *fixedSource) RecentActivity(context.Context, time.Time, time.Duration) ([]time.Time, error) {
	return s.events, nil
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func newTestService(t *testing.T, events []time.Time, now time.Time) *application.GraphService {
	t.Helper()
	service, err := application.NewGraphService(
		&fixedSource{events: events},
		activity.DefaultConfig(),
		application.WithClock(&fixedClock{now: now}),
	)
	if err != nil {
		t.Fatalf("new graph service: %v", err)
	}
	return service
}

func TestGraphHandler_ServesSnapshot(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	service := newTestService(t, []time.Time{now.Add(-time.Second)}, now)
	handler, err := NewGraphHandler(service)
	if err != nil {
		t.Fatalf("new graph handler: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activity/graph", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var decoded GraphResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.WindowMS != 60000 || decoded.ResolutionMS != 100 {
		t.Fatalf("unexpected config echo: window=%d resolution=%d", decoded.WindowMS, decoded.ResolutionMS)
	}
	if len(decoded.Samples) != 600 {
		t.Fatalf("expected 600 samples, got %d", len(decoded.Samples))
	}
	if decoded.Empty {
		t.Fatalf("expected non-empty curve")
	}
	if decoded.Peak <= 0 {
		t.Fatalf("expected positive peak, got %v", decoded.Peak)
	}
}

func TestGraphHandler_EmptyActivity(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	service := newTestService(t, nil, now)
	handler, err := NewGraphHandler(service)
	if err != nil {
		t.Fatalf("new graph handler: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activity/graph", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	var decoded GraphResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !decoded.Empty || decoded.Peak != 0 {
		t.Fatalf("expected empty curve with zero peak, got empty=%v peak=%v", decoded.Empty, decoded.Peak)
	}
}

func TestRefreshHandler_MethodNotAllowed(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	service := newTestService(t, nil, now)
	handler, err := NewRefreshHandler(service)
	if err != nil {
		t.Fatalf("new refresh handler: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activity/refresh", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

func TestRefreshHandler_ForcesRefresh(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	service := newTestService(t, []time.Time{now.Add(-200 * time.Millisecond)}, now)
	handler, err := NewRefreshHandler(service)
	if err != nil {
		t.Fatalf("new refresh handler: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/activity/refresh", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if _, ok := service.Latest(); !ok {
		t.Fatalf("expected refresh to cache a snapshot")
	}
}

func TestSSEBroker_BroadcastSurvivesUnsubscribeRace(t *testing.T) {
	broker := NewSSEBroker(activity.DefaultConfig())
	snapshot := activity.Snapshot{
		At:      time.Unix(1_700_000_000, 0),
		Samples: make([]float64, 600),
		Empty:   true,
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	for n := 0; n < 4; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					broker.Notify(context.Background(), snapshot)
				}
			}
		}()
	}

	// Clients connecting and disconnecting while refreshes broadcast must
	// never panic the broker.
	for i := 0; i < 2000; i++ {
		ch := broker.Subscribe()
		broker.Unsubscribe(ch)
	}
	close(done)
	wg.Wait()
}

func TestSSEBroker_NotifyReachesSubscriber(t *testing.T) {
	broker := NewSSEBroker(activity.DefaultConfig())
	ch := broker.Subscribe()
	defer broker.Unsubscribe(ch)

	broker.Notify(context.Background(), activity.Snapshot{
		At:      time.Unix(1_700_000_000, 0),
		Samples: make([]float64, 600),
		Empty:   true,
	})

	select {
	case payload := <-ch:
		var decoded GraphResponse
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if !decoded.Empty {
			t.Fatalf("expected empty snapshot payload")
		}
	default:
		t.Fatalf("expected a broadcast payload")
	}
}
