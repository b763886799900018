package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"dnspulse/internal/querylog/application"
	"dnspulse/internal/querylog/infrastructure/memory"
)

func newTestHandler(t *testing.T) (*IngestHandler, *memory.Tracker) {
	t.Helper()
	tracker := memory.NewTracker(16)
	service, err := application.NewRecordService(tracker, nil)
	if err != nil {
		t.Fatalf("new record service: %v", err)
	}
	handler, err := NewIngestHandler(service, nil)
	if err != nil {
		t.Fatalf("new ingest handler: %v", err)
	}
	return handler, tracker
}

func TestIngestHandler_RecordsBatch(t *testing.T) {
	handler, tracker := newTestHandler(t)

	now := time.Now().UnixMilli()
	payload := `{"server":"9.9.9.9","queries":[` +
		`{"ts":` + itoa(now) + `,"latencyMs":12,"status":"complete"},` +
		`{"ts":` + itoa(now-500) + `,"latencyMs":40,"status":"failed"}]}`

	req := httptest.NewRequest(http.MethodPost, "/ingest/queries", strings.NewReader(payload))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var decoded map[string]int
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded["recorded"] != 2 {
		t.Fatalf("expected 2 recorded, got %d", decoded["recorded"])
	}
	if tracker.Total() != 2 {
		t.Fatalf("expected tracker to hold 2 queries, got %d", tracker.Total())
	}
}

func TestIngestHandler_SingleEventShorthand(t *testing.T) {
	handler, tracker := newTestHandler(t)

	// Second-resolution timestamp without a queries array.
	payload := `{"server":"1.1.1.1","ts":1700000000,"latencyMs":9}`
	req := httptest.NewRequest(http.MethodPost, "/ingest/queries", strings.NewReader(payload))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if tracker.Total() != 1 {
		t.Fatalf("expected 1 recorded query, got %d", tracker.Total())
	}
}

func TestIngestHandler_RejectsInvalidPayload(t *testing.T) {
	handler, _ := newTestHandler(t)

	cases := []string{
		`not json`,
		`{"server":"x"}`,
		`{"server":"x","queries":[{"ts":-5}]}`,
		`{"server":"x","queries":[{"ts":1700000000,"status":"bogus"}]}`,
	}
	for i, payload := range cases {
		req := httptest.NewRequest(http.MethodPost, "/ingest/queries", strings.NewReader(payload))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, resp.Code)
		}
	}
}

func TestIngestHandler_MethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/ingest/queries", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
