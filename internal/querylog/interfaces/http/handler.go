package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"dnspulse/internal/observability/metrics"
	"dnspulse/internal/querylog/application"
	querylog "dnspulse/internal/querylog/domain"
)

// IngestHandler accepts batched query events from resolvers.
type IngestHandler struct {
	service *application.RecordService
	logger  *log.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(service *application.RecordService, logger *log.Logger) (*IngestHandler, error) {
	if service == nil {
		return nil, errors.New("query ingest: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{service: service, logger: logger}, nil
}

// ServeHTTP ingests query events.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.IngestResultSuccess
	defer func() {
		metrics.ObserveIngest(result, time.Since(start))
	}()

	if r.Method != http.MethodPost {
		result = metrics.IngestResultError
		metrics.IncIngestError("method_not_allowed")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Printf("query ingest: read body error: %v", err)
		result = metrics.IngestResultError
		metrics.IncIngestError("read_body")
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Printf("query ingest: decode error: %v", err)
		result = metrics.IngestResultError
		metrics.IncIngestError("invalid_json")
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	queries, err := req.toQueries()
	if err != nil {
		h.logger.Printf("query ingest: invalid payload: %v", err)
		result = metrics.IngestResultError
		metrics.IncIngestError("invalid_payload")
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := h.service.Record(r.Context(), queries); err != nil {
		h.logger.Printf("query ingest: record error: %v", err)
		result = metrics.IngestResultError
		metrics.IncIngestError("record_error")
		http.Error(w, "record error", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{"recorded": len(queries)}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type ingestRequest struct {
	Server  string        `json:"server"`
	TS      int64         `json:"ts"`
	Latency int64         `json:"latencyMs"`
	Status  string        `json:"status"`
	Queries []ingestQuery `json:"queries"`
}

type ingestQuery struct {
	TS      int64  `json:"ts"`
	Latency int64  `json:"latencyMs"`
	Status  string `json:"status"`
}

func (r ingestRequest) toQueries() ([]querylog.Query, error) {
	entries := r.Queries
	if len(entries) == 0 && r.TS != 0 {
		entries = []ingestQuery{{TS: r.TS, Latency: r.Latency, Status: r.Status}}
	}
	if len(entries) == 0 {
		return nil, errors.New("no query events")
	}

	queries := make([]querylog.Query, 0, len(entries))
	for _, entry := range entries {
		ts, err := parseTimestamp(entry.TS)
		if err != nil {
			return nil, err
		}
		status, ok := querylog.NormalizeStatus(entry.Status)
		if !ok {
			return nil, errors.New("invalid status")
		}
		if entry.Latency < 0 {
			return nil, errors.New("negative latency")
		}
		queries = append(queries, querylog.Query{
			Server:  r.Server,
			TS:      ts,
			Latency: time.Duration(entry.Latency) * time.Millisecond,
			Status:  status,
		})
	}
	return queries, nil
}

func parseTimestamp(value int64) (time.Time, error) {
	if value <= 0 {
		return time.Time{}, errors.New("invalid ts")
	}
	// Accept milliseconds or seconds.
	if value > 1_000_000_000_000 {
		return time.UnixMilli(value).UTC(), nil
	}
	return time.Unix(value, 0).UTC(), nil
}
