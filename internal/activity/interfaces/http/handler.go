package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dnspulse/internal/activity/application"
	activity "dnspulse/internal/activity/domain"
)

// GraphHandler serves the latest density curve snapshot.
type GraphHandler struct {
	service *application.GraphService
}

// NewGraphHandler constructs a graph handler.
func NewGraphHandler(service *application.GraphService) (*GraphHandler, error) {
	if service == nil {
		return nil, errors.New("graph handler: nil service")
	}
	return &GraphHandler{service: service}, nil
}

// ServeHTTP handles GET /api/v1/graph.
func (h *GraphHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snapshot, ok := h.service.Latest()
	if !ok {
		// First read before the refresh loop has ticked.
		var err error
		snapshot, err = h.service.Refresh(r.Context())
		if err != nil {
			http.Error(w, "refresh error", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(graphResponse(snapshot, h.service.Config()))
}

// RefreshHandler forces a graph refresh.
type RefreshHandler struct {
	service *application.GraphService
}

// NewRefreshHandler constructs a refresh handler.
func NewRefreshHandler(service *application.GraphService) (*RefreshHandler, error) {
	if service == nil {
		return nil, errors.New("refresh handler: nil service")
	}
	return &RefreshHandler{service: service}, nil
}

// ServeHTTP handles POST /api/v1/graph/refresh.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snapshot, err := h.service.Refresh(r.Context())
	if err != nil {
		http.Error(w, "refresh error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(graphResponse(snapshot, h.service.Config()))
}

// GraphResponse is the snapshot payload served to render consumers.
type GraphResponse struct {
	GeneratedAt  time.Time `json:"generatedAt"`
	WindowMS     int64     `json:"windowMs"`
	ResolutionMS int64     `json:"resolutionMs"`
	Samples      []float64 `json:"samples"`
	Empty        bool      `json:"empty"`
	Peak         float64   `json:"peak"`
}

func graphResponse(snapshot activity.Snapshot, cfg activity.Config) GraphResponse {
	return GraphResponse{
		GeneratedAt:  snapshot.At,
		WindowMS:     cfg.Window.Milliseconds(),
		ResolutionMS: cfg.Resolution.Milliseconds(),
		Samples:      snapshot.Samples,
		Empty:        snapshot.Empty,
		Peak:         snapshot.Peak,
	}
}
