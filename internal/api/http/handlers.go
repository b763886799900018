package apihttp

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"dnspulse/internal/querylog/infrastructure/postgres"
)

const timeLayout = time.RFC3339

// QueryStatsHandler serves query log statistics.
type QueryStatsHandler struct {
	repo *postgres.QueryRepository
}

// NewQueryStatsHandler constructs a QueryStatsHandler.
func NewQueryStatsHandler(repo *postgres.QueryRepository) *QueryStatsHandler {
	return &QueryStatsHandler{repo: repo}
}

// ServeHTTP handles GET /api/v1/queries/stats.
func (h *QueryStatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.repo == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	from, err := parseTimeQuery(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseTimeQuery(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !to.After(from) {
		http.Error(w, "to must be after from", http.StatusBadRequest)
		return
	}

	counts, err := h.repo.CountByStatus(r.Context(), from, to)
	if err != nil {
		http.Error(w, "query stats error", http.StatusInternalServerError)
		return
	}

	var total int64
	for _, count := range counts {
		total += count
	}
	resp := map[string]any{
		"from":     from.Format(timeLayout),
		"to":       to.Format(timeLayout),
		"total":    total,
		"byStatus": counts,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// ExportQueriesCSVHandler serves the recent query log as CSV.
type ExportQueriesCSVHandler struct {
	repo *postgres.QueryRepository
}

// NewExportQueriesCSVHandler constructs a ExportQueriesCSVHandler.
func NewExportQueriesCSVHandler(repo *postgres.QueryRepository) *ExportQueriesCSVHandler {
	return &ExportQueriesCSVHandler{repo: repo}
}

// ServeHTTP handles GET /api/v1/exports/queries.csv.
func (h *ExportQueriesCSVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.repo == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	limit := 1000
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	queries, err := h.repo.RecentQueries(r.Context(), limit)
	if err != nil {
		http.Error(w, "query log error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"server",
		"ts",
		"latency_ms",
		"status",
	})
	for _, q := range queries {
		_ = writer.Write([]string{
			q.Server,
			q.TS.Format(timeLayout),
			strconv.FormatInt(q.Latency.Milliseconds(), 10),
			string(q.Status),
		})
	}
	writer.Flush()
}

func parseTimeQuery(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, errors.New(key + " is required")
	}
	parsed, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, errors.New("invalid " + key)
	}
	return parsed.UTC(), nil
}
