package interfaces

import (
	"errors"
	"net/http"
	"time"

	"dnspulse/internal/activity/application"
	"dnspulse/internal/observability/metrics"
)

// ReportHandler serves downloadable activity reports.
type ReportHandler struct {
	service *application.GraphService
}

// NewReportHandler constructs a report handler.
func NewReportHandler(service *application.GraphService) (*ReportHandler, error) {
	if service == nil {
		return nil, errors.New("report handler: nil service")
	}
	return &ReportHandler{service: service}, nil
}

// ServeHTTP handles GET /api/v1/graph/report?format=pdf|xlsx.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pdf"
	}

	start := time.Now()
	result := metrics.ResultSuccess

	snapshot, ok := h.service.Latest()
	if !ok {
		var err error
		snapshot, err = h.service.Refresh(r.Context())
		if err != nil {
			metrics.ObserveReportExport(format, metrics.ResultError, time.Since(start))
			http.Error(w, "refresh error", http.StatusInternalServerError)
			return
		}
	}

	var (
		payload     []byte
		contentType string
		filename    string
		err         error
	)
	switch format {
	case "pdf":
		payload, err = BuildActivityPDF(snapshot, h.service.Config())
		contentType = "application/pdf"
		filename = "activity.pdf"
	case "xlsx":
		payload, err = BuildActivityXLSX(snapshot, h.service.Config())
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "activity.xlsx"
	default:
		metrics.ObserveReportExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "unsupported format", http.StatusBadRequest)
		return
	}
	if err != nil {
		result = metrics.ResultError
		metrics.ObserveReportExport(format, result, time.Since(start))
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}

	metrics.ObserveReportExport(format, result, time.Since(start))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write(payload)
}
