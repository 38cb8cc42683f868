// Package handler exposes the dashboard summary and report export endpoints.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"clientbooks/internal/records/store"
	"clientbooks/internal/report"
	dErrors "clientbooks/pkg/domain-errors"
	"clientbooks/pkg/platform/httputil"
)

// Service defines the reporting operations the handler depends on.
type Service interface {
	Summarize(ctx context.Context, filter store.ReportFilter) (report.Summary, error)
	Render(ctx context.Context, format report.Format, filter store.ReportFilter) ([]byte, error)
}

// Handler serves the dashboard summary and the report downloads.
type Handler struct {
	reports Service
	logger  *slog.Logger
}

func New(reports Service, logger *slog.Logger) *Handler {
	return &Handler{reports: reports, logger: logger}
}

// HandleSummary returns the dashboard aggregate for the optional filter.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	summary, err := h.reports.Summarize(r.Context(), filter)
	if err != nil {
		h.logError(r, "summary failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// HandleCSV streams the tabular export.
func (h *Handler) HandleCSV(w http.ResponseWriter, r *http.Request) {
	h.handleReport(w, r, report.FormatTabular, "clients.csv")
}

// HandleXLSX streams the document export.
func (h *Handler) HandleXLSX(w http.ResponseWriter, r *http.Request) {
	h.handleReport(w, r, report.FormatDocument, "clients.xlsx")
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request, format report.Format, fileName string) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	data, err := h.reports.Render(r.Context(), format, filter)
	if err != nil {
		h.logError(r, "report generation failed", err)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) logError(r *http.Request, message string, err error) {
	if h.logger == nil {
		return
	}
	if code := dErrors.CodeOf(err); code == dErrors.CodeInternal || code == dErrors.CodeUnavailable {
		h.logger.ErrorContext(r.Context(), message, "error", err)
	}
}

// parseFilter reads clientId, startDate and endDate query parameters. The
// end date is widened to the end of its day so the range stays inclusive.
func parseFilter(r *http.Request) (store.ReportFilter, error) {
	q := r.URL.Query()
	var filter store.ReportFilter

	if raw := q.Get("clientId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return store.ReportFilter{}, dErrors.New(dErrors.CodeValidation, "clientId must be a valid record id")
		}
		filter.RecordID = &id
	}
	if raw := q.Get("startDate"); raw != "" {
		from, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return store.ReportFilter{}, dErrors.New(dErrors.CodeValidation, "startDate must be formatted YYYY-MM-DD")
		}
		filter.CreatedFrom = &from
	}
	if raw := q.Get("endDate"); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return store.ReportFilter{}, dErrors.New(dErrors.CodeValidation, "endDate must be formatted YYYY-MM-DD")
		}
		to := day.Add(24*time.Hour - time.Nanosecond)
		filter.CreatedTo = &to
	}
	return filter, nil
}
