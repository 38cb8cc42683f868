// Package handler exposes the client record CRUD and attachment endpoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"clientbooks/internal/identity"
	"clientbooks/internal/records/models"
	"clientbooks/internal/records/store"
	dErrors "clientbooks/pkg/domain-errors"
	"clientbooks/pkg/platform/httputil"
)

// maxUploadBytes caps attachment uploads at 10 MiB.
const maxUploadBytes = 10 << 20

// Service defines the record operations the handler depends on.
type Service interface {
	Create(ctx context.Context, principal identity.Principal, req *models.CreateRecordRequest) (*models.Record, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Record, error)
	List(ctx context.Context, query store.ListQuery) (store.ListResult, error)
	Update(ctx context.Context, id uuid.UUID, patch *models.UpdateRecordRequest) (*models.Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadAttachment(ctx context.Context, principal identity.Principal, recordID uuid.UUID, fileName, contentType string, data []byte) (*models.Attachment, error)
	RemoveAttachment(ctx context.Context, recordID uuid.UUID, storageURL string) error
	SignAttachment(ctx context.Context, recordID uuid.UUID, storageURL string) (string, error)
}

// Handler serves the /api/clients routes.
type Handler struct {
	records Service
	logger  *slog.Logger
}

func New(records Service, logger *slog.Logger) *Handler {
	return &Handler{records: records, logger: logger}
}

type listResponse struct {
	Clients      []models.Record `json:"clients"`
	TotalClients int             `json:"totalClients"`
	TotalPages   int             `json:"totalPages"`
	CurrentPage  int             `json:"currentPage"`
}

// HandleCreate creates a record owned by the authenticated principal.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no authenticated principal"))
		return
	}

	var req models.CreateRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.records.Create(r.Context(), principal, &req)
	if err != nil {
		h.logError(r, "record create failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

// HandleList returns one page of the browse view.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.records.List(r.Context(), query)
	if err != nil {
		h.logError(r, "record list failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{
		Clients:      result.Records,
		TotalClients: result.TotalClients,
		TotalPages:   result.TotalPages,
		CurrentPage:  result.CurrentPage,
	})
}

// HandleGet returns one record by id.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.records.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleUpdate applies a partial update to a record.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var patch models.UpdateRecordRequest
	if err := decodeJSON(r, &patch); err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.records.Update(r.Context(), id, &patch)
	if err != nil {
		h.logError(r, "record update failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleDelete removes a record and its attachment storage.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.records.Delete(r.Context(), id); err != nil {
		h.logError(r, "record delete failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUploadAttachment stores a multipart file against a record.
func (h *Handler) HandleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no authenticated principal"))
		return
	}

	id, err := recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "request is not valid multipart form data"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read upload"))
		return
	}

	attachment, err := h.records.UploadAttachment(r.Context(), principal, id, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		h.logError(r, "attachment upload failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, attachment)
}

// HandleRemoveAttachment deletes a recorded attachment and its object.
func (h *Handler) HandleRemoveAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	fileURL, err := fileURLParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.records.RemoveAttachment(r.Context(), id, fileURL); err != nil {
		h.logError(r, "attachment removal failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSignAttachment mints a time-limited download link for a recorded
// attachment.
func (h *Handler) HandleSignAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	fileURL, err := fileURLParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	signed, err := h.records.SignAttachment(r.Context(), id, fileURL)
	if err != nil {
		h.logError(r, "attachment signing failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"signedUrl": signed})
}

func (h *Handler) logError(r *http.Request, message string, err error) {
	if h.logger == nil {
		return
	}
	if code := dErrors.CodeOf(err); code == dErrors.CodeInternal || code == dErrors.CodeUnavailable {
		h.logger.ErrorContext(r.Context(), message, "error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeValidation, "request body is required")
		}
		return dErrors.New(dErrors.CodeValidation, "request body is not valid JSON")
	}
	return nil
}

func recordID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id must be a valid record id")
	}
	return id, nil
}

func fileURLParam(r *http.Request) (string, error) {
	fileURL := r.URL.Query().Get("fileUrl")
	if fileURL == "" {
		return "", dErrors.New(dErrors.CodeValidation, "fileUrl query parameter is required")
	}
	return fileURL, nil
}

// parseListQuery reads search, revenue-range and pagination parameters. A
// non-numeric revenue bound is rejected rather than silently ignored.
func parseListQuery(r *http.Request) (store.ListQuery, error) {
	q := r.URL.Query()
	query := store.ListQuery{Search: q.Get("search")}

	if raw := q.Get("minRevenue"); raw != "" {
		min, err := decimal.NewFromString(raw)
		if err != nil {
			return store.ListQuery{}, dErrors.New(dErrors.CodeValidation, "minRevenue must be a number")
		}
		query.MinRevenue = &min
	}
	if raw := q.Get("maxRevenue"); raw != "" {
		max, err := decimal.NewFromString(raw)
		if err != nil {
			return store.ListQuery{}, dErrors.New(dErrors.CodeValidation, "maxRevenue must be a number")
		}
		query.MaxRevenue = &max
	}
	var err error
	if query.Page, err = intParam(q.Get("page")); err != nil {
		return store.ListQuery{}, dErrors.New(dErrors.CodeValidation, "page must be a positive integer")
	}
	if query.Limit, err = intParam(q.Get("limit")); err != nil {
		return store.ListQuery{}, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer")
	}
	query.Normalize()
	return query, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
