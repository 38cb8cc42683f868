package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"clientbooks/internal/identity"
	"clientbooks/internal/objstore"
	"clientbooks/internal/platform/metrics"
	"clientbooks/internal/platform/middleware"
	"clientbooks/internal/records/models"
	"clientbooks/internal/records/store"
	"clientbooks/pkg/attrs"
	dErrors "clientbooks/pkg/domain-errors"
	"clientbooks/pkg/platform/sentinel"
)

// Service orchestrates financial record management. Every mutation funnels
// through validate → merge → recompute → stamp before a single store write;
// there is no alternate path that can leave NetProfit stale.
type Service struct {
	records   store.Store
	files     objstore.Storage
	signedTTL time.Duration
	maxAmount decimal.Decimal
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithObjectStorage wires the attachment collaborator. Without it the
// attachment endpoints are simply not registered.
func WithObjectStorage(files objstore.Storage, signedTTL time.Duration) Option {
	return func(s *Service) {
		s.files = files
		s.signedTTL = signedTTL
	}
}

// WithClock overrides time.Now, used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs a Service. maxAmount bounds revenue/expenses.
func New(records store.Store, maxAmount decimal.Decimal, opts ...Option) *Service {
	s := &Service{records: records, maxAmount: maxAmount, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and persists a new record for the authenticated principal.
func (s *Service) Create(ctx context.Context, principal identity.Principal, req *models.CreateRecordRequest) (*models.Record, error) {
	revenue := decimal.Zero
	if req.Financials.Revenue != nil {
		revenue = *req.Financials.Revenue
	}
	expenses := decimal.Zero
	if req.Financials.Expenses != nil {
		expenses = *req.Financials.Expenses
	}

	record, err := models.NewRecord(
		uuid.New(),
		req.Name,
		req.Email,
		req.Phone,
		revenue,
		expenses,
		req.Notes,
		req.Tags,
		principal.ID,
		s.maxAmount,
		s.now(),
	)
	if err != nil {
		// Convert invariant violations to validation errors for API response
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.Detail(err))
		}
		return nil, err
	}

	if err := s.records.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a record with this email already exists")
		}
		return nil, translateStoreError(err, "failed to create record")
	}

	s.logAudit(ctx, "record_created", "record_id", record.ID.String(), "user_id", principal.ID)
	if s.metrics != nil {
		s.metrics.RecordsCreated.Inc()
	}
	return record, nil
}

// Get fetches a record by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return nil, translateStoreError(err, "failed to load record")
	}
	return record, nil
}

// List returns one page of the browse view.
func (s *Service) List(ctx context.Context, query store.ListQuery) (store.ListResult, error) {
	result, err := s.records.List(ctx, query)
	if err != nil {
		return store.ListResult{}, translateStoreError(err, "failed to list records")
	}
	return result, nil
}

// Update applies a field-presence partial update. Only supplied fields
// change; financials merge field-by-field and net profit is rederived.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch *models.UpdateRecordRequest) (*models.Record, error) {
	if patch.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "update supplies no fields")
	}
	if err := patch.Validate(s.maxAmount); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := patch.Apply(*existing, s.now())
	if err := s.records.Update(ctx, &next); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "a record with this email already exists")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return nil, translateStoreError(err, "failed to update record")
	}

	s.logAudit(ctx, "record_updated", "record_id", id.String())
	if s.metrics != nil {
		s.metrics.RecordsUpdated.Inc()
	}
	return &next, nil
}

// Delete removes the record and releases its attachment storage. Storage
// cleanup failures are logged, not surfaced: the record is already gone and
// the orphaned object cannot be reached through the API.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.records.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return translateStoreError(err, "failed to delete record")
	}

	s.releaseAttachments(ctx, record)

	s.logAudit(ctx, "record_deleted", "record_id", id.String())
	if s.metrics != nil {
		s.metrics.RecordsDeleted.Inc()
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if userID := attrs.ExtractString(attributes, "user_id"); userID == "" {
		if principal, ok := identity.FromContext(ctx); ok {
			attributes = append(attributes, "user_id", principal.ID)
		}
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

// translateStoreError keeps unavailability distinct so callers know to retry
// with backoff; everything else is an internal fault.
func translateStoreError(err error, message string) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "record store is unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}
