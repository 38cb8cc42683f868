// Package store persists FinancialRecord aggregates. Implementations are the
// final arbiter of email uniqueness: a create or update that loses a race
// must surface sentinel.ErrConflict, never a duplicate row.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"clientbooks/internal/records/models"
)

// ListQuery filters and paginates the browse view.
type ListQuery struct {
	// Search matches name or email case-insensitively as a substring.
	Search string
	// MinRevenue/MaxRevenue bound revenue inclusively when set.
	MinRevenue *decimal.Decimal
	MaxRevenue *decimal.Decimal
	Page       int
	Limit      int
}

// Normalize applies pagination defaults and caps.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
}

// ListResult is one page of records plus totals for the whole match set.
type ListResult struct {
	Records      []models.Record
	TotalClients int
	TotalPages   int
	CurrentPage  int
}

// ReportFilter selects records for aggregation and report rendering.
// Bounds are inclusive; CreatedTo already carries its end-of-day adjustment.
type ReportFilter struct {
	RecordID    *uuid.UUID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// Matches reports whether the record passes the filter.
func (f ReportFilter) Matches(r *models.Record) bool {
	if f.RecordID != nil && r.ID != *f.RecordID {
		return false
	}
	if f.CreatedFrom != nil && r.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && r.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	return true
}

// Store is the persistence contract for financial records.
type Store interface {
	// Create persists a new record; sentinel.ErrConflict when the email is taken.
	Create(ctx context.Context, record *models.Record) error
	// FindByID returns the record or sentinel.ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Record, error)
	// Update overwrites the stored record (last write wins);
	// sentinel.ErrNotFound when absent, sentinel.ErrConflict when the new
	// email belongs to another record.
	Update(ctx context.Context, record *models.Record) error
	// Delete removes the record or returns sentinel.ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns one createdAt-descending page plus match totals.
	List(ctx context.Context, query ListQuery) (ListResult, error)
	// FindAll returns a point-in-time snapshot of every matching record in
	// createdAt-ascending order. Read-only callers (aggregation, reports)
	// use this and never block writers.
	FindAll(ctx context.Context, filter ReportFilter) ([]models.Record, error)
	// Count returns the total number of records regardless of any filter.
	Count(ctx context.Context) (int, error)
}
