package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dErrors "clientbooks/pkg/domain-errors"
)

// Financials carries a record's money figures. NetProfit is derived and only
// ever written by Recompute; no request type exposes it.
type Financials struct {
	Revenue   decimal.Decimal `json:"revenue"`
	Expenses  decimal.Decimal `json:"expenses"`
	NetProfit decimal.Decimal `json:"net_profit"`
}

// Attachment is one supporting document recorded against a client. Entries
// are append/remove only; an existing entry is never edited in place.
type Attachment struct {
	FileName   string    `json:"file_name"`
	StorageURL string    `json:"storage_url"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Record is the aggregate root for a client's identity and financial data.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Email is non-empty, lowercase, and unique across the store
//   - Revenue and Expenses are non-negative and bounded by the configured max
//   - NetProfit always equals Revenue − Expenses; it is recomputed at the
//     single mutation choke point, never set by callers
//   - CreatedBy is immutable after construction
type Record struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone,omitempty"`
	Financials  Financials   `json:"financials"`
	Notes       string       `json:"notes,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedBy   string       `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewRecord constructs a record, validating invariants and deriving net
// profit. maxAmount bounds revenue/expenses to reject overflow and garbage.
func NewRecord(
	id uuid.UUID,
	name string,
	email string,
	phone string,
	revenue decimal.Decimal,
	expenses decimal.Decimal,
	notes string,
	tags []string,
	createdBy string,
	maxAmount decimal.Decimal,
	now time.Time,
) (*Record, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name must be 128 characters or less")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidateAmount("revenue", revenue, maxAmount); err != nil {
		return nil, err
	}
	if err := ValidateAmount("expenses", expenses, maxAmount); err != nil {
		return nil, err
	}
	if createdBy == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "created_by cannot be empty")
	}

	r := &Record{
		ID:        id,
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(phone),
		Notes:     strings.TrimSpace(notes),
		Tags:      dedupeTags(tags),
		CreatedBy: createdBy,
		CreatedAt: now,
	}
	r.Financials.Revenue = revenue
	r.Financials.Expenses = expenses
	r.Recompute(now)
	return r, nil
}

// Recompute derives net profit from the current revenue/expenses pair and
// refreshes the update timestamp. Every mutation path must funnel through
// this before persisting; there is no other writer of NetProfit.
func (r *Record) Recompute(now time.Time) {
	r.Financials.NetProfit = r.Financials.Revenue.Sub(r.Financials.Expenses)
	r.UpdatedAt = now
}

// HasAttachment reports whether the given storage URL is recorded on this
// record. Signing and deletion must check this first so a caller can never
// reach storage keys that belong to another record.
func (r *Record) HasAttachment(storageURL string) bool {
	for _, a := range r.Attachments {
		if a.StorageURL == storageURL {
			return true
		}
	}
	return false
}

// RemoveAttachment drops the entry with the given storage URL, preserving
// the order of the rest. Returns false when the URL is not recorded.
func (r *Record) RemoveAttachment(storageURL string) bool {
	for i, a := range r.Attachments {
		if a.StorageURL == storageURL {
			r.Attachments = append(r.Attachments[:i], r.Attachments[i+1:]...)
			return true
		}
	}
	return false
}

// NormalizeEmail lowercases and trims an email for case-insensitive
// uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateAmount checks a money figure is within [0, max], naming the
// offending field in the error.
func ValidateAmount(field string, v decimal.Decimal, max decimal.Decimal) error {
	if v.IsNegative() {
		return dErrors.Newf(dErrors.CodeValidation, "%s must be a non-negative number", field)
	}
	if v.GreaterThan(max) {
		return dErrors.Newf(dErrors.CodeValidation, "%s exceeds the maximum allowed value %s", field, max)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "email cannot be empty")
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return dErrors.New(dErrors.CodeInvariantViolation, "email is not a valid address")
	}
	return nil
}

// dedupeTags preserves first-seen order while dropping duplicates and blanks.
func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
