package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dErrors "clientbooks/pkg/domain-errors"
)

// CreateRecordRequest is the payload for creating a record. Financial fields
// default to zero when omitted; net profit is never accepted from callers.
type CreateRecordRequest struct {
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone"`
	Financials FinancialsPatch `json:"financials"`
	Notes      string          `json:"notes"`
	Tags       []string        `json:"tags"`
}

// FinancialsPatch carries optional money figures. Absent fields leave the
// existing value untouched on update and default to zero on create.
type FinancialsPatch struct {
	Revenue  *decimal.Decimal `json:"revenue"`
	Expenses *decimal.Decimal `json:"expenses"`
}

// UpdateRecordRequest is a field-presence partial update: only supplied
// fields change, and financials merge field-by-field.
type UpdateRecordRequest struct {
	Name       *string          `json:"name"`
	Email      *string          `json:"email"`
	Phone      *string          `json:"phone"`
	Financials *FinancialsPatch `json:"financials"`
	Notes      *string          `json:"notes"`
	Tags       *[]string        `json:"tags"`
}

// Validate rejects patches that would break record invariants before any
// store access happens.
func (p *UpdateRecordRequest) Validate(maxAmount decimal.Decimal) error {
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		if trimmed == "" {
			return dErrors.New(dErrors.CodeValidation, "name cannot be empty")
		}
		if len(trimmed) > 128 {
			return dErrors.New(dErrors.CodeValidation, "name must be 128 characters or less")
		}
	}
	if p.Email != nil && NormalizeEmail(*p.Email) == "" {
		return dErrors.New(dErrors.CodeValidation, "email cannot be empty")
	}
	if p.Financials != nil {
		if p.Financials.Revenue != nil {
			if err := ValidateAmount("revenue", *p.Financials.Revenue, maxAmount); err != nil {
				return err
			}
		}
		if p.Financials.Expenses != nil {
			if err := ValidateAmount("expenses", *p.Financials.Expenses, maxAmount); err != nil {
				return err
			}
		}
	}
	return nil
}

// Apply merges the patch into a copy of existing, recomputes net profit, and
// stamps the update time. It is a pure (existing, patch) -> next function;
// persistence happens elsewhere.
func (p *UpdateRecordRequest) Apply(existing Record, now time.Time) Record {
	next := existing
	// Slices on the copy still alias the original backing arrays.
	next.Tags = append([]string(nil), existing.Tags...)
	next.Attachments = append([]Attachment(nil), existing.Attachments...)

	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		next.Email = NormalizeEmail(*p.Email)
	}
	if p.Phone != nil {
		next.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Notes != nil {
		next.Notes = strings.TrimSpace(*p.Notes)
	}
	if p.Tags != nil {
		next.Tags = dedupeTags(*p.Tags)
	}
	if p.Financials != nil {
		if p.Financials.Revenue != nil {
			next.Financials.Revenue = *p.Financials.Revenue
		}
		if p.Financials.Expenses != nil {
			next.Financials.Expenses = *p.Financials.Expenses
		}
	}
	next.Recompute(now)
	return next
}

// IsEmpty reports whether the patch supplies no fields at all.
func (p *UpdateRecordRequest) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil &&
		p.Financials == nil && p.Notes == nil && p.Tags == nil
}
