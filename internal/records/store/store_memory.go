package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"clientbooks/internal/records/models"
	"clientbooks/pkg/platform/sentinel"
)

// InMemory keeps records in a mutex-guarded map. It favors clarity over
// performance and backs tests and single-node deployments. The email index
// makes the uniqueness check and the write one critical section, so a lost
// create race surfaces as sentinel.ErrConflict rather than a duplicate.
type InMemory struct {
	mu      sync.RWMutex
	records map[uuid.UUID]models.Record
	byEmail map[string]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		records: make(map[uuid.UUID]models.Record),
		byEmail: make(map[string]uuid.UUID),
	}
}

var _ Store = (*InMemory)(nil)

func (s *InMemory) Create(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[record.Email]; taken {
		return sentinel.ErrConflict
	}
	s.records[record.ID] = cloneRecord(*record)
	s.byEmail[record.Email] = record.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[id]; ok {
		out := cloneRecord(record)
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[record.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if owner, taken := s.byEmail[record.Email]; taken && owner != record.ID {
		return sentinel.ErrConflict
	}
	if existing.Email != record.Email {
		delete(s.byEmail, existing.Email)
		s.byEmail[record.Email] = record.ID
	}
	s.records[record.ID] = cloneRecord(*record)
	return nil
}

func (s *InMemory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, id)
	delete(s.byEmail, record.Email)
	return nil
}

func (s *InMemory) List(_ context.Context, query ListQuery) (ListResult, error) {
	query.Normalize()

	s.mu.RLock()
	matched := make([]models.Record, 0, len(s.records))
	for _, record := range s.records {
		if matchesListQuery(&record, query) {
			matched = append(matched, cloneRecord(record))
		}
	}
	s.mu.RUnlock()

	// Newest first; id as tie-break keeps pages stable.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	totalPages := (total + query.Limit - 1) / query.Limit
	start := (query.Page - 1) * query.Limit
	if start > total {
		start = total
	}
	end := start + query.Limit
	if end > total {
		end = total
	}

	return ListResult{
		Records:      matched[start:end],
		TotalClients: total,
		TotalPages:   totalPages,
		CurrentPage:  query.Page,
	}, nil
}

func (s *InMemory) FindAll(_ context.Context, filter ReportFilter) ([]models.Record, error) {
	s.mu.RLock()
	matched := make([]models.Record, 0, len(s.records))
	for _, record := range s.records {
		if filter.Matches(&record) {
			matched = append(matched, cloneRecord(record))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	return matched, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func matchesListQuery(r *models.Record, q ListQuery) bool {
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(r.Name), needle) &&
			!strings.Contains(strings.ToLower(r.Email), needle) {
			return false
		}
	}
	if q.MinRevenue != nil && r.Financials.Revenue.LessThan(*q.MinRevenue) {
		return false
	}
	if q.MaxRevenue != nil && r.Financials.Revenue.GreaterThan(*q.MaxRevenue) {
		return false
	}
	return true
}

// cloneRecord copies slice fields so callers never alias stored state.
func cloneRecord(r models.Record) models.Record {
	r.Tags = append([]string(nil), r.Tags...)
	r.Attachments = append([]models.Attachment(nil), r.Attachments...)
	return r
}
