package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clientbooks/internal/platform/metrics"
	"clientbooks/internal/records/store"
	dErrors "clientbooks/pkg/domain-errors"
	"clientbooks/pkg/platform/sentinel"
)

// Format selects the export artifact a report renders to.
type Format string

const (
	FormatTabular  Format = "tabular"
	FormatDocument Format = "document"
)

// ContentType returns the MIME type of the rendered artifact.
func (f Format) ContentType() string {
	if f == FormatDocument {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Service reads a point-in-time snapshot of the record store and turns it
// into dashboard summaries or rendered reports. It never writes.
type Service struct {
	records store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
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

// WithClock overrides time.Now, used by tests for a stable generation date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(records store.Store, opts ...Option) *Service {
	s := &Service{records: records, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize computes the dashboard aggregate for the filter. An empty match
// set yields zero totals and an empty series, not an error.
func (s *Service) Summarize(ctx context.Context, filter store.ReportFilter) (Summary, error) {
	records, err := s.records.FindAll(ctx, filter)
	if err != nil {
		return Summary{}, translateStoreError(err, "failed to read records for summary")
	}

	summary := Summarize(records)
	if s.metrics != nil {
		s.metrics.SummariesServed.Inc()
	}
	return summary, nil
}

// Render produces the report artifact for the filter. An empty match set is
// reported as no_match when records exist and empty_store when none do, so
// callers can tell a too-narrow filter from a blank system.
func (s *Service) Render(ctx context.Context, format Format, filter store.ReportFilter) ([]byte, error) {
	if format != FormatTabular && format != FormatDocument {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown report format %q", format)
	}

	records, err := s.records.FindAll(ctx, filter)
	if err != nil {
		return nil, translateStoreError(err, "failed to read records for report")
	}

	if len(records) == 0 {
		total, err := s.records.Count(ctx)
		if err != nil {
			return nil, translateStoreError(err, "failed to count records")
		}
		if total == 0 {
			return nil, dErrors.New(dErrors.CodeEmptyStore, "no client records exist")
		}
		return nil, dErrors.New(dErrors.CodeNoMatch, "no records match the report filter")
	}

	var data []byte
	switch format {
	case FormatTabular:
		data, err = RenderCSV(records)
	case FormatDocument:
		data, err = RenderXLSX(records, s.now())
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render report")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "report generated", "format", string(format), "rows", len(records))
	}
	if s.metrics != nil {
		s.metrics.ReportsGenerated.WithLabelValues(string(format)).Inc()
	}
	return data, nil
}

func translateStoreError(err error, message string) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "record store is unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}
