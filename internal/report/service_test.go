package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clientbooks/internal/records/models"
	"clientbooks/internal/records/store"
	dErrors "clientbooks/pkg/domain-errors"
)

func seedStore(t *testing.T, records ...models.Record) *store.InMemory {
	t.Helper()
	s := store.NewInMemory()
	for i := range records {
		require.NoError(t, s.Create(context.Background(), &records[i]))
	}
	return s
}

func TestRenderEmptyStore(t *testing.T) {
	svc := New(store.NewInMemory())

	_, err := svc.Render(context.Background(), FormatTabular, store.ReportFilter{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeEmptyStore), "got %v", err)
}

func TestRenderFilterMatchingNothing(t *testing.T) {
	svc := New(seedStore(t,
		testRecord("Acme", "1000", "400", time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)),
	))

	missing := uuid.New()
	_, err := svc.Render(context.Background(), FormatTabular, store.ReportFilter{RecordID: &missing})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNoMatch), "got %v", err)
}

func TestRenderUnknownFormat(t *testing.T) {
	svc := New(store.NewInMemory())
	_, err := svc.Render(context.Background(), Format("pdf"), store.ReportFilter{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestRenderDateRangeIncludingOneRecord(t *testing.T) {
	svc := New(seedStore(t,
		testRecord("Acme", "1000", "400", time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)),
		testRecord("Globex", "50", "20", time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)),
	))

	from := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC)
	data, err := svc.Render(context.Background(), FormatTabular, store.ReportFilter{
		CreatedFrom: &from,
		CreatedTo:   &to,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2, "header plus exactly one row")
	assert.Equal(t, "Acme,Acme@example.com,1000,400,600,2025-06-15", lines[1])
}

func TestSummarizeEmptyStoreIsNotAnError(t *testing.T) {
	svc := New(store.NewInMemory())

	summary, err := svc.Summarize(context.Background(), store.ReportFilter{})
	require.NoError(t, err)
	assert.True(t, summary.Totals.NetProfit.IsZero())
	assert.Empty(t, summary.MonthlySeries)
}
