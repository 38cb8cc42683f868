package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clientbooks/internal/identity"
	"clientbooks/internal/objstore"
	"clientbooks/internal/records/models"
	"clientbooks/internal/records/store"
	dErrors "clientbooks/pkg/domain-errors"
)

var (
	analyst = identity.Principal{ID: "user-analyst", Email: "analyst@example.com", Role: identity.RoleAnalyst}
	maxTest = decimal.New(1, 15)
)

func newService(t *testing.T, opts ...Option) (*Service, *store.InMemory) {
	t.Helper()
	records := store.NewInMemory()
	return New(records, maxTest, opts...), records
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func createRequest(name, email, revenue, expenses string) *models.CreateRecordRequest {
	return &models.CreateRecordRequest{
		Name:  name,
		Email: email,
		Financials: models.FinancialsPatch{
			Revenue:  amount(revenue),
			Expenses: amount(expenses),
		},
	}
}

func TestCreateDerivesNetProfit(t *testing.T) {
	svc, _ := newService(t)

	record, err := svc.Create(context.Background(), analyst, createRequest("Acme", "acme@example.com", "1000", "400"))
	require.NoError(t, err)

	assert.Equal(t, "600", record.Financials.NetProfit.String())
	assert.Equal(t, analyst.ID, record.CreatedBy)
	assert.Equal(t, record.CreatedAt, record.UpdatedAt)
}

func TestCreateDefaultsMissingFinancialsToZero(t *testing.T) {
	svc, _ := newService(t)

	record, err := svc.Create(context.Background(), analyst, &models.CreateRecordRequest{
		Name: "Acme", Email: "acme@example.com",
	})
	require.NoError(t, err)
	assert.True(t, record.Financials.NetProfit.IsZero())
}

func TestCreateRejectsOverMaximum(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Create(context.Background(), analyst, createRequest("Acme", "acme@example.com", "2e15", "0"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	svc, records := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, analyst, createRequest("Acme", "dup@example.com", "10", "0"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, analyst, createRequest("Imposter", "dup@example.com", "20", "0"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict), "got %v", err)

	count, err := records.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpdateMergesAndRecomputes(t *testing.T) {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	clock := base
	svc, _ := newService(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	record, err := svc.Create(ctx, analyst, createRequest("Acme", "acme@example.com", "1000", "400"))
	require.NoError(t, err)

	clock = base.Add(time.Hour)
	updated, err := svc.Update(ctx, record.ID, &models.UpdateRecordRequest{
		Financials: &models.FinancialsPatch{Expenses: amount("100")},
	})
	require.NoError(t, err)

	assert.Equal(t, "1000", updated.Financials.Revenue.String(), "revenue untouched")
	assert.Equal(t, "900", updated.Financials.NetProfit.String(), "net profit recomputed")
	assert.Equal(t, base.Add(time.Hour), updated.UpdatedAt)
	assert.Equal(t, base, updated.CreatedAt)
}

func TestUpdateRejectsOverMaximumBeforeAnyWrite(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	record, err := svc.Create(ctx, analyst, createRequest("Acme", "acme@example.com", "1000", "400"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, record.ID, &models.UpdateRecordRequest{
		Financials: &models.FinancialsPatch{Revenue: amount("2e15")},
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	unchanged, err := svc.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000", unchanged.Financials.Revenue.String())
}

func TestUpdateEmptyPatchFailsValidation(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Update(context.Background(), uuid.New(), &models.UpdateRecordRequest{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestUpdateEmailToTakenEmailConflicts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, analyst, createRequest("A", "a@example.com", "1", "0"))
	require.NoError(t, err)
	b, err := svc.Create(ctx, analyst, createRequest("B", "b@example.com", "1", "0"))
	require.NoError(t, err)

	email := "a@example.com"
	_, err = svc.Update(ctx, b.ID, &models.UpdateRecordRequest{Email: &email})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestDeleteMissingRecordFails(t *testing.T) {
	svc, records := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, analyst, createRequest("Keep", "keep@example.com", "1", "0"))
	require.NoError(t, err)

	err = svc.Delete(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	count, err := records.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "store size unchanged")
}

func TestDeleteReleasesAttachmentStorage(t *testing.T) {
	files := objstore.NewInMemory()
	records := store.NewInMemory()
	svc := New(records, maxTest, WithObjectStorage(files, 15*time.Minute))
	ctx := context.Background()

	record, err := svc.Create(ctx, analyst, createRequest("Acme", "acme@example.com", "1", "0"))
	require.NoError(t, err)

	_, err = svc.UploadAttachment(ctx, analyst, record.ID, "contract.pdf", "application/pdf", []byte("pdf"))
	require.NoError(t, err)
	_, err = svc.UploadAttachment(ctx, analyst, record.ID, "invoice.pdf", "application/pdf", []byte("pdf"))
	require.NoError(t, err)
	require.Equal(t, 2, files.Len())

	require.NoError(t, svc.Delete(ctx, record.ID))
	assert.Equal(t, 0, files.Len(), "delete must release owned attachment storage")
}

func TestAttachmentLifecycle(t *testing.T) {
	files := objstore.NewInMemory()
	records := store.NewInMemory()
	svc := New(records, maxTest, WithObjectStorage(files, 15*time.Minute))
	ctx := context.Background()

	record, err := svc.Create(ctx, analyst, createRequest("Acme", "acme@example.com", "1", "0"))
	require.NoError(t, err)

	attachment, err := svc.UploadAttachment(ctx, analyst, record.ID, "contract.pdf", "application/pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, analyst.ID, attachment.UploadedBy)

	reloaded, err := svc.Get(ctx, record.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Attachments, 1)

	signed, err := svc.SignAttachment(ctx, record.ID, attachment.StorageURL)
	require.NoError(t, err)
	assert.NotEmpty(t, signed)

	require.NoError(t, svc.RemoveAttachment(ctx, record.ID, attachment.StorageURL))
	assert.Equal(t, 0, files.Len())

	err = svc.RemoveAttachment(ctx, record.ID, attachment.StorageURL)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestSignAttachmentRefusesForeignURL(t *testing.T) {
	files := objstore.NewInMemory()
	records := store.NewInMemory()
	svc := New(records, maxTest, WithObjectStorage(files, 15*time.Minute))
	ctx := context.Background()

	victim, err := svc.Create(ctx, analyst, createRequest("Victim", "victim@example.com", "1", "0"))
	require.NoError(t, err)
	attacker, err := svc.Create(ctx, analyst, createRequest("Attacker", "attacker@example.com", "1", "0"))
	require.NoError(t, err)

	attachment, err := svc.UploadAttachment(ctx, analyst, victim.ID, "secret.pdf", "application/pdf", []byte("pdf"))
	require.NoError(t, err)

	// Signing through a record the URL is not recorded on must be refused.
	_, err = svc.SignAttachment(ctx, attacker.ID, attachment.StorageURL)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}
