package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clientbooks/internal/identity"
	"clientbooks/internal/objstore"
	"clientbooks/internal/records/service"
	"clientbooks/internal/records/store"
	"clientbooks/pkg/testutil"
)

var admin = identity.Principal{ID: "user-admin", Email: "admin@example.com", Role: identity.RoleAdmin}

func newTestRouter(t *testing.T) (chi.Router, *objstore.InMemory) {
	t.Helper()
	files := objstore.NewInMemory()
	svc := service.New(store.NewInMemory(), decimal.New(1, 15),
		service.WithObjectStorage(files, 15*time.Minute))
	h := New(svc, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, testutil.AsPrincipal(req, admin))
		})
	})
	r.Post("/api/clients", h.HandleCreate)
	r.Get("/api/clients", h.HandleList)
	r.Get("/api/clients/{id}", h.HandleGet)
	r.Put("/api/clients/{id}", h.HandleUpdate)
	r.Delete("/api/clients/{id}", h.HandleDelete)
	r.Post("/api/clients/{id}/files", h.HandleUploadAttachment)
	r.Delete("/api/clients/{id}/files", h.HandleRemoveAttachment)
	r.Get("/api/clients/{id}/files/signed-url", h.HandleSignAttachment)
	return r, files
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createClient(t *testing.T, r chi.Router, name, email string, revenue, expenses float64) map[string]any {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/api/clients", map[string]any{
		"name":  name,
		"email": email,
		"financials": map[string]any{
			"revenue":  revenue,
			"expenses": expenses,
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	return created
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return testutil.ErrorCode(t, rec)
}

func TestCreateClient(t *testing.T) {
	r, _ := newTestRouter(t)

	created := createClient(t, r, "Acme", "acme@example.com", 1000, 400)

	financials := created["financials"].(map[string]any)
	assert.Equal(t, "600", financials["net_profit"])
	assert.Equal(t, admin.ID, created["created_by"])
}

func TestCreateClientDuplicateEmail(t *testing.T) {
	r, _ := newTestRouter(t)
	createClient(t, r, "Acme", "dup@example.com", 10, 0)

	rec := doJSON(t, r, http.MethodPost, "/api/clients", map[string]any{
		"name": "Imposter", "email": "dup@example.com",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorCode(t, rec))
}

func TestCreateClientMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/clients", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))
}

func TestListRejectsNonNumericRevenueFilter(t *testing.T) {
	r, _ := newTestRouter(t)
	createClient(t, r, "Acme", "acme@example.com", 10, 0)

	rec := doJSON(t, r, http.MethodGet, "/api/clients?minRevenue=lots", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))
}

func TestListPaginates(t *testing.T) {
	r, _ := newTestRouter(t)
	for i := 0; i < 15; i++ {
		createClient(t, r, fmt.Sprintf("Client %02d", i), fmt.Sprintf("c%02d@example.com", i), float64(i), 0)
	}

	rec := doJSON(t, r, http.MethodGet, "/api/clients?page=2&limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Clients      []json.RawMessage `json:"clients"`
		TotalClients int               `json:"totalClients"`
		TotalPages   int               `json:"totalPages"`
		CurrentPage  int               `json:"currentPage"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Clients, 5)
	assert.Equal(t, 15, body.TotalClients)
	assert.Equal(t, 2, body.TotalPages)
	assert.Equal(t, 2, body.CurrentPage)
}

func TestGetClient(t *testing.T) {
	r, _ := newTestRouter(t)
	created := createClient(t, r, "Acme", "acme@example.com", 10, 0)

	rec := doJSON(t, r, http.MethodGet, "/api/clients/"+created["id"].(string), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/clients/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/clients/b1c3d9be-5d29-4d7c-9f8a-0a1b2c3d4e5f", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateClientPartialMerge(t *testing.T) {
	r, _ := newTestRouter(t)
	created := createClient(t, r, "Acme", "acme@example.com", 1000, 400)

	rec := doJSON(t, r, http.MethodPut, "/api/clients/"+created["id"].(string), map[string]any{
		"financials": map[string]any{"expenses": 100},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	financials := updated["financials"].(map[string]any)
	assert.Equal(t, "1000", financials["revenue"])
	assert.Equal(t, "900", financials["net_profit"])
	assert.Equal(t, "Acme", updated["name"])
}

func TestDeleteClient(t *testing.T) {
	r, _ := newTestRouter(t)
	created := createClient(t, r, "Acme", "acme@example.com", 10, 0)
	path := "/api/clients/" + created["id"].(string)

	rec := doJSON(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))
}

func uploadFile(t *testing.T, r chi.Router, path, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAttachmentEndpoints(t *testing.T) {
	r, files := newTestRouter(t)
	created := createClient(t, r, "Acme", "acme@example.com", 10, 0)
	base := "/api/clients/" + created["id"].(string) + "/files"

	rec := uploadFile(t, r, base, "contract.pdf", []byte("pdf-bytes"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var attachment map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&attachment))
	fileURL := attachment["storage_url"].(string)
	require.NotEmpty(t, fileURL)
	assert.Equal(t, 1, files.Len())

	rec = doJSON(t, r, http.MethodGet, base+"/signed-url?fileUrl="+fileURL, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var signed map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&signed))
	assert.NotEmpty(t, signed["signedUrl"])

	rec = doJSON(t, r, http.MethodGet, base+"/signed-url", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, base+"?fileUrl="+fileURL, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, files.Len())
}

func TestUploadWithoutFileField(t *testing.T) {
	r, _ := newTestRouter(t)
	created := createClient(t, r, "Acme", "acme@example.com", 10, 0)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/clients/"+created["id"].(string)+"/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))
}
