package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"backoffice/internal/client/models"
	"backoffice/internal/client/service"
	"backoffice/internal/client/store"
)

func newTestRouter(t *testing.T) (chi.Router, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	svc := service.New(mem)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	NewHandler(svc, logger).Register(r)
	return r, mem
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleAnalyze(t *testing.T) {
	r, mem := newTestRouter(t)
	if err := mem.Create(context.Background(), models.Client{Code: "ABC123", TaxID: "20123456783"}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	rec := doJSON(t, r, http.MethodPost, "/clients/import/analyze", map[string]any{
		"clients": []map[string]any{
			{"code": "abc-123", "taxId": "20-12345678-3"},
			{"code": "DEF456", "taxId": "27999999994", "businessName": "New SA"},
			{"code": "bad", "taxId": "1"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Summary struct {
			TotalReceived int `json:"totalReceived"`
			TotalNew      int `json:"totalNew"`
			TotalCurrent  int `json:"totalCurrent"`
			TotalInvalid  int `json:"totalInvalid"`
		} `json:"summary"`
		Data struct {
			NewRecords         []models.Client   `json:"newRecords"`
			ConflictingRecords []json.RawMessage `json:"conflictingRecords"`
			InvalidRows        []json.RawMessage `json:"invalidRows"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Summary.TotalReceived != 3 || resp.Summary.TotalNew != 1 || resp.Summary.TotalCurrent != 1 || resp.Summary.TotalInvalid != 1 {
		t.Fatalf("unexpected summary: %+v", resp.Summary)
	}
	if len(resp.Data.NewRecords) != 1 || resp.Data.NewRecords[0].Code != "DEF456" {
		t.Fatalf("unexpected new records: %+v", resp.Data.NewRecords)
	}
	if resp.Data.ConflictingRecords == nil || resp.Data.InvalidRows == nil {
		t.Fatalf("empty buckets must encode as arrays, got body %s", rec.Body.String())
	}
}

func TestHandleAnalyzeEmptyBatch(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/clients/import/analyze", map[string]any{"clients": []any{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "bad_request" {
		t.Fatalf("error = %q, want bad_request", resp["error"])
	}
}

func TestHandleAnalyzeInvalidBody(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/clients/import/analyze", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleCommit(t *testing.T) {
	r, mem := newTestRouter(t)

	body := map[string]any{
		"data": map[string]any{
			"newRecords": []map[string]any{
				{"code": "ABC123", "taxId": "20123456783", "businessName": "First SA"},
			},
		},
	}

	rec := doJSON(t, r, http.MethodPost, "/clients/import/commit", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp struct {
		Data struct {
			CreatedCount     int               `json:"createdCount"`
			DuplicateRecords []json.RawMessage `json:"duplicateRecords"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.CreatedCount != 1 {
		t.Fatalf("createdCount = %d, want 1", resp.Data.CreatedCount)
	}
	if resp.Data.DuplicateRecords == nil {
		t.Fatalf("duplicateRecords must encode as an array, got body %s", rec.Body.String())
	}

	if _, err := mem.FindByCode(context.Background(), "ABC123"); err != nil {
		t.Fatalf("committed client not persisted: %v", err)
	}

	// Replaying the same commit reports the batch as duplicates.
	rec = doJSON(t, r, http.MethodPost, "/clients/import/commit", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("replay status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode replay response: %v", err)
	}
	if resp.Data.CreatedCount != 0 || len(resp.Data.DuplicateRecords) != 1 {
		t.Fatalf("replay created %d with %d duplicates, want 0 and 1", resp.Data.CreatedCount, len(resp.Data.DuplicateRecords))
	}
}

func TestHandleCommitEmptySubset(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/clients/import/commit", map[string]any{"data": map[string]any{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleGetNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/clients/ABC123", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleCreateAndList(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/clients/", map[string]any{
		"code": "ABC123", "taxId": "20123456783", "businessName": "First SA",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/clients/?search=first", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Data  []models.Client `json:"data"`
		Total int             `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Fatalf("list returned total %d with %d items, want 1 and 1", resp.Total, len(resp.Data))
	}
}
