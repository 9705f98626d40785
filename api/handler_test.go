package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/extractorCO/rut-extractor-service/internal/models"
)

func newTestHandler() *Handler {
	return NewHandler(&models.Config{
		Parser: models.ParserConfig{UnconditionalActivityCodes: []string{"6201"}},
	})
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		data        []byte
		want        bool
	}{
		{"declared type", "application/pdf", []byte("whatever"), true},
		{"declared type mixed case", "Application/PDF", nil, true},
		{"magic prefix", "application/octet-stream", []byte("%PDF-1.4 rest"), true},
		{"neither", "text/plain", []byte("hola"), false},
		{"empty", "", nil, false},
	}
	for _, tt := range tests {
		if got := isPDF(tt.contentType, tt.data); got != tt.want {
			t.Errorf("%s: isPDF(%q, ...) = %v, want %v", tt.name, tt.contentType, got, tt.want)
		}
	}
}

func TestHealthReportsUnavailableDependencies(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding health response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want %q", resp.Status, "healthy")
	}
	if resp.Version != Version {
		t.Errorf("version = %q, want %q", resp.Version, Version)
	}
	// No DB, storage or AI configured in tests.
	if resp.Database.Available {
		t.Error("database reported available without a pool")
	}
	if resp.Storage.Available {
		t.Error("storage reported available without a client")
	}
	if resp.AI.Available {
		t.Error("AI reported available without configuration")
	}
}

func multipartUpload(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("creating multipart part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("writing multipart part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestParseRutRejectsMissingFile(t *testing.T) {
	h := newTestHandler()

	body, contentType := multipartUpload(t, "document", "rut.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rut/parse", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ParseRut(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestParseRutRejectsNonPDF(t *testing.T) {
	h := newTestHandler()

	body, contentType := multipartUpload(t, "file", "rut.txt", "text/plain", []byte("esto no es un pdf"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rut/parse", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ParseRut(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnsupportedMediaType)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp["error"] == "" {
		t.Error("expected an error message in the response body")
	}
}

func TestParseRutRejectsInvalidForm(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rut/parse", bytes.NewReader([]byte("no multipart")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ParseRut(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestParseRutUnprocessableWhenNothingExtracted(t *testing.T) {
	h := newTestHandler()

	// Carries the PDF magic prefix but no parseable content, so the
	// pipeline finds neither NIT nor name.
	body, contentType := multipartUpload(t, "file", "vacio.pdf", "application/pdf", []byte("%PDF-1.4\ngarbage"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rut/parse", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ParseRut(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestGetDocumentsWithoutDatabase(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	rec := httptest.NewRecorder()
	h.GetDocuments(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestSetupRoutesHealthIsPublic(t *testing.T) {
	h := newTestHandler()
	router := h.SetupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestSetupRoutesProtectedRequiresAuth(t *testing.T) {
	h := newTestHandler()
	router := h.SetupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestParseInvoiceRejectsNonPDF(t *testing.T) {
	h := newTestHandler()

	body, contentType := multipartUpload(t, "file", "factura.csv", "text/csv", []byte("a;b;c"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoice/parse", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ParseInvoice(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnsupportedMediaType)
	}
}
