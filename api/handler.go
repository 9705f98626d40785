package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/extractorCO/rut-extractor-service/internal/ai"
	"github.com/extractorCO/rut-extractor-service/internal/auth"
	"github.com/extractorCO/rut-extractor-service/internal/db"
	"github.com/extractorCO/rut-extractor-service/internal/invoice"
	"github.com/extractorCO/rut-extractor-service/internal/models"
	"github.com/extractorCO/rut-extractor-service/internal/pdf"
	"github.com/extractorCO/rut-extractor-service/internal/rut"
	"github.com/extractorCO/rut-extractor-service/internal/services"
	"github.com/extractorCO/rut-extractor-service/internal/storage"
)

const (
	MaxUploadSize = 10 * 1024 * 1024 // 10MB
	Version       = "1.0.0"
)

// Handler handles HTTP requests for document extraction
type Handler struct {
	config           *models.Config
	rutParser        *rut.Parser
	invoiceParser    *invoice.Parser
	aiExtractor      *ai.Extractor
	rutValidator     *services.RutValidator
	invoiceValidator *services.InvoiceValidator
	textExtractor    *pdf.Extractor
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config) *Handler {
	textExtractor := pdf.NewExtractor()
	h := &Handler{
		config: config,
		rutParser: rut.NewParser(textExtractor, pdf.NewAreaExtractor(), rut.Options{
			UnconditionalActivityCodes: config.Parser.UnconditionalActivityCodes,
		}),
		invoiceParser:    invoice.NewParser(textExtractor),
		rutValidator:     services.NewRutValidator(),
		invoiceValidator: services.NewInvoiceValidator(),
		textExtractor:    textExtractor,
	}
	if config.AI.Enabled && config.AI.APIKey != "" {
		h.aiExtractor = ai.NewExtractor(ai.NewOpenAIProvider(
			config.AI.APIKey,
			config.AI.BaseURL,
			config.AI.Model,
		))
	}
	return h
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Public endpoints
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.HandleFunc("/api/login", auth.LoginHandler).Methods("POST")

	// Protected endpoints
	protected := router.PathPrefix("/api/v1").Subrouter()
	protected.Use(auth.JWTMiddleware)

	protected.HandleFunc("/rut/parse", h.ParseRut).Methods("POST")
	protected.HandleFunc("/invoice/parse", h.ParseInvoice).Methods("POST")

	protected.HandleFunc("/documents", h.GetDocuments).Methods("GET")
	protected.HandleFunc("/documents/{id}", h.GetDocument).Methods("GET")
	protected.HandleFunc("/documents/{id}", h.DeleteDocument).Methods("DELETE")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string        `json:"status"`
	Version   string        `json:"version"`
	Timestamp string        `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Memory    MemoryStats   `json:"memory"`
	Database  ServiceStatus `json:"database"`
	Storage   ServiceStatus `json:"storage"`
	AI        ServiceStatus `json:"ai"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint - enhanced for monitoring
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Database: h.checkDatabase(),
		Storage:  h.checkStorage(),
		AI:       h.checkAI(),
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// checkDatabase verifies PostgreSQL connection
func (h *Handler) checkDatabase() ServiceStatus {
	if err := db.Ping(context.Background()); err != nil {
		return ServiceStatus{
			Available: false,
			Error:     err.Error(),
		}
	}
	return ServiceStatus{
		Available: true,
		Version:   "PostgreSQL",
	}
}

// checkStorage verifies MinIO connection
func (h *Handler) checkStorage() ServiceStatus {
	if storage.Client == nil {
		return ServiceStatus{
			Available: false,
			Error:     "storage client not initialized",
		}
	}
	return ServiceStatus{
		Available: true,
		Version:   "MinIO S3",
	}
}

// checkAI reports whether the AI fallback is configured
func (h *Handler) checkAI() ServiceStatus {
	if h.aiExtractor == nil {
		return ServiceStatus{
			Available: false,
			Error:     "AI fallback disabled",
		}
	}
	return ServiceStatus{
		Available: true,
		Version:   h.config.AI.Model,
	}
}

// readPDFUpload reads and sniffs the uploaded file. A nil error means data is
// a PDF; otherwise the response has already been written.
func (h *Handler) readPDFUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "File too large or invalid form data")
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "No file provided (use 'file' field)")
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to read file")
		return nil, "", false
	}

	contentType := header.Header.Get("Content-Type")
	if !isPDF(contentType, data) {
		h.sendError(w, http.StatusUnsupportedMediaType, "Only PDF files are supported")
		return nil, "", false
	}
	return data, header.Filename, true
}

// isPDF accepts a declared PDF content type or the %PDF- magic prefix.
func isPDF(contentType string, data []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// ParseRut extracts RUT fields from an uploaded PDF
func (h *Handler) ParseRut(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	start := time.Now()

	data, filename, ok := h.readPDFUpload(w, r)
	if !ok {
		return
	}

	result := h.rutParser.Parse(data, filename)

	// AI fallback only when the rule pipeline found neither identity anchor
	hasName := result.FullName != nil && result.FullName.Display != ""
	if h.aiExtractor != nil && result.NIT == "" && !hasName {
		if text, err := h.textExtractor.Text(data); err == nil {
			if err := h.aiExtractor.Enrich(ctx, text, result); err != nil {
				fmt.Printf("Warning: AI fallback failed: %v\n", err)
			}
			hasName = result.FullName != nil && result.FullName.Display != ""
		}
	}

	if result.NIT == "" && !hasName {
		h.sendError(w, http.StatusUnprocessableEntity, "Could not extract NIT or name from document")
		return
	}

	validation := h.rutValidator.Validate(result)
	pdfURL := h.storeDocument(ctx, "rut", filename, data)
	saved := h.saveExtraction(ctx, &db.Extraction{
		Kind:       "rut",
		Filename:   filename,
		NIT:        result.NIT,
		FullName:   displayName(result),
		FormNumber: result.FormNumber,
		PDFURL:     pdfURL,
	}, result)

	response := map[string]interface{}{
		"success":    true,
		"rut":        result,
		"validation": validation,
		"duration":   time.Since(start).Seconds(),
	}
	if saved != nil {
		response["id"] = saved.ID
		response["saved_to_db"] = true
	} else {
		response["saved_to_db"] = false
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// ParseInvoice extracts invoice fields from an uploaded PDF
func (h *Handler) ParseInvoice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	start := time.Now()

	data, filename, ok := h.readPDFUpload(w, r)
	if !ok {
		return
	}

	result := h.invoiceParser.Parse(data, filename)
	validation := h.invoiceValidator.Validate(result)

	nit, name := "", ""
	if result.Issuer != nil {
		nit, name = result.Issuer.NIT, result.Issuer.Name
	}
	pdfURL := h.storeDocument(ctx, "invoice", filename, data)
	saved := h.saveExtraction(ctx, &db.Extraction{
		Kind:       "invoice",
		Filename:   filename,
		NIT:        nit,
		FullName:   name,
		FormNumber: result.InvoiceNumber,
		PDFURL:     pdfURL,
	}, result)

	response := map[string]interface{}{
		"success":    true,
		"invoice":    result,
		"validation": validation,
		"duration":   time.Since(start).Seconds(),
	}
	if saved != nil {
		response["id"] = saved.ID
		response["saved_to_db"] = true
	} else {
		response["saved_to_db"] = false
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// storeDocument uploads the original PDF; storage is optional and failures
// only log.
func (h *Handler) storeDocument(ctx context.Context, kind, filename string, data []byte) string {
	if storage.Client == nil {
		return ""
	}
	objectName := fmt.Sprintf("%s_%s_%s",
		time.Now().Format("20060102_150405"),
		uuid.New().String()[:8],
		filename,
	)
	url, err := storage.UploadDocument(ctx, kind, objectName, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		fmt.Printf("Warning: failed to upload document to MinIO: %v\n", err)
		return ""
	}
	return url
}

// saveExtraction persists the result; persistence is best-effort.
func (h *Handler) saveExtraction(ctx context.Context, ext *db.Extraction, result interface{}) *db.Extraction {
	if db.Pool == nil {
		return nil
	}
	if resultJSON, err := json.Marshal(result); err == nil {
		ext.ResultJSON = string(resultJSON)
	}
	if err := db.SaveExtraction(ctx, ext); err != nil {
		fmt.Printf("Warning: failed to save extraction to DB: %v\n", err)
		return nil
	}
	return ext
}

func displayName(res *models.RutResult) string {
	if res.FullName == nil {
		return ""
	}
	return res.FullName.Display
}

// GetDocuments returns recent extractions, optionally filtered by kind
func (h *Handler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	kind := r.URL.Query().Get("kind")
	exts, err := db.GetExtractions(ctx, kind, 100)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get documents: %v", err))
		return
	}

	// Generate presigned URLs for stored PDFs
	for i := range exts {
		if exts[i].PDFURL != "" && storage.Client != nil {
			if presignedURL, err := storage.GetPresignedURL(ctx, exts[i].PDFURL); err == nil {
				exts[i].PDFURL = presignedURL
			}
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   true,
		"documents": exts,
		"count":     len(exts),
	})
}

// GetDocument returns a single extraction with its full result
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	vars := mux.Vars(r)
	ext, err := db.GetExtractionByID(ctx, vars["id"])
	if err != nil {
		h.sendError(w, http.StatusNotFound, fmt.Sprintf("document not found: %v", err))
		return
	}

	if ext.PDFURL != "" && storage.Client != nil {
		if presignedURL, err := storage.GetPresignedURL(ctx, ext.PDFURL); err == nil {
			ext.PDFURL = presignedURL
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"document": ext,
	})
}

// DeleteDocument removes an extraction and its stored PDF
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	vars := mux.Vars(r)
	docID := vars["id"]

	if storage.Client != nil {
		ext, err := db.GetExtractionByID(ctx, docID)
		if err == nil && ext.PDFURL != "" {
			// Delete stored PDF (ignore errors)
			_ = storage.DeleteDocument(ctx, ext.PDFURL)
		}
	}

	if err := db.DeleteExtraction(ctx, docID); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "document deleted",
	})
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
