package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/extractorCO/rut-extractor-service/api"
	"github.com/extractorCO/rut-extractor-service/internal/auth"
	"github.com/extractorCO/rut-extractor-service/internal/db"
	"github.com/extractorCO/rut-extractor-service/internal/models"
	"github.com/extractorCO/rut-extractor-service/internal/storage"
)

func main() {
	// Initialize JWT
	if err := auth.Init(); err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}
	log.Println("JWT authentication initialized")

	// Initialize database connection pool
	if err := db.Init(); err != nil {
		if errors.Is(err, db.ErrNotConfigured) {
			log.Println("No database configured - running in parse-only mode")
		} else {
			log.Printf("Warning: Database not available: %v", err)
		}
	} else {
		defer db.Close()
		log.Println("Database connection pool initialized")
	}

	// Initialize MinIO storage
	if err := storage.Init(); err != nil {
		log.Printf("Warning: MinIO storage not available: %v", err)
		log.Println("Original PDFs will not be stored")
	} else {
		log.Println("MinIO storage initialized")
	}

	// Load configuration
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Create API handler
	handler := api.NewHandler(config)
	router := handler.SetupRoutes()

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	log.Printf("Starting RUT Extractor Service v%s on %s", api.Version, addr)
	log.Printf("AI fallback enabled: %v", config.AI.Enabled)
	log.Printf("Database: %v", db.Pool != nil)
	log.Printf("Storage: %v", storage.Client != nil)
	log.Printf("Endpoints:")
	log.Printf("  POST http://%s/api/login               - Authenticate", addr)
	log.Printf("  POST http://%s/api/v1/rut/parse        - Parse RUT PDF (requires JWT)", addr)
	log.Printf("  POST http://%s/api/v1/invoice/parse    - Parse invoice PDF (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/v1/documents        - List extractions (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/v1/documents/{id}   - Get extraction (requires JWT)", addr)
	log.Printf("  DELETE http://%s/api/v1/documents/{id} - Delete extraction (requires JWT)", addr)
	log.Printf("  GET  http://%s/health                  - Health check", addr)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func loadConfig(path string) (*models.Config, error) {
	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var config models.Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables if present
	if port := os.Getenv("PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.AI.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.AI.BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.AI.Model = model
	}
	if enabled := os.Getenv("AI_ENABLED"); enabled != "" {
		config.AI.Enabled = enabled == "true"
	}

	return &config, nil
}
