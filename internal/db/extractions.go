package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Extraction is one persisted parse result, RUT or invoice.
type Extraction struct {
	ID         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"` // "rut" | "invoice"
	Filename   string    `json:"filename"`
	NIT        string    `json:"nit"`
	FullName   string    `json:"full_name"`
	FormNumber string    `json:"form_number"`
	ResultJSON string    `json:"result_json"`
	PDFURL     string    `json:"pdf_url"`
	CreatedAt  time.Time `json:"created_at"`
}

func SaveExtraction(ctx context.Context, ext *Extraction) error {
	query := `
		INSERT INTO extractions (
			kind, filename, nit, full_name, form_number, result_json, pdf_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	return Pool.QueryRow(ctx, query,
		ext.Kind, ext.Filename, ext.NIT, ext.FullName,
		ext.FormNumber, ext.ResultJSON, ext.PDFURL,
	).Scan(&ext.ID, &ext.CreatedAt)
}

func GetExtractions(ctx context.Context, kind string, limit int) ([]Extraction, error) {
	query := `
		SELECT id, kind, COALESCE(filename, ''), COALESCE(nit, ''),
		       COALESCE(full_name, ''), COALESCE(form_number, ''),
		       COALESCE(pdf_url, ''), created_at
		FROM extractions
		WHERE ($1 = '' OR kind = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := Pool.Query(ctx, query, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exts []Extraction
	for rows.Next() {
		var e Extraction
		err := rows.Scan(
			&e.ID, &e.Kind, &e.Filename, &e.NIT,
			&e.FullName, &e.FormNumber, &e.PDFURL, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		exts = append(exts, e)
	}
	return exts, rows.Err()
}

// GetExtractionByID retrieves a single extraction with its full result JSON
func GetExtractionByID(ctx context.Context, id string) (*Extraction, error) {
	query := `
		SELECT id, kind, COALESCE(filename, ''), COALESCE(nit, ''),
		       COALESCE(full_name, ''), COALESCE(form_number, ''),
		       COALESCE(result_json::text, ''), COALESCE(pdf_url, ''), created_at
		FROM extractions
		WHERE id = $1
	`
	var e Extraction
	err := Pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.Kind, &e.Filename, &e.NIT,
		&e.FullName, &e.FormNumber, &e.ResultJSON, &e.PDFURL, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func DeleteExtraction(ctx context.Context, id string) error {
	_, err := Pool.Exec(ctx, `DELETE FROM extractions WHERE id = $1`, id)
	return err
}
