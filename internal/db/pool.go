package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the shared connection pool. It stays nil when no database is
// configured; callers treat persistence as best-effort.
var Pool *pgxpool.Pool

// ErrNotConfigured reports that no database settings were found in the
// environment. The service runs in parse-only mode in that case.
var ErrNotConfigured = errors.New("database not configured")

func connString() (string, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	host := os.Getenv("DB_HOST")
	user := os.Getenv("DB_USER")
	name := os.Getenv("DB_NAME")
	if host == "" || user == "" || name == "" {
		return "", ErrNotConfigured
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
		user, os.Getenv("DB_PASSWORD"), host, port, name), nil
}

// Init connects the pool and makes sure the extractions table exists.
func Init() error {
	dsn, err := connString()
	if err != nil {
		return err
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parsing database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("pinging database: %w", err)
	}
	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return fmt.Errorf("creating schema: %w", err)
	}

	Pool = pool
	log.Println("[DB] connection pool ready")
	return nil
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS extractions (
			id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			kind        text NOT NULL,
			filename    text,
			nit         text,
			full_name   text,
			form_number text,
			result_json jsonb,
			pdf_url     text,
			created_at  timestamptz NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS extractions_kind_created_idx
			ON extractions (kind, created_at DESC);
	`)
	return err
}

// Ping reports whether the database is reachable right now.
func Ping(ctx context.Context) error {
	if Pool == nil {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return Pool.Ping(ctx)
}

// Close releases the pool.
func Close() {
	if Pool != nil {
		Pool.Close()
		log.Println("[DB] connection pool closed")
	}
}
