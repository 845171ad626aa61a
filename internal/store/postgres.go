package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps every collection document as one JSONB row of the documents table
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres creates a document store over an open pool
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the documents table if it does not exist
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT PRIMARY KEY,
			body       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := p.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

// Backend returns the backend for one collection
func (p *Postgres) Backend(collection string) Backend {
	return &pgDocument{db: p.db, collection: collection}
}

type pgDocument struct {
	db         *pgxpool.Pool
	collection string
}

func (d *pgDocument) Read(ctx context.Context) ([]byte, error) {
	query := `SELECT body FROM documents WHERE collection = $1`
	var body []byte
	err := d.db.QueryRow(ctx, query, d.collection).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return body, nil
}

func (d *pgDocument) Write(ctx context.Context, data []byte) error {
	query := `
		INSERT INTO documents (collection, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (collection) DO UPDATE SET body = EXCLUDED.body, updated_at = now()
	`
	if _, err := d.db.Exec(ctx, query, d.collection, data); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

func (d *pgDocument) Location() string {
	return "postgres:documents/" + d.collection
}
