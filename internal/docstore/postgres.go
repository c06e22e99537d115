package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"gitlab.com/nwaiyar/pocketbank/internal/database"
)

// Postgres stores documents in a single JSONB-backed table.
type Postgres struct {
	db database.PGXDB
}

// NewPostgres creates a document store over the given connection.
func NewPostgres(db database.PGXDB) *Postgres {
	return &Postgres{db: db}
}

var _ Store = (*Postgres)(nil)

// Get retrieves the document stored under key.
func (s *Postgres) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var doc json.RawMessage
	err := s.db.QueryRow(ctx, `SELECT doc FROM documents WHERE key = $1`, key).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %q: %w", key, err)
	}
	return doc, nil
}

// Set stores doc under key, replacing any existing document.
func (s *Postgres) Set(ctx context.Context, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %q: %w", key, err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO documents (key, doc) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()
	`, key, data)
	if err != nil {
		return fmt.Errorf("failed to set document %q: %w", key, err)
	}
	return nil
}

// Delete removes the document under key. Deleting an absent key succeeds.
func (s *Postgres) Delete(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM documents WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete document %q: %w", key, err)
	}
	return nil
}

// List returns all documents whose key starts with prefix.
func (s *Postgres) List(ctx context.Context, prefix string) ([]Document, error) {
	// Keys contain underscores, which LIKE treats as a wildcard.
	pattern := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix) + "%"
	rows, err := s.db.Query(ctx, `SELECT key, doc FROM documents WHERE key LIKE $1`, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents with prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.Key, &d.Data); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, nil
}
