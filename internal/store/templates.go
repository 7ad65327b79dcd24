package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/marloe/tend/internal/apperr"
	"github.com/marloe/tend/internal/template"
)

// Verify *DB satisfies the registry's store contract at compile time.
var _ template.Store = (*DB)(nil)

// SaveTemplateVersion appends a version snapshot. Versions are
// append-only: an insert conflict means the version number was already
// published, which is a bug upstream, so it surfaces as an error.
func (db *DB) SaveTemplateVersion(ctx context.Context, v *template.Version) error {
	catsJSON, err := json.Marshal(v.Categories)
	if err != nil {
		return fmt.Errorf("store: marshal categories: %w", err)
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO template_versions (version, categories, checksum, created_at)
		VALUES (?, ?, ?, ?)
	`, v.Version, string(catsJSON), v.Checksum, toMillis(v.CreatedAt))
	if err != nil {
		return fmt.Errorf("store: insert template version %d: %w", v.Version, err)
	}
	return nil
}

// LatestTemplateVersion returns the highest published version.
func (db *DB) LatestTemplateVersion(ctx context.Context) (*template.Version, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT version, categories, checksum, created_at
		FROM template_versions ORDER BY version DESC LIMIT 1
	`)
	v, err := scanTemplateVersion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("no template version published")
		}
		return nil, fmt.Errorf("store: latest template version: %w", err)
	}
	return v, nil
}

// TemplateVersions returns all published versions, oldest first.
func (db *DB) TemplateVersions(ctx context.Context) ([]*template.Version, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT version, categories, checksum, created_at
		FROM template_versions ORDER BY version
	`)
	if err != nil {
		return nil, fmt.Errorf("store: template versions: %w", err)
	}
	defer rows.Close()

	var out []*template.Version
	for rows.Next() {
		v, scanErr := scanTemplateVersion(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("store: scan template version: %w", scanErr)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanTemplateVersion(row scannable) (*template.Version, error) {
	var (
		v         template.Version
		catsJSON  string
		createdAt int64
	)
	if err := row.Scan(&v.Version, &catsJSON, &v.Checksum, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(catsJSON), &v.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}
	v.CreatedAt = fromMillis(createdAt)
	return &v, nil
}
