package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/marloe/tend/internal/apperr"
	"github.com/marloe/tend/internal/domain"
)

func saveNote(tx *sql.Tx, n *domain.Note) error {
	_, err := tx.Exec(`
		INSERT INTO notes (id, contact_id, content, is_interaction, interaction_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content
	`, n.ID, n.ContactID, n.Content, n.IsInteraction, toMillisPtr(n.InteractionDate), toMillis(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("store: upsert note: %w", err)
	}

	if err := saveOwnerTags(tx, n); err != nil {
		return fmt.Errorf("store: replace note tags: %w", err)
	}
	for _, name := range n.Tags {
		_, err := tx.Exec(`
			INSERT INTO tags (owner_kind, owner_id, name, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(owner_kind, owner_id, name) DO NOTHING
		`, domain.OwnerNote, n.ID, name, toMillis(n.CreatedAt))
		if err != nil {
			return fmt.Errorf("store: insert note tag %s: %w", name, err)
		}
	}
	return nil
}

func deleteNote(tx *sql.Tx, id string) error {
	if _, err := tx.Exec(`DELETE FROM tags WHERE owner_kind = ? AND owner_id = ?`, domain.OwnerNote, id); err != nil {
		return fmt.Errorf("store: delete note tags: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("note %s", id)
	}
	return nil
}

// GetNote loads one note and its tag names.
func (db *DB) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, contact_id, content, is_interaction, interaction_date, created_at
		FROM notes WHERE id = ?
	`, id)
	n, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("note %s", id)
		}
		return nil, fmt.Errorf("store: get note: %w", err)
	}

	tags, err := db.noteTags(ctx, `SELECT owner_id, name FROM tags WHERE owner_kind = ? AND owner_id = ? ORDER BY name`,
		domain.OwnerNote, id)
	if err != nil {
		return nil, err
	}
	n.Tags = tags[n.ID]
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return n, nil
}

// ListNotes returns a contact's notes, newest first.
func (db *DB) ListNotes(ctx context.Context, contactID string) ([]*domain.Note, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, contact_id, content, is_interaction, interaction_date, created_at
		FROM notes WHERE contact_id = ?
		ORDER BY created_at DESC, id
	`, contactID)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	defer rows.Close()

	var out []*domain.Note
	for rows.Next() {
		n, scanErr := scanNote(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("store: scan note: %w", scanErr)
		}
		n.Tags = []string{}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := db.noteTags(ctx, `
		SELECT owner_id, name FROM tags
		WHERE owner_kind = ? AND owner_id IN (SELECT id FROM notes WHERE contact_id = ?)
		ORDER BY name
	`, domain.OwnerNote, contactID)
	if err != nil {
		return nil, err
	}
	for _, n := range out {
		if t, ok := tags[n.ID]; ok {
			n.Tags = t
		}
	}
	return out, nil
}

func (db *DB) noteTags(ctx context.Context, query string, args ...any) (map[string][]string, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: note tags: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var ownerID, name string
		if err := rows.Scan(&ownerID, &name); err != nil {
			return nil, err
		}
		out[ownerID] = append(out[ownerID], name)
	}
	return out, rows.Err()
}

func scanNote(row scannable) (*domain.Note, error) {
	var (
		n         domain.Note
		date      sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(&n.ID, &n.ContactID, &n.Content, &n.IsInteraction, &date, &createdAt); err != nil {
		return nil, err
	}
	n.InteractionDate = fromMillisPtr(date)
	n.CreatedAt = fromMillis(createdAt)
	return &n, nil
}
