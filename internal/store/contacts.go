package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/marloe/tend/internal/apperr"
	"github.com/marloe/tend/internal/domain"
)

func saveContact(tx *sql.Tx, c *domain.Contact) error {
	attrs := c.Attributes
	if attrs == nil {
		attrs = domain.Attributes{}
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("store: marshal attributes: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO contacts (id, name, first_name, attributes, briefing_text, last_contact_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name            = excluded.name,
			first_name      = excluded.first_name,
			attributes      = excluded.attributes,
			briefing_text   = excluded.briefing_text,
			last_contact_at = excluded.last_contact_at,
			updated_at      = excluded.updated_at
	`, c.ID, c.Name, c.FirstName, string(attrsJSON), c.BriefingText,
		toMillisPtr(c.LastContactAt), toMillis(c.CreatedAt), toMillis(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("store: upsert contact: %w", err)
	}

	if err := saveOwnerTags(tx, c); err != nil {
		return fmt.Errorf("store: replace contact tags: %w", err)
	}
	for _, t := range c.Tags {
		_, err := tx.Exec(`
			INSERT INTO tags (owner_kind, owner_id, name, frequency_days, last_contact, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(owner_kind, owner_id, name) DO UPDATE SET
				frequency_days = excluded.frequency_days,
				last_contact   = excluded.last_contact
		`, domain.OwnerContact, c.ID, t.Name, nullableInt(t.FrequencyDays), toMillisPtr(t.LastContact), toMillis(t.CreatedAt))
		if err != nil {
			return fmt.Errorf("store: upsert tag %s: %w", t.Name, err)
		}
	}
	return nil
}

func deleteContact(tx *sql.Tx, id string) error {
	// Tag rows have no FK (polymorphic owner), so both the contact's own
	// associations and those of its notes go explicitly; the note rows
	// themselves cascade.
	if _, err := tx.Exec(`
		DELETE FROM tags
		WHERE (owner_kind = ? AND owner_id = ?)
		   OR (owner_kind = ? AND owner_id IN (SELECT id FROM notes WHERE contact_id = ?))
	`, domain.OwnerContact, id, domain.OwnerNote, id); err != nil {
		return fmt.Errorf("store: delete contact tags: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("contact %s", id)
	}
	return nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// GetContact loads a contact and its tag associations.
func (db *DB) GetContact(ctx context.Context, id string) (*domain.Contact, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, name, first_name, attributes, briefing_text, last_contact_at, created_at, updated_at
		FROM contacts WHERE id = ?
	`, id)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("contact %s", id)
		}
		return nil, fmt.Errorf("store: get contact: %w", err)
	}

	tags, err := db.contactTags(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Tags = tags
	return c, nil
}

// ListContacts returns every contact with tags attached, ordered by name.
func (db *DB) ListContacts(ctx context.Context) ([]*domain.Contact, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, first_name, attributes, briefing_text, last_contact_at, created_at, updated_at
		FROM contacts ORDER BY name COLLATE NOCASE, id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list contacts: %w", err)
	}
	defer rows.Close()

	var out []*domain.Contact
	byID := make(map[string]*domain.Contact)
	for rows.Next() {
		c, scanErr := scanContact(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("store: scan contact: %w", scanErr)
		}
		out = append(out, c)
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tagRows, err := db.conn.QueryContext(ctx, `
		SELECT owner_id, name, frequency_days, last_contact, created_at
		FROM tags WHERE owner_kind = ? ORDER BY created_at, name
	`, domain.OwnerContact)
	if err != nil {
		return nil, fmt.Errorf("store: list contact tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		t, ownerID, scanErr := scanTag(tagRows)
		if scanErr != nil {
			return nil, fmt.Errorf("store: scan tag: %w", scanErr)
		}
		if c, ok := byID[ownerID]; ok {
			t.ContactID = ownerID
			c.Tags = append(c.Tags, t)
		}
	}
	return out, tagRows.Err()
}

func (db *DB) contactTags(ctx context.Context, contactID string) ([]*domain.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT owner_id, name, frequency_days, last_contact, created_at
		FROM tags WHERE owner_kind = ? AND owner_id = ?
		ORDER BY created_at, name
	`, domain.OwnerContact, contactID)
	if err != nil {
		return nil, fmt.Errorf("store: contact tags: %w", err)
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		t, ownerID, scanErr := scanTag(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("store: scan tag: %w", scanErr)
		}
		t.ContactID = ownerID
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanContact(row scannable) (*domain.Contact, error) {
	var (
		c         domain.Contact
		attrsJSON string
		lastAt    sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.FirstName, &attrsJSON, &c.BriefingText, &lastAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(attrsJSON), &c.Attributes); err != nil {
		return nil, fmt.Errorf("unmarshal attributes: %w", err)
	}
	c.LastContactAt = fromMillisPtr(lastAt)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	c.Tags = []*domain.Tag{}
	return &c, nil
}

func scanTag(row scannable) (*domain.Tag, string, error) {
	var (
		t         domain.Tag
		ownerID   string
		freq      sql.NullInt64
		last      sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(&ownerID, &t.Name, &freq, &last, &createdAt); err != nil {
		return nil, "", err
	}
	t.FrequencyDays = intPtr(freq)
	t.LastContact = fromMillisPtr(last)
	t.CreatedAt = fromMillis(createdAt)
	return &t, ownerID, nil
}
