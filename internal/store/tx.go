package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/marloe/tend/internal/apperr"
	"github.com/marloe/tend/internal/domain"
)

// WithTx runs fn inside one transaction. A failing fn rolls everything
// back; a failed commit surfaces as a transaction error so the caller
// knows to re-check state; a failed rollback is marked fatal because the
// stored state is then indeterminate.
func (db *DB) WithTx(ctx context.Context, fn func(UnitOfWork) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return &apperr.Error{Kind: apperr.KindTransaction, Msg: "begin transaction", Err: err}
	}
	if err := fn(&txUnit{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return apperr.RollbackFailed(errors.Join(err, rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.CommitFailed(err)
	}
	return nil
}

// txUnit implements UnitOfWork over one open transaction.
type txUnit struct {
	tx *sql.Tx
}

func (u *txUnit) SaveContact(c *domain.Contact) error {
	return saveContact(u.tx, c)
}

func (u *txUnit) SaveNote(n *domain.Note) error {
	return saveNote(u.tx, n)
}

func (u *txUnit) DeleteContact(id string) error {
	return deleteContact(u.tx, id)
}

func (u *txUnit) DeleteNote(id string) error {
	return deleteNote(u.tx, id)
}

// saveOwnerTags replaces the stored tag rows of a tag owner with its
// current set. Contact and note owners go through the same path; rows
// that survive the replace keep their created_at and tracking columns.
func saveOwnerTags(tx *sql.Tx, owner domain.Tagged) error {
	names := owner.TagNames()

	// Drop associations no longer present.
	args := []any{owner.OwnerKind(), owner.OwnerID()}
	del := `DELETE FROM tags WHERE owner_kind = ? AND owner_id = ?`
	if len(names) > 0 {
		del += ` AND name NOT IN (?` + strings.Repeat(",?", len(names)-1) + `)`
		for _, n := range names {
			args = append(args, n)
		}
	}
	if _, err := tx.Exec(del, args...); err != nil {
		return err
	}
	return nil
}
