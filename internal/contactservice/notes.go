package contactservice

import (
	"context"
	"time"

	"github.com/marloe/tend/internal/apperr"
	"github.com/marloe/tend/internal/domain"
	"github.com/marloe/tend/internal/parser"
	"github.com/marloe/tend/internal/store"
)

// CreateContentNote records a content note for a contact. Inline #tags
// in the content are unioned with the explicit tag set, and any tag name
// new to the contact gets an association created (tracking disabled).
func (s *Service) CreateContentNote(ctx context.Context, contactID, content string, tags []string) (*domain.Note, error) {
	const op = "note.create_content"
	c, err := s.repo.GetContact(ctx, contactID)
	if err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	note, err := domain.NewContentNote(contactID, content, append(tags, parser.ExtractTags(content)...), s.now())
	if err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	if err := c.AddTags(note.Tags, s.now()); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	if err := s.repo.WithTx(ctx, func(uow store.UnitOfWork) error {
		if err := uow.SaveContact(c); err != nil {
			return err
		}
		return uow.SaveNote(note)
	}); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	s.emit(EventNoteCreated, note.ID)
	return note, nil
}

// RecordInteraction is the core workflow: it creates an interaction
// note, ensures the contact carries every tag on the note, advances the
// per-tag and per-contact last-contact timestamps under the monotonic
// rule, and commits all of it in one transaction. Out-of-order
// backfills never regress a timestamp; recording the same date twice is
// a no-op for the timestamps.
func (s *Service) RecordInteraction(ctx context.Context, contactID string, interactionDate time.Time, content string, tags []string) (*domain.Contact, error) {
	const op = "contact.record_interaction"
	c, err := s.repo.GetContact(ctx, contactID)
	if err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}

	note, err := domain.NewInteractionNote(contactID, interactionDate, content, append(tags, parser.ExtractTags(content)...), s.now())
	if err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	date := *note.InteractionDate

	// Tags new to the contact are created with tracking disabled.
	if err := c.AddTags(note.Tags, s.now()); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	for _, name := range note.Tags {
		c.Tag(name).MarkContacted(date)
	}
	c.MarkContacted(date)

	if err := s.repo.WithTx(ctx, func(uow store.UnitOfWork) error {
		if err := uow.SaveContact(c); err != nil {
			return err
		}
		return uow.SaveNote(note)
	}); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	s.emit(EventInteractionRecorded, c.ID)
	return c, nil
}

// ListNotes returns a contact's notes, newest first.
func (s *Service) ListNotes(ctx context.Context, contactID string) ([]*domain.Note, error) {
	const op = "note.list"
	if _, err := s.repo.GetContact(ctx, contactID); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	notes, err := s.repo.ListNotes(ctx, contactID)
	if err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	return notes, nil
}

// UpdateNoteContent edits a note's text. The content/interaction
// classification is immutable.
func (s *Service) UpdateNoteContent(ctx context.Context, noteID, content string) (*domain.Note, error) {
	const op = "note.update_content"
	n, err := s.repo.GetNote(ctx, noteID)
	if err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	if err := n.UpdateContent(content); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	if err := s.repo.WithTx(ctx, func(uow store.UnitOfWork) error {
		return uow.SaveNote(n)
	}); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	s.emit(EventNoteUpdated, n.ID)
	return n, nil
}

// DeleteNote removes a note. History is forward-only: deleting an
// interaction never recomputes contact or tag last-contact timestamps.
func (s *Service) DeleteNote(ctx context.Context, noteID string) error {
	const op = "note.delete"
	if err := s.repo.WithTx(ctx, func(uow store.UnitOfWork) error {
		return uow.DeleteNote(noteID)
	}); err != nil {
		return apperr.Wrap(op, s.now(), err)
	}
	s.emit(EventNoteDeleted, noteID)
	return nil
}
