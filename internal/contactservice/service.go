// Package contactservice exposes the service operations consumed by the
// API layer: contact lifecycle, note recording, and staleness queries.
// All inputs and outputs are plain data; persistence happens through the
// repository within one transaction per logical operation.
package contactservice

import (
	"context"
	"time"

	"github.com/marloe/tend/internal/apperr"
	"github.com/marloe/tend/internal/domain"
	"github.com/marloe/tend/internal/store"
	"github.com/marloe/tend/internal/template"
)

// Change event kinds emitted after successful mutations.
const (
	EventContactCreated      = "contact.created"
	EventContactUpdated      = "contact.updated"
	EventContactDeleted      = "contact.deleted"
	EventNoteCreated         = "note.created"
	EventNoteUpdated         = "note.updated"
	EventNoteDeleted         = "note.deleted"
	EventInteractionRecorded = "interaction.recorded"
)

// ChangeListener receives a change event kind and the id of the entity
// that changed. Used to feed the SSE broker.
type ChangeListener func(event, id string)

// Service coordinates the aggregates, the template registry, and the
// repository.
type Service struct {
	repo     store.Repository
	registry *template.Registry
	now      func() time.Time
	onChange ChangeListener
}

// Option configures a Service.
type Option func(*Service)

// WithClock injects the "current UTC instant" supplier, for
// deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithChangeListener registers a listener for change events.
func WithChangeListener(fn ChangeListener) Option {
	return func(s *Service) { s.onChange = fn }
}

// NewService creates a contact service.
func NewService(repo store.Repository, registry *template.Registry, opts ...Option) *Service {
	s := &Service{repo: repo, registry: registry, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emit(event, id string) {
	if s.onChange != nil {
		s.onChange(event, id)
	}
}

// CreateContact validates the attribute payload against the latest
// template and persists a new contact.
func (s *Service) CreateContact(ctx context.Context, name, firstName string, attrs domain.Attributes) (*domain.Contact, error) {
	const op = "contact.create"
	if err := s.registry.ValidateAttributes(attrs); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	c, err := domain.NewContact(name, firstName, attrs, s.now())
	if err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	if err := s.repo.WithTx(ctx, func(uow store.UnitOfWork) error {
		return uow.SaveContact(c)
	}); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	s.emit(EventContactCreated, c.ID)
	return c, nil
}

// GetContact loads one contact with its tag associations.
func (s *Service) GetContact(ctx context.Context, id string) (*domain.Contact, error) {
	c, err := s.repo.GetContact(ctx, id)
	if err != nil {
		return nil, apperr.Wrap("contact.get", s.now(), err)
	}
	return c, nil
}

// ContactSummary is a list item with a due-tag rollup for dashboards.
type ContactSummary struct {
	*domain.Contact
	DueTags int `json:"due_tags"`
}

// ListContacts returns every contact with the number of tags currently
// due (stale or tracked-but-never-contacted).
func (s *Service) ListContacts(ctx context.Context) ([]ContactSummary, error) {
	contacts, err := s.repo.ListContacts(ctx)
	if err != nil {
		return nil, apperr.Wrap("contact.list", s.now(), err)
	}
	now := s.now()
	out := make([]ContactSummary, len(contacts))
	for i, c := range contacts {
		due := 0
		for _, t := range c.Tags {
			switch t.Status(now).Kind {
			case domain.StatusStale, domain.StatusNeverContacted:
				due++
			}
		}
		out[i] = ContactSummary{Contact: c, DueTags: due}
	}
	return out, nil
}

// UpdateAttributes merges a patch into the contact's attributes (shallow
// at the category level) and re-validates the result against the latest
// template before committing.
func (s *Service) UpdateAttributes(ctx context.Context, id string, patch domain.Attributes) (*domain.Contact, error) {
	const op = "contact.update_attributes"
	c, err := s.repo.GetContact(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	merged := c.MergeAttributes(patch)
	if err := s.registry.ValidateAttributes(merged); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	c.ApplyAttributes(merged, s.now())
	if err := s.saveContact(ctx, c); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	s.emit(EventContactUpdated, c.ID)
	return c, nil
}

// RenameContact changes the contact's name fields.
func (s *Service) RenameContact(ctx context.Context, id, name, firstName string) (*domain.Contact, error) {
	const op = "contact.rename"
	c, err := s.repo.GetContact(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	if err := c.Rename(name, firstName, s.now()); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	if err := s.saveContact(ctx, c); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	s.emit(EventContactUpdated, c.ID)
	return c, nil
}

// SetBriefing replaces the contact's briefing text. The text itself is
// produced upstream; this core only stores it.
func (s *Service) SetBriefing(ctx context.Context, id, text string) (*domain.Contact, error) {
	const op = "contact.set_briefing"
	c, err := s.repo.GetContact(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	c.SetBriefing(text, s.now())
	if err := s.saveContact(ctx, c); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	s.emit(EventContactUpdated, c.ID)
	return c, nil
}

// DeleteContact removes a contact, cascading to its notes and tag
// associations.
func (s *Service) DeleteContact(ctx context.Context, id string) error {
	const op = "contact.delete"
	if err := s.repo.WithTx(ctx, func(uow store.UnitOfWork) error {
		return uow.DeleteContact(id)
	}); err != nil {
		return apperr.Wrap(op, s.now(), err)
	}
	s.emit(EventContactDeleted, id)
	return nil
}

// AddTags attaches tags to a contact. Idempotent for already-attached
// names.
func (s *Service) AddTags(ctx context.Context, id string, names []string) (*domain.Contact, error) {
	const op = "contact.add_tags"
	c, err := s.repo.GetContact(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	if err := c.AddTags(names, s.now()); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	if err := s.saveContact(ctx, c); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	s.emit(EventContactUpdated, c.ID)
	return c, nil
}

// RemoveTags detaches tags from a contact. Absent names are no-ops.
func (s *Service) RemoveTags(ctx context.Context, id string, names []string) (*domain.Contact, error) {
	const op = "contact.remove_tags"
	c, err := s.repo.GetContact(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	if err := c.RemoveTags(names, s.now()); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	if err := s.saveContact(ctx, c); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	s.emit(EventContactUpdated, c.ID)
	return c, nil
}

// SetTagFrequency enables (days in [1,365]) or disables (nil) staleness
// tracking for one contact-tag pair.
func (s *Service) SetTagFrequency(ctx context.Context, id, name string, days *int) (*domain.Contact, error) {
	const op = "contact.set_tag_frequency"
	c, err := s.repo.GetContact(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	if err := c.SetTagFrequency(name, days, s.now()); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	if err := s.saveContact(ctx, c); err != nil {
		return nil, apperr.Wrap(op, s.now(), err)
	}
	s.emit(EventContactUpdated, c.ID)
	return c, nil
}

func (s *Service) saveContact(ctx context.Context, c *domain.Contact) error {
	return s.repo.WithTx(ctx, func(uow store.UnitOfWork) error {
		return uow.SaveContact(c)
	})
}
