package store

import (
	"context"

	"github.com/marloe/tend/internal/domain"
)

// UnitOfWork is the mutation surface available inside one transaction.
// Everything invoked through a single WithTx call commits or rolls back
// as one atomic unit, which is what lets the interaction workflow update
// a contact, its tags, and the new note together.
type UnitOfWork interface {
	SaveContact(c *domain.Contact) error
	SaveNote(n *domain.Note) error
	DeleteContact(id string) error
	DeleteNote(id string) error
}

// Repository is the persistence boundary consumed by the service layer.
// Consumers should depend on this interface rather than the concrete
// *DB type to facilitate testing with wrappers.
type Repository interface {
	WithTx(ctx context.Context, fn func(UnitOfWork) error) error
	GetContact(ctx context.Context, id string) (*domain.Contact, error)
	ListContacts(ctx context.Context) ([]*domain.Contact, error)
	GetNote(ctx context.Context, id string) (*domain.Note, error)
	ListNotes(ctx context.Context, contactID string) ([]*domain.Note, error)
}

// Verify *DB satisfies Repository at compile time.
var _ Repository = (*DB)(nil)
