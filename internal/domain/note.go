package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marloe/tend/internal/apperr"
	"github.com/marloe/tend/internal/temporal"
)

// Note is either a content note (substantive text about a contact) or an
// interaction record (a signal that contact happened, with optional
// text). The classification is fixed at construction; only the content
// may be edited afterwards.
type Note struct {
	ID              string     `json:"id"`
	ContactID       string     `json:"contact_id"`
	Content         string     `json:"content,omitempty"`
	IsInteraction   bool       `json:"is_interaction"`
	InteractionDate *time.Time `json:"interaction_date,omitempty"`
	Tags            []string   `json:"tags"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewContentNote creates a content note. Content is required: a note
// that is neither an interaction nor carries text has no reason to
// exist.
func NewContentNote(contactID, content string, tags []string, now time.Time) (*Note, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("content is required for a non-interaction note")
	}
	normalized, err := NormalizeTagNames(tags)
	if err != nil {
		return nil, err
	}
	return &Note{
		ID:        uuid.NewString(),
		ContactID: contactID,
		Content:   content,
		Tags:      normalized,
		CreatedAt: now.UTC(),
	}, nil
}

// NewInteractionNote creates an interaction record. The interaction date
// is required, normalized to UTC, and must not be in the future relative
// to now (the server clock). Content is optional.
func NewInteractionNote(contactID string, interactionDate time.Time, content string, tags []string, now time.Time) (*Note, error) {
	date, err := temporal.ToUTC(interactionDate)
	if err != nil {
		return nil, apperr.Validation("interaction_date is required")
	}
	if temporal.IsBefore(now.UTC(), date) {
		return nil, apperr.Validation("future_interaction: interaction_date %s is after now", date.Format(time.RFC3339))
	}
	normalized, err := NormalizeTagNames(tags)
	if err != nil {
		return nil, err
	}
	return &Note{
		ID:              uuid.NewString(),
		ContactID:       contactID,
		Content:         content,
		IsInteraction:   true,
		InteractionDate: &date,
		Tags:            normalized,
		CreatedAt:       now.UTC(),
	}, nil
}

// UpdateContent edits the note text. The content/interaction
// classification never changes, so a content note must keep non-empty
// text.
func (n *Note) UpdateContent(content string) error {
	if !n.IsInteraction && strings.TrimSpace(content) == "" {
		return apperr.Validation("content is required for a non-interaction note")
	}
	n.Content = content
	return nil
}

// AddTags unions normalized tag names into the note's tag set.
func (n *Note) AddTags(names []string) error {
	normalized, err := NormalizeTagNames(names)
	if err != nil {
		return err
	}
	for _, name := range normalized {
		dup := false
		for _, existing := range n.Tags {
			if existing == name {
				dup = true
				break
			}
		}
		if !dup {
			n.Tags = append(n.Tags, name)
		}
	}
	return nil
}

// OwnerKind implements Tagged.
func (n *Note) OwnerKind() string { return OwnerNote }

// OwnerID implements Tagged.
func (n *Note) OwnerID() string { return n.ID }

// TagNames implements Tagged.
func (n *Note) TagNames() []string { return n.Tags }
