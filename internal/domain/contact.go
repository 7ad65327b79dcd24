// Package domain holds the contact, tag, and note aggregates and the
// invariants they enforce. Persistence is the repository's concern;
// everything here is in-memory state transitions.
package domain

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/marloe/tend/internal/apperr"
)

// Attributes is a sparse mapping of category name → field name → value,
// validated against the attribute template at write time. Absent fields
// are omitted, never stored as null.
type Attributes map[string]map[string]any

// Contact is the aggregate root: identity, name, templated attributes,
// and the set of owned tag associations. LastContactAt is set only by
// the interaction recording workflow, never by direct edits.
type Contact struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	FirstName     string     `json:"first_name,omitempty"`
	Attributes    Attributes `json:"attributes,omitempty"`
	BriefingText  string     `json:"briefing_text,omitempty"`
	LastContactAt *time.Time `json:"last_contact_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Tags          []*Tag     `json:"tags"`
}

func validateName(name string) error {
	if err := validation.Validate(name,
		validation.Required,
		validation.Length(1, 100),
	); err != nil {
		return apperr.Validation("name: %v", err)
	}
	return nil
}

// NewContact creates a contact. Only the name is required; attribute
// validation against the template is the caller's responsibility (the
// service validates before construction so the aggregate never holds an
// off-template payload).
func NewContact(name, firstName string, attrs Attributes, now time.Time) (*Contact, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	now = now.UTC()
	return &Contact{
		ID:         uuid.NewString(),
		Name:       name,
		FirstName:  firstName,
		Attributes: attrs,
		CreatedAt:  now,
		UpdatedAt:  now,
		Tags:       []*Tag{},
	}, nil
}

// Rename changes the display name, keeping the 1–100 char invariant.
func (c *Contact) Rename(name, firstName string, now time.Time) error {
	if err := validateName(name); err != nil {
		return err
	}
	c.Name = name
	c.FirstName = firstName
	c.touch(now)
	return nil
}

// SetBriefing replaces the free-form briefing text.
func (c *Contact) SetBriefing(text string, now time.Time) {
	c.BriefingText = text
	c.touch(now)
}

// MergeAttributes merges a patch into the stored attributes: shallow at
// the category level, replacing individual field values. The merged
// payload is returned for template validation before it is committed via
// ApplyAttributes; the aggregate itself is not modified.
func (c *Contact) MergeAttributes(patch Attributes) Attributes {
	merged := make(Attributes, len(c.Attributes)+len(patch))
	for cat, fields := range c.Attributes {
		copied := make(map[string]any, len(fields))
		for f, v := range fields {
			copied[f] = v
		}
		merged[cat] = copied
	}
	for cat, fields := range patch {
		if merged[cat] == nil {
			merged[cat] = make(map[string]any, len(fields))
		}
		for f, v := range fields {
			merged[cat][f] = v
		}
	}
	return merged
}

// ApplyAttributes commits a validated attribute payload.
func (c *Contact) ApplyAttributes(attrs Attributes, now time.Time) {
	c.Attributes = attrs
	c.touch(now)
}

// Tag returns the association with the given normalized name, or nil.
func (c *Contact) Tag(name string) *Tag {
	for _, t := range c.Tags {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// AddTags attaches tag associations, normalizing each name. Re-adding an
// existing tag is a no-op, not an error.
func (c *Contact) AddTags(names []string, now time.Time) error {
	normalized, err := NormalizeTagNames(names)
	if err != nil {
		return err
	}
	added := false
	for _, n := range normalized {
		if c.Tag(n) != nil {
			continue
		}
		c.Tags = append(c.Tags, &Tag{ContactID: c.ID, Name: n, CreatedAt: now.UTC()})
		added = true
	}
	if added {
		c.touch(now)
	}
	return nil
}

// RemoveTags detaches tag associations. Removing an absent tag is a
// no-op. Only the association row goes away; the tag name stays in use
// on other contacts and notes.
func (c *Contact) RemoveTags(names []string, now time.Time) error {
	normalized, err := NormalizeTagNames(names)
	if err != nil {
		return err
	}
	drop := make(map[string]struct{}, len(normalized))
	for _, n := range normalized {
		drop[n] = struct{}{}
	}
	kept := c.Tags[:0]
	removed := false
	for _, t := range c.Tags {
		if _, ok := drop[t.Name]; ok {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	c.Tags = kept
	if removed {
		c.touch(now)
	}
	return nil
}

// SetTagFrequency toggles staleness tracking on an owned tag. The tag
// must already be attached.
func (c *Contact) SetTagFrequency(name string, days *int, now time.Time) error {
	n, err := NormalizeTagName(name)
	if err != nil {
		return err
	}
	t := c.Tag(n)
	if t == nil {
		return apperr.NotFound("contact has no tag %s", n)
	}
	if err := t.SetFrequency(days); err != nil {
		return err
	}
	c.touch(now)
	return nil
}

// MarkContacted advances LastContactAt under the monotonic rule (never
// regress to an earlier instant). Returns true when the timestamp moved.
func (c *Contact) MarkContacted(at time.Time) bool {
	at = at.UTC()
	if c.LastContactAt != nil && !c.LastContactAt.Before(at) {
		return false
	}
	c.LastContactAt = &at
	return true
}

func (c *Contact) touch(now time.Time) {
	c.UpdatedAt = now.UTC()
}

// OwnerKind implements Tagged.
func (c *Contact) OwnerKind() string { return OwnerContact }

// OwnerID implements Tagged.
func (c *Contact) OwnerID() string { return c.ID }

// TagNames implements Tagged.
func (c *Contact) TagNames() []string {
	out := make([]string, len(c.Tags))
	for i, t := range c.Tags {
		out[i] = t.Name
	}
	return out
}
