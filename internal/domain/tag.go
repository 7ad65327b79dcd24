package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/marloe/tend/internal/apperr"
	"github.com/marloe/tend/internal/temporal"
)

// Tag owner kinds. Tag associations attach to contacts and notes through
// the same table; only contact-owned rows carry frequency tracking.
const (
	OwnerContact = "contact"
	OwnerNote    = "note"
)

// Frequency bounds for staleness tracking, in days.
const (
	MinFrequencyDays = 1
	MaxFrequencyDays = 365
)

var tagNameRe = regexp.MustCompile(`^#[a-z0-9][a-z0-9_/-]*$`)

// NormalizeTagName lowercases a tag name and validates its shape: a
// leading '#' followed by letters, digits, '_', '/' or '-'.
func NormalizeTagName(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if !strings.HasPrefix(n, "#") {
		return "", apperr.Validation("tag %q must start with '#'", name)
	}
	if !tagNameRe.MatchString(n) {
		return "", apperr.Validation("tag %q contains invalid characters", name)
	}
	return n, nil
}

// NormalizeTagNames normalizes and deduplicates a set of tag names,
// preserving first-seen order.
func NormalizeTagNames(names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		n, err := NormalizeTagName(name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

// Tag is a contact-scoped topic. The composite key is (contact id,
// normalized name). FrequencyDays enables staleness tracking;
// LastContact advances only when an interaction carrying this tag is
// recorded.
type Tag struct {
	ContactID     string     `json:"contact_id"`
	Name          string     `json:"name"`
	FrequencyDays *int       `json:"frequency_days,omitempty"`
	LastContact   *time.Time `json:"last_contact,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewTag creates a tag association with tracking disabled.
func NewTag(contactID, name string, now time.Time) (*Tag, error) {
	n, err := NormalizeTagName(name)
	if err != nil {
		return nil, err
	}
	return &Tag{ContactID: contactID, Name: n, CreatedAt: now.UTC()}, nil
}

// SetFrequency enables or disables staleness tracking. Days must be nil
// or within [1, 365]. Setting a frequency never touches LastContact:
// a tag tracked for the first time stays "never contacted" until a real
// interaction, and clearing the frequency preserves history.
func (t *Tag) SetFrequency(days *int) error {
	if days != nil && (*days < MinFrequencyDays || *days > MaxFrequencyDays) {
		return apperr.Validation("frequency_days must be between %d and %d, got %d", MinFrequencyDays, MaxFrequencyDays, *days)
	}
	t.FrequencyDays = days
	return nil
}

// MarkContacted advances LastContact to at under the monotonic rule:
// the timestamp only moves forward, so out-of-order backfills never
// regress it. Returns true when the timestamp changed.
func (t *Tag) MarkContacted(at time.Time) bool {
	at = at.UTC()
	if t.LastContact != nil && !t.LastContact.Before(at) {
		return false
	}
	t.LastContact = &at
	return true
}

// Status kinds for a contact-tag pair.
type StatusKind string

const (
	StatusNotTracked     StatusKind = "not_tracked"
	StatusNeverContacted StatusKind = "never_contacted"
	StatusFresh          StatusKind = "fresh"
	StatusStale          StatusKind = "stale"
)

// Status is the staleness verdict for one contact-tag pair.
type Status struct {
	Kind        StatusKind `json:"kind"`
	OverdueDays int        `json:"overdue_days,omitempty"`
}

// Status derives the staleness of the tag at the given instant. Pure
// over tag state and now; safe to call repeatedly for dashboards.
func (t *Tag) Status(now time.Time) Status {
	if t.FrequencyDays == nil {
		return Status{Kind: StatusNotTracked}
	}
	if t.LastContact == nil {
		return Status{Kind: StatusNeverContacted}
	}
	elapsed := temporal.DaysBetween(*t.LastContact, now)
	if elapsed > *t.FrequencyDays {
		return Status{Kind: StatusStale, OverdueDays: elapsed - *t.FrequencyDays}
	}
	return Status{Kind: StatusFresh}
}

// Tagged is the capability shared by aggregates that own tag names.
// Contact and Note both satisfy it, so tag persistence treats them
// uniformly.
type Tagged interface {
	OwnerKind() string
	OwnerID() string
	TagNames() []string
}
