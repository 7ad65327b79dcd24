package contactservice

import (
	"context"
	"sort"
	"time"

	"github.com/marloe/tend/internal/apperr"
	"github.com/marloe/tend/internal/domain"
)

// TagStatus pairs a contact tag with its staleness verdict.
type TagStatus struct {
	Name          string        `json:"name"`
	FrequencyDays *int          `json:"frequency_days,omitempty"`
	LastContact   *time.Time    `json:"last_contact,omitempty"`
	Status        domain.Status `json:"status"`
}

// TagStatuses computes the staleness of every tag on a contact at the
// current instant.
func (s *Service) TagStatuses(ctx context.Context, contactID string) ([]TagStatus, error) {
	c, err := s.repo.GetContact(ctx, contactID)
	if err != nil {
		return nil, apperr.Wrap("contact.tag_statuses", s.now(), err)
	}
	now := s.now()
	out := make([]TagStatus, len(c.Tags))
	for i, t := range c.Tags {
		out[i] = TagStatus{
			Name:          t.Name,
			FrequencyDays: t.FrequencyDays,
			LastContact:   t.LastContact,
			Status:        t.Status(now),
		}
	}
	return out, nil
}

// DueEntry is one overdue contact-tag pair in the due report.
type DueEntry struct {
	ContactID     string        `json:"contact_id"`
	ContactName   string        `json:"contact_name"`
	Tag           string        `json:"tag"`
	FrequencyDays int           `json:"frequency_days"`
	LastContact   *time.Time    `json:"last_contact,omitempty"`
	Status        domain.Status `json:"status"`
}

// DueReport returns every stale or never-contacted tracked pair across
// all contacts, most overdue first. Never-contacted pairs sort ahead of
// stale ones: they have been waiting since the frequency was set.
func (s *Service) DueReport(ctx context.Context) ([]DueEntry, error) {
	contacts, err := s.repo.ListContacts(ctx)
	if err != nil {
		return nil, apperr.Wrap("status.due_report", s.now(), err)
	}
	now := s.now()
	var out []DueEntry
	for _, c := range contacts {
		for _, t := range c.Tags {
			st := t.Status(now)
			if st.Kind != domain.StatusStale && st.Kind != domain.StatusNeverContacted {
				continue
			}
			out = append(out, DueEntry{
				ContactID:     c.ID,
				ContactName:   c.Name,
				Tag:           t.Name,
				FrequencyDays: *t.FrequencyDays,
				LastContact:   t.LastContact,
				Status:        st,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Status.Kind != b.Status.Kind {
			return a.Status.Kind == domain.StatusNeverContacted
		}
		return a.Status.OverdueDays > b.Status.OverdueDays
	})
	return out, nil
}
