package api

import (
	"github.com/marloe/tend/internal/contactservice"
	"github.com/marloe/tend/internal/domain"
	"github.com/marloe/tend/internal/template"
)

// CreateContactRequest is the request body for creating a contact.
type CreateContactRequest struct {
	Name       string            `json:"name" example:"Ada Lovelace" validate:"required"`
	FirstName  string            `json:"first_name,omitempty" example:"Ada"`
	Attributes domain.Attributes `json:"attributes,omitempty"`
}

// RenameContactRequest is the request body for renaming a contact.
type RenameContactRequest struct {
	Name      string `json:"name" example:"Ada King" validate:"required"`
	FirstName string `json:"first_name,omitempty" example:"Ada"`
}

// BriefingRequest is the request body for replacing a contact's briefing.
type BriefingRequest struct {
	Briefing string `json:"briefing" example:"Met at GopherCon; loves compilers."`
}

// TagsRequest carries tag names for attach and detach operations.
type TagsRequest struct {
	Tags []string `json:"tags" example:"#mentor,#running" validate:"required"`
}

// FrequencyRequest sets or clears the contact frequency of one tag.
// A null frequency_days disables tracking.
type FrequencyRequest struct {
	Tag           string `json:"tag" example:"#mentor" validate:"required"`
	FrequencyDays *int   `json:"frequency_days" example:"30"`
}

// CreateNoteRequest is the request body for recording a content note.
type CreateNoteRequest struct {
	Content string   `json:"content" example:"Started a new job at #acme" validate:"required"`
	Tags    []string `json:"tags,omitempty" example:"#work"`
}

// RecordInteractionRequest is the request body for recording an
// interaction. Date must be RFC 3339 with an explicit UTC offset.
type RecordInteractionRequest struct {
	Date    string   `json:"date" example:"2025-06-01T18:30:00+02:00" validate:"required"`
	Content string   `json:"content,omitempty" example:"Coffee catch-up"`
	Tags    []string `json:"tags,omitempty" example:"#mentor"`
}

// UpdateNoteRequest is the request body for editing a note's content.
type UpdateNoteRequest struct {
	Content string `json:"content" example:"Corrected text" validate:"required"`
}

// PublishTemplateRequest is the request body for publishing a new
// attribute template version.
type PublishTemplateRequest struct {
	Categories template.Categories `json:"categories" validate:"required"`
}

// ContactSummary is a list item with a due-tag rollup (aliased from the
// service layer).
type ContactSummary = contactservice.ContactSummary

// TagStatus pairs a tag with its staleness verdict (aliased from the
// service layer).
type TagStatus = contactservice.TagStatus

// DueEntry is one overdue contact-tag pair (aliased from the service
// layer).
type DueEntry = contactservice.DueEntry
