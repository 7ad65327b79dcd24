package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marloe/tend/internal/contactservice"
	"github.com/marloe/tend/internal/template"
)

// Handler holds API route handlers.
type Handler struct {
	svc               *contactservice.Service
	registry          *template.Registry
	onTemplatePublish template.PublishCallback
}

// NewHandler creates a new Handler. onTemplatePublish, if non-nil, is
// called after a new template version is published through the API.
func NewHandler(svc *contactservice.Service, registry *template.Registry, onTemplatePublish template.PublishCallback) *Handler {
	return &Handler{svc: svc, registry: registry, onTemplatePublish: onTemplatePublish}
}

func contactID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// ListContacts handles GET /api/contacts.
//
//	@Summary		List contacts with due-tag rollups
//	@Tags			contacts
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/contacts [get]
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListContacts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contacts": items,
		"total":    len(items),
	})
}

// CreateContact handles POST /api/contacts.
//
//	@Summary		Create a contact
//	@Tags			contacts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateContactRequest	true	"Contact to create"
//	@Success		201		{object}	domain.Contact
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts [post]
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req CreateContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.CreateContact(r.Context(), req.Name, req.FirstName, req.Attributes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GetContact handles GET /api/contacts/{id}.
//
//	@Summary		Get a single contact with its tags
//	@Tags			contacts
//	@Produce		json
//	@Param			id	path		string	true	"Contact ID"
//	@Success		200	{object}	domain.Contact
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{id} [get]
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetContact(r.Context(), contactID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteContact handles DELETE /api/contacts/{id}.
//
//	@Summary		Delete a contact and everything attached to it
//	@Tags			contacts
//	@Param			id	path	string	true	"Contact ID"
//	@Success		204	"Contact deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{id} [delete]
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteContact(r.Context(), contactID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameContact handles PUT /api/contacts/{id}/name.
//
//	@Summary		Rename a contact
//	@Tags			contacts
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Contact ID"
//	@Param			body	body		RenameContactRequest	true	"New names"
//	@Success		200		{object}	domain.Contact
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{id}/name [put]
func (h *Handler) RenameContact(w http.ResponseWriter, r *http.Request) {
	var req RenameContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.RenameContact(r.Context(), contactID(r), req.Name, req.FirstName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// SetBriefing handles PUT /api/contacts/{id}/briefing.
//
//	@Summary		Replace a contact's briefing text
//	@Tags			contacts
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Contact ID"
//	@Param			body	body		BriefingRequest	true	"Briefing text"
//	@Success		200		{object}	domain.Contact
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{id}/briefing [put]
func (h *Handler) SetBriefing(w http.ResponseWriter, r *http.Request) {
	var req BriefingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.SetBriefing(r.Context(), contactID(r), req.Briefing)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateAttributes handles PATCH /api/contacts/{id}/attributes.
//
// The body is a sparse attribute patch merged at the category level; the
// merged result is validated against the latest template version before
// anything is written.
//
//	@Summary		Merge an attribute patch into a contact
//	@Tags			contacts
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Contact ID"
//	@Param			body	body		domain.Attributes	true	"Attribute patch"
//	@Success		200		{object}	domain.Contact
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{id}/attributes [patch]
func (h *Handler) UpdateAttributes(w http.ResponseWriter, r *http.Request) {
	var patch map[string]map[string]any
	if !decodeJSON(w, r, &patch) {
		return
	}
	c, err := h.svc.UpdateAttributes(r.Context(), contactID(r), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// AddTags handles POST /api/contacts/{id}/tags.
//
//	@Summary		Attach tags to a contact (idempotent)
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Contact ID"
//	@Param			body	body		TagsRequest	true	"Tag names"
//	@Success		200		{object}	domain.Contact
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{id}/tags [post]
func (h *Handler) AddTags(w http.ResponseWriter, r *http.Request) {
	var req TagsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.AddTags(r.Context(), contactID(r), req.Tags)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// RemoveTags handles DELETE /api/contacts/{id}/tags. Tag names travel in
// the body because they contain '#' and '/'.
//
//	@Summary		Detach tags from a contact
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Contact ID"
//	@Param			body	body		TagsRequest	true	"Tag names"
//	@Success		200		{object}	domain.Contact
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{id}/tags [delete]
func (h *Handler) RemoveTags(w http.ResponseWriter, r *http.Request) {
	var req TagsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.RemoveTags(r.Context(), contactID(r), req.Tags)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// SetTagFrequency handles PUT /api/contacts/{id}/tags/frequency.
//
//	@Summary		Enable or disable staleness tracking for one tag
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Contact ID"
//	@Param			body	body		FrequencyRequest	true	"Tag and frequency (null disables)"
//	@Success		200		{object}	domain.Contact
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{id}/tags/frequency [put]
func (h *Handler) SetTagFrequency(w http.ResponseWriter, r *http.Request) {
	var req FrequencyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.SetTagFrequency(r.Context(), contactID(r), req.Tag, req.FrequencyDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// TagStatuses handles GET /api/contacts/{id}/status.
//
//	@Summary		Staleness verdict for every tag on a contact
//	@Tags			status
//	@Produce		json
//	@Param			id	path		string	true	"Contact ID"
//	@Success		200	{object}	map[string]any
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{id}/status [get]
func (h *Handler) TagStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.svc.TagStatuses(r.Context(), contactID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"statuses": statuses,
	})
}

// DueReport handles GET /api/due.
//
//	@Summary		All stale or never-contacted tracked pairs, most urgent first
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/due [get]
func (h *Handler) DueReport(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.DueReport(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"due": entries,
	})
}
