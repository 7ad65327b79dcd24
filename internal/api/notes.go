package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marloe/tend/internal/temporal"
)

// CreateNote handles POST /api/contacts/{id}/notes.
//
//	@Summary		Record a content note for a contact
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Contact ID"
//	@Param			body	body		CreateNoteRequest	true	"Note to record"
//	@Success		201		{object}	domain.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{id}/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.svc.CreateContentNote(r.Context(), contactID(r), req.Content, req.Tags)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// RecordInteraction handles POST /api/contacts/{id}/interactions.
//
// The interaction date must carry an explicit UTC offset; zone-less
// timestamps are rejected at this boundary.
//
//	@Summary		Record an interaction, advancing last-contact timestamps
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Contact ID"
//	@Param			body	body		RecordInteractionRequest	true	"Interaction to record"
//	@Success		200		{object}	domain.Contact
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{id}/interactions [post]
func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req RecordInteractionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := temporal.Parse(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.svc.RecordInteraction(r.Context(), contactID(r), date, req.Content, req.Tags)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListNotes handles GET /api/contacts/{id}/notes.
//
//	@Summary		List a contact's notes, newest first
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Contact ID"
//	@Success		200	{object}	map[string]any
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{id}/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ListNotes(r.Context(), contactID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notes": notes,
		"total": len(notes),
	})
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Edit a note's content
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Note ID"
//	@Param			body	body		UpdateNoteRequest	true	"New content"
//	@Success		200		{object}	domain.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.svc.UpdateNoteContent(r.Context(), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// DeleteNote handles DELETE /api/notes/{id}. Deleting an interaction
// note never rewinds last-contact timestamps.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	string	true	"Note ID"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
