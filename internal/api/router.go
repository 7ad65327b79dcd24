package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marloe/tend/internal/contactservice"
	"github.com/marloe/tend/internal/template"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// onTemplatePublish is forwarded to the template publish handler.
func NewRouter(svc *contactservice.Service, registry *template.Registry, authEnabled bool, token string, sseHandler http.Handler, onTemplatePublish template.PublishCallback) chi.Router {
	h := NewHandler(svc, registry, onTemplatePublish)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Contacts CRUD.
	r.Get("/contacts", h.ListContacts)
	r.Post("/contacts", h.CreateContact)
	r.Get("/contacts/{id}", h.GetContact)
	r.Delete("/contacts/{id}", h.DeleteContact)
	r.Put("/contacts/{id}/name", h.RenameContact)
	r.Put("/contacts/{id}/briefing", h.SetBriefing)
	r.Patch("/contacts/{id}/attributes", h.UpdateAttributes)

	// Tag associations and tracking.
	r.Post("/contacts/{id}/tags", h.AddTags)
	r.Delete("/contacts/{id}/tags", h.RemoveTags)
	r.Put("/contacts/{id}/tags/frequency", h.SetTagFrequency)
	r.Get("/contacts/{id}/status", h.TagStatuses)

	// Notes and interactions.
	r.Get("/contacts/{id}/notes", h.ListNotes)
	r.Post("/contacts/{id}/notes", h.CreateNote)
	r.Post("/contacts/{id}/interactions", h.RecordInteraction)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	// Staleness digest.
	r.Get("/due", h.DueReport)

	// Attribute template.
	r.Get("/template", h.GetTemplate)
	r.Post("/template", h.PublishTemplate)
	r.Get("/template/history", h.TemplateHistory)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
