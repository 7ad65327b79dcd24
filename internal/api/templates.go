package api

import (
	"net/http"
)

// GetTemplate handles GET /api/template.
//
//	@Summary		Latest attribute template version
//	@Tags			template
//	@Produce		json
//	@Success		200	{object}	template.Version
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/template [get]
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	v, err := h.registry.Latest()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// TemplateHistory handles GET /api/template/history.
//
//	@Summary		Every published template version, oldest first
//	@Tags			template
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/template/history [get]
func (h *Handler) TemplateHistory(w http.ResponseWriter, r *http.Request) {
	versions, err := h.registry.History(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"versions": versions,
	})
}

// PublishTemplate handles POST /api/template.
//
// Publishing a definition identical to the current latest returns that
// version with 200 instead of creating a new one.
//
//	@Summary		Publish a new attribute template version
//	@Tags			template
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PublishTemplateRequest	true	"Template definition"
//	@Success		200		{object}	template.Version
//	@Success		201		{object}	template.Version
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/template [post]
func (h *Handler) PublishTemplate(w http.ResponseWriter, r *http.Request) {
	var req PublishTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	before, _ := h.registry.Latest()
	v, err := h.registry.Publish(r.Context(), req.Categories)
	if err != nil {
		writeError(w, err)
		return
	}
	if before != nil && before.Version == v.Version {
		writeJSON(w, http.StatusOK, v)
		return
	}
	if h.onTemplatePublish != nil {
		h.onTemplatePublish(v.Version)
	}
	writeJSON(w, http.StatusCreated, v)
}
