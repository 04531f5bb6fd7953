package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/promptrelay/internal/snapshot"
)

// InspectHandler checks the configured selectors against pasted HTML.
type InspectHandler struct {
	*Handler
}

// NewInspectHandler creates a new inspect handler.
func NewInspectHandler(base *Handler) *InspectHandler {
	return &InspectHandler{Handler: base}
}

// RegisterRoutes registers debug routes.
func (h *InspectHandler) RegisterRoutes(r chi.Router) {
	r.Post("/debug/inspect", h.Inspect)
}

type inspectRequest struct {
	HTML string `json:"html"`
}

type inspectResponse struct {
	InputSelector *string  `json:"input_selector"`
	SendSelector  *string  `json:"send_selector"`
	Output        string   `json:"output"`
	Errors        []string `json:"errors,omitempty"`
}

// Inspect runs one locator sweep and the reply extractor over the document.
func (h *InspectHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	var req inspectRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.HTML) == "" {
		Error(w, http.StatusBadRequest, "HTML is empty.")
		return
	}

	page, err := snapshot.ParseString(req.HTML)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	found := snapshot.Inspect(page, h.opts.Input, h.opts.SendButtons, h.opts.Messages, h.opts.ExtractMinLength)

	resp := inspectResponse{Output: found.Output, Errors: found.Errors}
	if found.InputSelector != nil {
		s := found.InputSelector.String()
		resp.InputSelector = &s
	}
	if found.SendSelector != nil {
		s := found.SendSelector.String()
		resp.SendSelector = &s
	}
	JSON(w, http.StatusOK, resp)
}
