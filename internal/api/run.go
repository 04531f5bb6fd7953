package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/ashureev/promptrelay/internal/automation"
	"github.com/ashureev/promptrelay/internal/domain"
)

// RunIDHeader carries the identifier of the run that served a request.
const RunIDHeader = "X-Run-ID"

// RunHandler serves the synchronous prompt endpoint.
type RunHandler struct {
	*Handler
}

// NewRunHandler creates a new run handler.
func NewRunHandler(base *Handler) *RunHandler {
	return &RunHandler{Handler: base}
}

// RegisterRoutes registers run routes.
func (h *RunHandler) RegisterRoutes(r chi.Router) {
	r.Post("/run", h.Run)
	r.Get("/api/status", h.Status)
}

// Run submits the prompt and blocks until the reply settles or the run fails.
func (h *RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req domain.PromptRequest
	if !h.decode(w, r, &req) {
		return
	}
	prompt, err := req.Normalize()
	if err != nil {
		Error(w, StatusFor(err), Detail(err))
		return
	}
	if !h.admit() {
		Error(w, http.StatusTooManyRequests, "Too many runs, retry later.")
		return
	}

	runID := uuid.NewString()
	w.Header().Set(RunIDHeader, runID)
	log := h.log.With("request_id", middleware.GetReqID(r.Context()), "run_id", runID)

	// A run owns a browser; only its own timeouts stop it.
	ctx := automation.WithRunID(context.WithoutCancel(r.Context()), runID)

	output, err := h.runner.Run(ctx, prompt, nil)
	if err != nil {
		status := StatusFor(err)
		log.Warn("Run request failed", "status", status, "kind", string(domain.KindOf(err)), "error", err)
		Error(w, status, Detail(err))
		return
	}
	JSON(w, http.StatusOK, domain.RunResult{Output: output})
}

// Status reports the configured target and whether a run is in progress.
func (h *RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"target_url": h.opts.TargetURL,
		"profile":    h.opts.ProfileName,
		"busy":       h.runner.Busy(),
	})
}
