// Package api provides HTTP handlers for the relay API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/containerd/errdefs"
	"golang.org/x/time/rate"

	"github.com/ashureev/promptrelay/internal/automation"
	"github.com/ashureev/promptrelay/internal/domain"
)

// Runner executes prompt runs. *automation.Runner implements it.
type Runner interface {
	Run(ctx context.Context, prompt string, obs automation.Observer) (string, error)
	Busy() bool
}

// Options configures the handlers.
type Options struct {
	TargetURL      string
	ProfileName    string
	MaxBodyBytes   int64
	RunsPerMinute  int // 0 disables admission limiting
	AllowedOrigins []string

	// Strategies used by the inspect endpoint.
	Input            domain.Strategy
	SendButtons      domain.Strategy
	Messages         domain.Strategy
	ExtractMinLength int
}

// Handler provides common handler utilities.
type Handler struct {
	runner  Runner
	opts    Options
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(runner Runner, opts Options, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	h := &Handler{runner: runner, opts: opts, log: log}
	if opts.RunsPerMinute > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(float64(opts.RunsPerMinute)/60), opts.RunsPerMinute)
	}
	return h
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"detail": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"detail": message})
}

// StatusFor maps a run error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errdefs.IsInvalidArgument(err):
		return http.StatusBadRequest
	case errdefs.IsUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Detail is the client-facing description of a run error.
func Detail(err error) string {
	var e *domain.Error
	if errors.As(err, &e) && e.Kind == domain.KindValidation {
		return e.Message
	}
	return err.Error()
}

// admit reports whether another run may start now.
func (h *Handler) admit() bool {
	return h.limiter == nil || h.limiter.Allow()
}

// decode reads a size-limited JSON body into v and writes the error
// response itself when it fails.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return false
		}
		Error(w, http.StatusBadRequest, "Request body must be a JSON object.")
		return false
	}
	return true
}
