package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ashureev/promptrelay/internal/automation"
	"github.com/ashureev/promptrelay/internal/domain"
)

const (
	promptReadTimeout = 30 * time.Second
	frameWriteTimeout = 5 * time.Second
	frameBuffer       = 64
)

// StreamHandler runs a prompt over a WebSocket and streams its progress.
type StreamHandler struct {
	*Handler
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(base *Handler) *StreamHandler {
	return &StreamHandler{Handler: base}
}

// RegisterRoutes registers the stream route.
func (h *StreamHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/run", h.ServeHTTP)
}

// frame is one message sent to the client.
type frame struct {
	Type    string `json:"type"`
	State   string `json:"state,omitempty"`
	Content string `json:"content,omitempty"`
	Output  string `json:"output,omitempty"`
	Status  int    `json:"status,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// frameObserver queues progress frames without blocking the run. Partial
// readings are dropped when the client falls behind.
type frameObserver struct {
	frames chan frame
}

func (o *frameObserver) OnState(s automation.State, _ error) {
	o.frames <- frame{Type: "state", State: string(s)}
}

func (o *frameObserver) OnPartial(text string) {
	select {
	case o.frames <- frame{Type: "partial", Content: text}:
	default:
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(h.opts.AllowedOrigins),
	})
	if err != nil {
		h.log.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "run ended"); closeErr != nil {
			h.log.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	prompt, err := h.readPrompt(r.Context(), ws)
	if err != nil {
		h.writeError(ws, StatusFor(err), Detail(err))
		return
	}
	if !h.admit() {
		h.writeError(ws, http.StatusTooManyRequests, "Too many runs, retry later.")
		return
	}

	// Keep answering pings while the run blocks; the run itself is not
	// tied to the connection.
	connCtx := ws.CloseRead(r.Context())
	runCtx := automation.WithRunID(context.WithoutCancel(r.Context()), uuid.NewString())

	obs := &frameObserver{frames: make(chan frame, frameBuffer)}
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		h.pump(connCtx, ws, obs.frames)
	}()

	output, runErr := h.runner.Run(runCtx, prompt, obs)
	close(obs.frames)
	<-pumpDone

	if runErr != nil {
		h.writeError(ws, StatusFor(runErr), Detail(runErr))
		return
	}
	if err := h.writeJSON(ws, frame{Type: "output", Output: output}); err != nil {
		h.log.Debug("Failed to send output frame", "error", err)
	}
}

func (h *StreamHandler) readPrompt(ctx context.Context, ws *websocket.Conn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, promptReadTimeout)
	defer cancel()

	ws.SetReadLimit(h.opts.MaxBodyBytes)
	_, message, err := ws.Read(ctx)
	if err != nil {
		return "", domain.NewError(domain.KindValidation, "read_prompt", "Expected a prompt message.", err)
	}
	var req domain.PromptRequest
	if err := json.Unmarshal(message, &req); err != nil {
		return "", domain.NewError(domain.KindValidation, "read_prompt", "Prompt message must be a JSON object.", err)
	}
	return req.Normalize()
}

// pump forwards frames until the channel closes. After the client goes away
// it keeps draining so the run never blocks on a full buffer.
func (h *StreamHandler) pump(ctx context.Context, ws *websocket.Conn, frames <-chan frame) {
	for f := range frames {
		if ctx.Err() != nil {
			continue
		}
		if err := h.writeJSON(ws, f); err != nil {
			h.log.Debug("Failed to send progress frame", "error", err)
		}
	}
}

func (h *StreamHandler) writeError(ws *websocket.Conn, status int, detail string) {
	if err := h.writeJSON(ws, frame{Type: "error", Status: status, Detail: detail}); err != nil {
		h.log.Debug("Failed to send error frame", "error", err)
	}
}

func (h *StreamHandler) writeJSON(ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), frameWriteTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}

// originPatterns turns configured origins into host patterns for Accept.
func originPatterns(origins []string) []string {
	var out []string
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		out = append(out, strings.TrimSuffix(o, "/"))
	}
	return out
}
