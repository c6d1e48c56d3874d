package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/viant/agentcore/agent"
	"github.com/viant/agentcore/internal/logging"
)

// DefaultPrompt is used when an invocation carries no prompt.
const DefaultPrompt = "Hello"

const maxRequestBody = 1 << 20

// Responder answers a prompt.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// Invocation is the POST /invocations payload. An absent prompt defaults to DefaultPrompt;
// an empty one is passed through.
type Invocation struct {
	Prompt *string `json:"prompt"`
}

// Reply is the /invocations response body.
type Reply struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Handler serves the runtime contract.
type Handler struct {
	responder Responder
	metrics   http.Handler
	logger    *slog.Logger
	mux       *http.ServeMux
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithMetricsHandler exposes h at GET /metrics.
func WithMetricsHandler(h http.Handler) HandlerOption {
	return func(handler *Handler) {
		handler.metrics = h
	}
}

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(handler *Handler) {
		handler.logger = logging.WithComponent(logger, "bridge")
	}
}

// NewHandler creates a handler answering invocations with responder.
func NewHandler(responder Responder, options ...HandlerOption) *Handler {
	ret := &Handler{responder: responder, logger: logging.WithComponent(nil, "bridge")}
	for _, opt := range options {
		opt(ret)
	}
	ret.mux = http.NewServeMux()
	ret.mux.HandleFunc("POST /invocations", ret.invoke)
	ret.mux.HandleFunc("GET /ping", ret.ping)
	if ret.metrics != nil {
		ret.mux.Handle("GET /metrics", ret.metrics)
	}
	return ret
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "Healthy"})
}

func (h *Handler) invoke(w http.ResponseWriter, r *http.Request) {
	invocation, err := decodeInvocation(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &Reply{Error: err.Error()})
		return
	}
	result, err := h.responder.Respond(r.Context(), *invocation.Prompt)
	if err != nil {
		var budgetErr *agent.RoundBudgetError
		if errors.As(err, &budgetErr) {
			h.logger.Error("invocation failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, &Reply{Error: err.Error()})
			return
		}
		h.logger.Warn("invocation degraded", "error", err)
		result = "Sorry, I could not complete the request: " + err.Error()
	}
	writeJSON(w, http.StatusOK, &Reply{Result: result})
}

func decodeInvocation(body io.Reader) (*Invocation, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxRequestBody))
	if err != nil {
		return nil, err
	}
	ret := &Invocation{}
	if len(data) > 0 {
		if err = json.Unmarshal(data, ret); err != nil {
			return nil, errors.New("invalid invocation payload: " + err.Error())
		}
	}
	if ret.Prompt == nil {
		prompt := DefaultPrompt
		ret.Prompt = &prompt
	}
	return ret, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
