package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/eugenenazirov/envconfig/internal/config"
	"github.com/eugenenazirov/envconfig/internal/profile"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler exposes a resolved configuration over HTTP. It never mutates it.
type Handler struct {
	config config.Resolved
	clock  func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler serving the provided configuration.
func NewHandler(resolved config.Resolved, opts ...HandlerOption) *Handler {
	h := &Handler{
		config: resolved,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Env:       h.config.Env(),
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	_ = r
	body, err := json.Marshal(h.config)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, json.RawMessage(body))
}

func (h *Handler) handleGetConfigValue(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	value, ok := h.config.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown key", "no configuration value named "+key)
		return
	}
	writeJSON(w, http.StatusOK, configValueResponse{Key: key, Value: value})
}

func (h *Handler) handleListEnvironments(w http.ResponseWriter, r *http.Request) {
	_ = r
	active := h.config.Env()
	envs := profile.Environments()
	resp := environmentsResponse{
		Active:       active,
		Environments: make([]environmentEntry, 0, len(envs)),
	}
	for _, env := range envs {
		source, _ := env.Source()
		resp.Environments = append(resp.Environments, environmentEntry{
			Name:    env.String(),
			Profile: source,
			Active:  env.String() == active,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type configValueResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type environmentEntry struct {
	Name    string `json:"name"`
	Profile string `json:"profile"`
	Active  bool   `json:"active"`
}

type environmentsResponse struct {
	Active       string             `json:"active"`
	Environments []environmentEntry `json:"environments"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Env       string    `json:"env"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
