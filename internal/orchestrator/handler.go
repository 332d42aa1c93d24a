package orchestrator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"popup-orchestrator/internal/generation"
	"popup-orchestrator/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// Handler exposes sessions over HTTP using go-chi.
type Handler struct {
	reg     *Registry
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler over reg. Metrics may be nil.
func NewHandler(reg *Registry, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{reg: reg, log: log, metrics: m}
}

type createResponse struct {
	ID SessionID `json:"id"`
}

type submitRequest struct {
	Identifier string `json:"identifier"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateSession handles POST /sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.reg.Create()
	writeJSON(w, http.StatusCreated, createResponse{ID: sess.ID})
}

// GetSession handles GET /sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Orchestrator.Snapshot())
}

// Submit handles POST /sessions/{id}/submit.
// Body: { "identifier": "dQw4w9WgXcQ" } or a watch URL.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid submit body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	id := generation.NormalizeIdentifier(req.Identifier)
	if err := sess.Orchestrator.Submit(id); err != nil {
		switch {
		case errors.Is(err, ErrEmptyIdentifier):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			h.log.Error("submit failed",
				slog.String("session_id", string(sess.ID)),
				slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	h.log.Info("identifier submitted",
		slog.String("session_id", string(sess.ID)),
		slog.String("identifier", id))
	writeJSON(w, http.StatusAccepted, sess.Orchestrator.Snapshot())
}

// Reset handles POST /sessions/{id}/reset. It is also the retry action after an error.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Orchestrator.Reset()
	writeJSON(w, http.StatusOK, sess.Orchestrator.Snapshot())
}

// DeleteSession handles DELETE /sessions/{id}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "id"))
	if err := h.reg.Close(id); err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Widget handles GET /sessions/{id}/widget, the tab's websocket.
func (h *Handler) Widget(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Widget.ServeHTTP(w, r)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := SessionID(chi.URLParam(r, "id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "session id is required"})
		return nil, false
	}
	sess, err := h.reg.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
