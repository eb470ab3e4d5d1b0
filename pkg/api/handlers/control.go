package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/replayd/replayd/pkg/session"
)

// ControlHandler serves the session lifecycle API under the reserved
// control-plane prefix.
type ControlHandler struct {
	manager *session.Manager
	version string
}

// NewControlHandler creates a control-plane handler.
func NewControlHandler(manager *session.Manager, version string) *ControlHandler {
	return &ControlHandler{manager: manager, version: version}
}

// infoResponse is the GET /info payload.
type infoResponse struct {
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
}

// createSessionRequest is the POST /sessions payload.
type createSessionRequest struct {
	SessionID string `json:"session_id"`
}

// Health is a liveness probe.
func (h *ControlHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info reports the server version and a best-effort session count.
func (h *ControlHandler) Info(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, infoResponse{
		Version:  h.version,
		Sessions: h.manager.Count(),
	})
}

// ListSessions returns the registered session ids as a JSON array.
func (h *ControlHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids := h.manager.List()
	if ids == nil {
		ids = []string{}
	}
	WriteJSON(w, http.StatusOK, ids)
}

// CreateSession registers a new session.
func (h *ControlHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var payload createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if payload.SessionID == "" {
		BadRequest(w, "missing session_id field")
		return
	}

	if err := h.manager.Create(payload.SessionID); err != nil {
		InternalServerError(w, err.Error())
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// DeleteSession removes a session and its recordings.
func (h *ControlHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.manager.Delete(r.Context(), id); err != nil {
		InternalServerError(w, err.Error())
		return
	}

	WriteNoContent(w)
}

// GetSession returns a session's configuration.
func (h *ControlHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cfg, err := h.manager.GetConfig(id)
	if err != nil {
		InternalServerError(w, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, cfg)
}

// sessionConfigUpdate is the PUT /sessions/{id}/config payload. Absent
// fields leave the current value untouched.
type sessionConfigUpdate struct {
	Mode            *session.Mode            `json:"mode,omitempty"`
	TargetURL       *string                  `json:"target_url,omitempty"`
	DynamicPatterns []session.DynamicPattern `json:"dynamic_patterns,omitempty"`
}

// UpdateSessionConfig applies a partial config update.
func (h *ControlHandler) UpdateSessionConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var payload sessionConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if payload.Mode != nil && !payload.Mode.Valid() {
		BadRequest(w, "invalid mode")
		return
	}

	err := h.manager.UpdateConfig(id, func(cfg *session.Config) error {
		if payload.Mode != nil {
			cfg.Mode = *payload.Mode
		}
		if payload.TargetURL != nil {
			cfg.TargetURL = *payload.TargetURL
		}
		if payload.DynamicPatterns != nil {
			cfg.DynamicPatterns = payload.DynamicPatterns
		}
		return nil
	})
	if err != nil {
		var sessionErr *session.Error
		if errors.As(err, &sessionErr) && sessionErr.Code == session.ErrInvalidConfig {
			BadRequest(w, sessionErr.Message)
			return
		}
		InternalServerError(w, err.Error())
		return
	}

	cfg, err := h.manager.GetConfig(id)
	if err != nil {
		InternalServerError(w, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, cfg)
}

// ListInteractions returns a summary of the session's recordings.
func (h *ControlHandler) ListInteractions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	interactions, err := h.manager.ListInteractions(r.Context(), id)
	if err != nil {
		InternalServerError(w, err.Error())
		return
	}
	if interactions == nil {
		interactions = []session.StoredInteraction{}
	}

	WriteJSON(w, http.StatusOK, interactions)
}

// ClearInteractions removes the session's recordings.
func (h *ControlHandler) ClearInteractions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.manager.ClearInteractions(r.Context(), id); err != nil {
		InternalServerError(w, err.Error())
		return
	}

	WriteNoContent(w)
}
