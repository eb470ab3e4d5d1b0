package handlers

import (
	"context"
	"net"
	"net/http"

	"github.com/replayd/replayd/internal/logger"
	"github.com/replayd/replayd/pkg/recording"
	"github.com/replayd/replayd/pkg/session"
)

// HeaderSessionID selects the session for a data-plane request.
const HeaderSessionID = "X-Session-Id"

// QuerySessionID is the fallback query parameter for session selection.
const QuerySessionID = "session"

// DataPlaneHandler routes every non-control request into the session engine.
type DataPlaneHandler struct {
	manager     *session.Manager
	maxBodySize int64
}

// NewDataPlaneHandler creates the catch-all proxy handler. maxBodySize <= 0
// falls back to the 10 MiB default.
func NewDataPlaneHandler(manager *session.Manager, maxBodySize int64) *DataPlaneHandler {
	if maxBodySize <= 0 {
		maxBodySize = recording.DefaultMaxBodySize
	}
	return &DataPlaneHandler{manager: manager, maxBodySize: maxBodySize}
}

// SessionIDFromRequest resolves the session id: the X-Session-Id header wins
// over the ?session= query parameter, which wins over the "default" literal.
func SessionIDFromRequest(r *http.Request) string {
	if id := r.Header.Get(HeaderSessionID); id != "" {
		return id
	}
	if id := r.URL.Query().Get(QuerySessionID); id != "" {
		return id
	}
	return session.DefaultSessionID
}

// ServeHTTP implements http.Handler.
func (h *DataPlaneHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := SessionIDFromRequest(r)

	clientIP, _, _ := net.SplitHostPort(r.RemoteAddr)
	ctx := logger.WithContext(r.Context(), logger.NewLogContext(clientIP))

	body, err := recording.ReadBody(r.Body, h.maxBodySize)
	if err != nil {
		h.writeError(w, ctx, sessionID, err)
		return
	}

	reply, err := h.manager.Process(ctx, sessionID, r, body)
	if err != nil {
		h.writeError(w, ctx, sessionID, err)
		return
	}

	header := w.Header()
	for name, values := range reply.Headers {
		for _, v := range values {
			header.Add(name, v)
		}
	}
	w.WriteHeader(reply.Status)
	_, _ = w.Write(reply.Body)
}

// writeError reports a pipeline failure as a 500 with a short plain-text
// body.
func (h *DataPlaneHandler) writeError(w http.ResponseWriter, ctx context.Context, sessionID string, err error) {
	logger.ErrorCtx(ctx, "error processing request",
		logger.KeySessionID, sessionID,
		logger.KeyError, err)
	http.Error(w, "Error: "+err.Error(), http.StatusInternalServerError)
}
