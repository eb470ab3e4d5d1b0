// Package api hosts the proxy's HTTP boundary: the chi router that splits
// control-plane and data-plane traffic, and the server lifecycle.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/replayd/replayd/internal/logger"
	"github.com/replayd/replayd/pkg/api/handlers"
	"github.com/replayd/replayd/pkg/session"
)

// ControlPrefix is the reserved control-plane path prefix. Any other URL is
// data-plane traffic.
const ControlPrefix = "/__api_simulator"

// NewRouter creates the chi router with all middleware and routes.
//
// Control plane (under /__api_simulator):
//   - GET  /health - liveness probe
//   - GET  /info - version + best-effort session count
//   - GET  /sessions - session id list
//   - POST /sessions - create session
//   - GET  /sessions/{id} - session config
//   - DELETE /sessions/{id} - delete session and recordings
//   - PUT  /sessions/{id}/config - partial config update
//   - GET  /sessions/{id}/interactions - recording summaries
//   - DELETE /sessions/{id}/interactions - clear recordings
//
// Everything else goes to the data-plane handler, which resolves the
// session id and runs the record/replay/passthrough pipeline.
func NewRouter(manager *session.Manager, maxBodySize int64, version string) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	control := handlers.NewControlHandler(manager, version)
	dataPlane := handlers.NewDataPlaneHandler(manager, maxBodySize)

	r.Route(ControlPrefix, func(r chi.Router) {
		// The prefix is reserved: unknown control paths are 404s, never
		// proxied upstream.
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			handlers.WriteProblem(w, http.StatusNotFound, "Not Found", "unknown control-plane path")
		})

		r.Get("/health", control.Health)
		r.Get("/info", control.Info)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", control.ListSessions)
			r.Post("/", control.CreateSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", control.GetSession)
				r.Delete("/", control.DeleteSession)
				r.Put("/config", control.UpdateSessionConfig)
				r.Get("/interactions", control.ListInteractions)
				r.Delete("/interactions", control.ClearInteractions)
			})
		})
	})

	// Data plane: every method, every other path. chi's 404/405 fallbacks
	// route here too so the proxy is transparent to arbitrary methods.
	r.NotFound(dataPlane.ServeHTTP)
	r.MethodNotAllowed(dataPlane.ServeHTTP)
	r.Handle("/*", dataPlane)

	return r
}

// requestLogger logs each request at debug level with its request id.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Debug("http request",
			logger.KeyRequestID, middleware.GetReqID(r.Context()),
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, ww.Status(),
			logger.KeyDurationMs, logger.Duration(start),
		)
	})
}
