package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/replayd/replayd/internal/logger"
	"github.com/replayd/replayd/pkg/forward"
	"github.com/replayd/replayd/pkg/matcher"
	"github.com/replayd/replayd/pkg/metrics"
	"github.com/replayd/replayd/pkg/store"
)

// DefaultSessionID is used when a data-plane request names no session.
const DefaultSessionID = "default"

// deps bundles the collaborators shared by every session.
type deps struct {
	store     store.Store
	storeType string
	matcher   *matcher.Matcher
	forwarder *forward.Forwarder
	metrics   *metrics.Metrics
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Store persists captured interactions.
	Store store.Store

	// StoreType labels the backend in logs and metrics.
	StoreType string

	// Forwarder sends record/passthrough traffic upstream.
	Forwarder *forward.Forwarder

	// BodyComparator is the matcher's body predicate. Nil means AcceptAll.
	BodyComparator matcher.BodyComparator

	// Metrics is optional; nil disables collection.
	Metrics *metrics.Metrics

	// DefaultTarget seeds new sessions' target URL.
	DefaultTarget string

	// DefaultMode is the starting mode for lazily auto-created sessions when
	// AutoGenerate is set. Explicitly created sessions always start in
	// record mode.
	DefaultMode Mode

	// AutoGenerate switches lazily created sessions to DefaultMode instead
	// of record.
	AutoGenerate bool
}

// Manager is the concurrent session registry.
//
// The registry lock is short-held: lookups copy out the session handle and
// release the lock before any I/O happens.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	deps deps

	defaultTarget string
	defaultMode   Mode
	autoGenerate  bool
}

// NewManager creates an empty registry.
func NewManager(opts ManagerOptions) *Manager {
	defaultMode := opts.DefaultMode
	if !defaultMode.Valid() {
		defaultMode = ModeRecord
	}

	return &Manager{
		sessions: make(map[string]*Session),
		deps: deps{
			store:     opts.Store,
			storeType: opts.StoreType,
			matcher:   matcher.NewWithComparator(opts.Store, opts.BodyComparator),
			forwarder: opts.Forwarder,
			metrics:   opts.Metrics,
		},
		defaultTarget: opts.DefaultTarget,
		defaultMode:   defaultMode,
		autoGenerate:  opts.AutoGenerate,
	}
}

// Exists reports whether a session is registered under id.
func (m *Manager) Exists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[id]
	return ok
}

// Create registers a new session with default config (record mode, the
// global default target). Fails with ErrAlreadyExists for a duplicate id.
func (m *Manager) Create(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; exists {
		return NewAlreadyExistsError(id)
	}

	m.createLocked(id, ModeRecord)
	return nil
}

// createLocked inserts a session; callers hold the write lock.
func (m *Manager) createLocked(id string, mode Mode) *Session {
	s := newSession(id, Config{Mode: mode, TargetURL: m.defaultTarget}, m.deps)
	m.sessions[id] = s
	m.deps.metrics.SetSessionsActive(len(m.sessions))
	logger.Info("session created", logger.KeySessionID, id, logger.KeyMode, mode.String())
	return s
}

// Delete removes a session and its recordings. Fails with ErrNotFound for
// an unknown id. Deletion is final: for persistent backends the stored
// interactions are removed as well.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	if _, exists := m.sessions[id]; !exists {
		m.mu.Unlock()
		return NewNotFoundError(id)
	}
	delete(m.sessions, id)
	m.deps.metrics.SetSessionsActive(len(m.sessions))
	m.mu.Unlock()

	if err := m.deps.store.Clear(ctx, id); err != nil {
		return err
	}

	logger.Info("session deleted", logger.KeySessionID, id)
	return nil
}

// List returns a best-effort snapshot of registered session ids. It uses a
// non-blocking read attempt and returns empty under write contention, so
// callers must not assume strict real-time accuracy.
func (m *Manager) List() []string {
	if !m.mu.TryRLock() {
		return nil
	}
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of registered sessions, with the same relaxation
// as List.
func (m *Manager) Count() int {
	if !m.mu.TryRLock() {
		return 0
	}
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Get returns the session registered under id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, NewNotFoundError(id)
	}
	return s, nil
}

// GetConfig returns a snapshot of a session's config.
func (m *Manager) GetConfig(id string) (Config, error) {
	s, err := m.Get(id)
	if err != nil {
		return Config{}, err
	}
	return s.Config(), nil
}

// UpdateConfig applies fn to a session's config.
func (m *Manager) UpdateConfig(id string, fn func(*Config) error) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	return s.UpdateConfig(fn)
}

// ClearInteractions removes a session's recordings without touching the
// session itself. Unknown sessions are a no-op, mirroring the store
// contract.
func (m *Manager) ClearInteractions(ctx context.Context, id string) error {
	return m.deps.store.Clear(ctx, id)
}

// ListInteractions returns a session's stored interactions.
func (m *Manager) ListInteractions(ctx context.Context, id string) ([]StoredInteraction, error) {
	interactions, err := m.deps.store.List(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]StoredInteraction, len(interactions))
	for i, in := range interactions {
		out[i] = StoredInteraction{
			ID:        in.ID,
			Timestamp: time.Unix(in.Timestamp, 0).UTC(),
			Method:    in.Request.Method,
			URI:       in.Request.URI,
			Status:    in.Response.Status,
		}
	}
	return out, nil
}

// StoredInteraction is the control-plane summary of one recording.
type StoredInteraction struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"`
	URI       string    `json:"uri"`
	Status    int       `json:"status"`
}

// Process routes one data-plane request to its session, auto-creating the
// session on first use. The session's create happens-before every
// subsequent Process routed to its id.
func (m *Manager) Process(ctx context.Context, id string, r *http.Request, body []byte) (*Reply, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		s = m.autoCreate(id)
	}

	return s.Process(ctx, r, body)
}

// autoCreate registers a session on its first data-plane hit. With
// auto-generation enabled the session starts in the configured default
// mode; otherwise it starts in record like an explicit create.
func (m *Manager) autoCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check: another request may have created it while we upgraded.
	if s, ok := m.sessions[id]; ok {
		return s
	}

	mode := ModeRecord
	if m.autoGenerate {
		mode = m.defaultMode
	}

	return m.createLocked(id, mode)
}
