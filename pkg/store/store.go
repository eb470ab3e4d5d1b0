// Package store defines the interaction store contract shared by all
// backends.
//
// A Store persists captured request/response pairs per session. Four
// backends implement it: in-memory, filesystem, badger, and S3. The session
// pipeline only ever sees this interface; which backend is in use is decided
// once at startup from configuration.
package store

import (
	"context"

	"github.com/replayd/replayd/pkg/recording"
)

// Store persists and retrieves captured interactions per session.
//
// Implementations must be safe for concurrent use by multiple goroutines.
// Save is atomic from the caller's perspective: a concurrent List observes
// the interaction fully or not at all.
type Store interface {
	// Save persists an interaction under the given session id, creating the
	// session's storage location if needed.
	Save(ctx context.Context, sessionID string, interaction recording.Interaction) error

	// List returns the session's interactions. The in-memory backend returns
	// insertion order; other backends make no ordering promise across process
	// restarts, so callers must tolerate arbitrary order. An unknown session
	// yields an empty slice, not an error.
	List(ctx context.Context, sessionID string) ([]recording.Interaction, error)

	// Clear removes every interaction for the session. Clearing an unknown
	// session is a no-op.
	Clear(ctx context.Context, sessionID string) error

	// Close releases backend resources. The store must not be used after
	// Close returns.
	Close() error
}
