// Package memory implements the in-memory interaction store.
package memory

import (
	"context"
	"sync"

	"github.com/replayd/replayd/pkg/recording"
	"github.com/replayd/replayd/pkg/store"
)

// Store keeps interactions in a per-session slice guarded by a single
// mutex. Interactions survive only as long as the process; List returns
// insertion order. Bounded only by process memory.
type Store struct {
	mu           sync.Mutex
	interactions map[string][]recording.Interaction
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		interactions: make(map[string][]recording.Interaction),
	}
}

// Save appends the interaction to the session's sequence.
func (s *Store) Save(ctx context.Context, sessionID string, interaction recording.Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.interactions[sessionID] = append(s.interactions[sessionID], interaction)
	return nil
}

// List returns the session's interactions in insertion order.
func (s *Store) List(ctx context.Context, sessionID string) ([]recording.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.interactions[sessionID]

	// Copy out so callers never observe later appends.
	result := make([]recording.Interaction, len(stored))
	copy(result, stored)
	return result, nil
}

// Clear drops all interactions for the session. Unknown sessions are a no-op.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.interactions, sessionID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
