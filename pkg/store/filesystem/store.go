// Package filesystem implements the interaction store backed by a directory
// tree of JSON files.
//
// Layout: {base}/{session_id}/{uuid}.json, one file per interaction,
// pretty-printed UTF-8 JSON of the canonical form. Files with other
// extensions inside a session directory are ignored.
package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/replayd/replayd/internal/logger"
	"github.com/replayd/replayd/pkg/recording"
	"github.com/replayd/replayd/pkg/store"
)

// Store persists each interaction as one JSON file under a per-session
// directory. It holds no locks of its own; the OS serializes directory
// operations.
type Store struct {
	basePath string
}

var _ store.Store = (*Store)(nil)

// New creates a filesystem store rooted at basePath, creating the directory
// if it does not exist.
func New(basePath string) (*Store, error) {
	if basePath == "" {
		return nil, store.NewIOError("filesystem store requires a base path", nil)
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, store.NewIOError(fmt.Sprintf("failed to create recordings directory %q", basePath), err)
	}
	return &Store{basePath: basePath}, nil
}

// BasePath returns the root directory of the store.
func (s *Store) BasePath() string {
	return s.basePath
}

func (s *Store) sessionPath(sessionID string) string {
	return filepath.Join(s.basePath, sessionID)
}

// Save writes the interaction to {base}/{session}/{uuid}.json in one call.
func (s *Store) Save(ctx context.Context, sessionID string, interaction recording.Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := s.sessionPath(sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return store.NewIOError(fmt.Sprintf("failed to create session directory %q", dir), err)
	}

	data, err := json.MarshalIndent(interaction, "", "  ")
	if err != nil {
		return store.NewSerializationError("failed to serialize interaction", err)
	}

	path := filepath.Join(dir, interaction.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return store.NewIOError(fmt.Sprintf("failed to write interaction file %q", path), err)
	}

	return nil
}

// List enumerates *.json entries in the session directory. Ordering follows
// the directory listing and is not guaranteed across restarts. Files that do
// not deserialize are logged and skipped rather than failing the whole
// listing.
func (s *Store) List(ctx context.Context, sessionID string) ([]recording.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := s.sessionPath(sessionID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, store.NewIOError(fmt.Sprintf("failed to read session directory %q", dir), err)
	}

	var result []recording.Interaction
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, store.NewIOError(fmt.Sprintf("failed to read interaction file %q", path), err)
		}

		var interaction recording.Interaction
		if err := json.Unmarshal(data, &interaction); err != nil {
			logger.Warn("skipping malformed interaction file",
				logger.KeySessionID, sessionID,
				logger.KeyStorePath, path,
				logger.KeyError, err)
			continue
		}

		result = append(result, interaction)
	}

	return result, nil
}

// Clear removes the session directory recursively. A missing directory is a
// no-op.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := s.sessionPath(sessionID)
	if err := os.RemoveAll(dir); err != nil {
		return store.NewIOError(fmt.Sprintf("failed to remove session directory %q", dir), err)
	}
	return nil
}

// Close is a no-op for the filesystem store.
func (s *Store) Close() error {
	return nil
}
