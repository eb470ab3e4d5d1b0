// Package badgerstore implements the interaction store on an embedded
// BadgerDB key-value database.
//
// Unlike the filesystem backend it gives recordings a single-directory,
// crash-safe home and keeps listing in insertion order across restarts,
// because keys embed a capture-time component and Badger iterates in key
// order.
package badgerstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/replayd/replayd/pkg/recording"
	"github.com/replayd/replayd/pkg/store"
)

// keyPrefix namespaces interaction keys so future record types can share the
// database.
const keyPrefix = "interaction"

// Store persists interactions in BadgerDB.
//
// Key layout: interaction/{session}/{unix-nanos:020d}/{uuid}. The timestamp
// segment is zero-padded so lexicographic key order matches capture order.
type Store struct {
	db *badger.DB
}

var _ store.Store = (*Store)(nil)

// New opens (or creates) a Badger database at path.
func New(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	// Badger's default logger prints straight to stderr; the store is quiet.
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, store.NewBackendError(fmt.Sprintf("failed to open badger database at %q", path), err)
	}

	return &Store{db: db}, nil
}

func sessionPrefix(sessionID string) []byte {
	return fmt.Appendf(nil, "%s/%s/", keyPrefix, sessionID)
}

func interactionKey(sessionID string, interaction recording.Interaction) []byte {
	return fmt.Appendf(nil, "%s/%s/%020d/%s", keyPrefix, sessionID, time.Now().UnixNano(), interaction.ID)
}

// Save writes the interaction in a single transaction.
func (s *Store) Save(ctx context.Context, sessionID string, interaction recording.Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(interaction)
	if err != nil {
		return store.NewSerializationError("failed to serialize interaction", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(interactionKey(sessionID, interaction), data)
	})
	if err != nil {
		return store.NewBackendError("failed to store interaction", err)
	}
	return nil
}

// List iterates the session's key range in key order, which matches capture
// order.
func (s *Store) List(ctx context.Context, sessionID string) ([]recording.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result []recording.Interaction
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := sessionPrefix(sessionID)
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var interaction recording.Interaction
				if err := json.Unmarshal(val, &interaction); err != nil {
					return store.NewSerializationError("failed to deserialize interaction", err)
				}
				result = append(result, interaction)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(*store.Error); ok {
			return nil, err
		}
		return nil, store.NewBackendError("failed to list interactions", err)
	}

	return result, nil
}

// Clear drops the session's entire key range.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.DropPrefix(sessionPrefix(sessionID)); err != nil {
		return store.NewBackendError("failed to clear interactions", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
