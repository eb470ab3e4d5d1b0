package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replayd/replayd/pkg/recording"
)

func interactionFor(path string) recording.Interaction {
	return recording.NewInteraction(
		recording.Request{Method: "GET", URI: path, Headers: map[string][]string{}, Body: []byte{}},
		recording.Response{Status: 200, Headers: map[string][]string{}, Body: []byte("ok")},
	)
}

func TestSaveAndList(t *testing.T) {
	s := New()
	ctx := t.Context()

	first := interactionFor("/a")
	second := interactionFor("/b")

	require.NoError(t, s.Save(ctx, "s1", first))
	require.NoError(t, s.Save(ctx, "s1", second))

	got, err := s.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID, "insertion order is preserved")
	assert.Equal(t, second.ID, got[1].ID)
}

func TestListUnknownSession(t *testing.T) {
	s := New()

	got, err := s.List(t.Context(), "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSessionsAreIsolated(t *testing.T) {
	s := New()
	ctx := t.Context()

	require.NoError(t, s.Save(ctx, "s1", interactionFor("/a")))
	require.NoError(t, s.Save(ctx, "s2", interactionFor("/b")))

	got, err := s.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/a", got[0].Request.URI)
}

func TestClear(t *testing.T) {
	s := New()
	ctx := t.Context()

	require.NoError(t, s.Save(ctx, "s1", interactionFor("/a")))
	require.NoError(t, s.Clear(ctx, "s1"))

	got, err := s.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)

	// Clearing an unknown session is a no-op.
	require.NoError(t, s.Clear(ctx, "missing"))
}

func TestListSnapshotIsStable(t *testing.T) {
	s := New()
	ctx := t.Context()

	require.NoError(t, s.Save(ctx, "s1", interactionFor("/a")))

	got, err := s.List(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "s1", interactionFor("/b")))
	assert.Len(t, got, 1, "earlier snapshot must not grow")
}

func TestConcurrentSaves(t *testing.T) {
	s := New()
	ctx := context.Background()

	const writers = 16
	const perWriter = 25

	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				_ = s.Save(ctx, "shared", interactionFor(fmt.Sprintf("/%d/%d", w, i)))
			}
		}()
	}
	wg.Wait()

	got, err := s.List(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, got, writers*perWriter)
}
