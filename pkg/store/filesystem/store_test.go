package filesystem

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replayd/replayd/pkg/recording"
)

func interactionFor(path string) recording.Interaction {
	return recording.NewInteraction(
		recording.Request{Method: "GET", URI: path, Headers: map[string][]string{"Accept": {"*/*"}}, Body: []byte{}},
		recording.Response{Status: 200, Headers: map[string][]string{}, Body: []byte(`{"ok":1}`)},
	)
}

func TestSaveWritesOneJSONFile(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	interaction := interactionFor("/a")
	require.NoError(t, s.Save(t.Context(), "fs1", interaction))

	entries, err := os.ReadDir(filepath.Join(s.BasePath(), "fs1"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, interaction.ID+".json", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(s.BasePath(), "fs1", entries[0].Name()))
	require.NoError(t, err)

	var decoded recording.Interaction
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, interaction.Request.Method, decoded.Request.Method)
	assert.Equal(t, interaction.Request.URI, decoded.Request.URI)
	assert.Equal(t, interaction.Response.Status, decoded.Response.Status)
	assert.Equal(t, interaction.Response.Body, decoded.Response.Body)
}

func TestListRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := t.Context()

	require.NoError(t, s.Save(ctx, "fs1", interactionFor("/a")))
	require.NoError(t, s.Save(ctx, "fs1", interactionFor("/b")))

	got, err := s.List(ctx, "fs1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	paths := []string{got[0].Request.URI, got[1].Request.URI}
	assert.ElementsMatch(t, []string{"/a", "/b"}, paths, "ordering is not guaranteed")
}

func TestListUnknownSession(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	got, err := s.List(t.Context(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListSkipsNonJSONAndMalformedEntries(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := t.Context()

	require.NoError(t, s.Save(ctx, "fs1", interactionFor("/a")))

	dir := filepath.Join(s.BasePath(), "fs1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a recording"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{oops"), 0644))

	got, err := s.List(ctx, "fs1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "/a", got[0].Request.URI)
}

func TestClearRemovesDirectory(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := t.Context()

	require.NoError(t, s.Save(ctx, "fs1", interactionFor("/a")))
	require.NoError(t, s.Clear(ctx, "fs1"))

	_, err = os.Stat(filepath.Join(s.BasePath(), "fs1"))
	assert.True(t, os.IsNotExist(err), "session directory should be gone")

	// Clearing again is a no-op.
	require.NoError(t, s.Clear(ctx, "fs1"))
}

func TestPersistsAcrossReopen(t *testing.T) {
	base := t.TempDir()

	s, err := New(base)
	require.NoError(t, err)
	require.NoError(t, s.Save(t.Context(), "fs1", interactionFor("/kept")))

	reopened, err := New(base)
	require.NoError(t, err)

	got, err := reopened.List(t.Context(), "fs1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/kept", got[0].Request.URI)
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
