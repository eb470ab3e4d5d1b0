package forward

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replayd/replayd/pkg/recording"
)

func TestResolveTarget(t *testing.T) {
	t.Run("proxy target header wins", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/a", nil)
		r.Header.Set(HeaderProxyTarget, "http://override.test")

		target, err := ResolveTarget(r, "http://configured.test")
		require.NoError(t, err)
		assert.Equal(t, "http://override.test", target)
	})

	t.Run("configured target beats host synthesis", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/a", nil)

		target, err := ResolveTarget(r, "http://configured.test")
		require.NoError(t, err)
		assert.Equal(t, "http://configured.test", target)
	})

	t.Run("host header synthesis", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/a", nil)
		r.Host = "origin.test:8081"

		target, err := ResolveTarget(r, "")
		require.NoError(t, err)
		assert.Equal(t, "http://origin.test:8081", target)
	})

	t.Run("absolute URI authority", func(t *testing.T) {
		r := httptest.NewRequest("GET", "http://absolute.test/a", nil)
		r.Host = ""

		target, err := ResolveTarget(r, "")
		require.NoError(t, err)
		assert.Equal(t, "http://absolute.test", target)
	})

	t.Run("nothing resolvable", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/a", nil)
		r.Host = ""
		r.URL.Host = ""

		_, err := ResolveTarget(r, "")
		var noTarget *NoTargetError
		assert.ErrorAs(t, err, &noTarget)
	})
}

func TestDoForwardsSanitizedRequest(t *testing.T) {
	var seen http.Header
	var seenMethod, seenURI string

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		seenMethod = r.Method
		seenURI = r.URL.RequestURI()
		w.Header().Set("X-Origin", "yes")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("origin says hi"))
	}))
	defer origin.Close()

	r := httptest.NewRequest("POST", "/things?x=1", strings.NewReader("payload"))
	r.Header.Set("Content-Type", "text/plain")
	r.Header.Set("Connection", "close")
	r.Header.Set("Transfer-Encoding", "chunked")
	r.Header.Set("X-Session-Id", "s1")
	r.Header.Set("X-Session-Extra", "meta")

	f := New(Options{})
	result, err := f.Do(t.Context(), r, []byte("payload"), origin.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, result.Status)
	assert.Equal(t, []byte("origin says hi"), result.Body)
	assert.Equal(t, "yes", result.Headers.Get("X-Origin"))

	assert.Equal(t, "POST", seenMethod)
	assert.Equal(t, "/things?x=1", seenURI)
	assert.Equal(t, "text/plain", seen.Get("Content-Type"))

	for name := range seen {
		lower := strings.ToLower(name)
		assert.False(t, IsHopByHop(name), "hop-by-hop header %q was forwarded", name)
		assert.False(t, strings.HasPrefix(lower, "x-session"), "session header %q was forwarded", name)
	}
}

func TestDoDoesNotFollowRedirects(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer origin.Close()

	r := httptest.NewRequest("GET", "/a", nil)
	f := New(Options{})

	result, err := f.Do(t.Context(), r, nil, origin.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, result.Status, "redirect must be returned verbatim")
	assert.Equal(t, "/elsewhere", result.Headers.Get("Location"))
}

func TestDoForwardHostHeader(t *testing.T) {
	var seenHost string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHost = r.Host
	}))
	defer origin.Close()

	r := httptest.NewRequest("GET", "/a", nil)
	r.Host = "client-facing.test"

	f := New(Options{ForwardHost: true})
	_, err := f.Do(t.Context(), r, nil, origin.URL)
	require.NoError(t, err)
	assert.Equal(t, "client-facing.test", seenHost)
}

func TestDoUpstreamError(t *testing.T) {
	r := httptest.NewRequest("GET", "/a", nil)
	f := New(Options{})

	// Closed port: connection refused.
	_, err := f.Do(t.Context(), r, nil, "http://127.0.0.1:1")
	var upstream *UpstreamError
	assert.ErrorAs(t, err, &upstream)
}

func TestDoResponseBodyCeiling(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer origin.Close()

	r := httptest.NewRequest("GET", "/a", nil)
	f := New(Options{MaxBodySize: 1024})

	_, err := f.Do(t.Context(), r, nil, origin.URL)
	var tooLarge *recording.BodyTooLargeError
	assert.ErrorAs(t, err, &tooLarge)
}

func TestSanitizeOutbound(t *testing.T) {
	h := http.Header{}
	h.Set("Connection", "close")
	h.Set("Keep-Alive", "timeout=5")
	h.Set("TE", "trailers")
	h.Set("X-Session-Id", "s")
	h.Set("Accept", "application/json")

	out := SanitizeOutbound(h)
	assert.Equal(t, "application/json", out.Get("Accept"))
	assert.Empty(t, out.Get("Connection"))
	assert.Empty(t, out.Get("Keep-Alive"))
	assert.Empty(t, out.Get("TE"))
	assert.Empty(t, out.Get("X-Session-Id"))
}

func TestStripHopByHopKeepsSessionHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Upgrade", "h2c")
	h.Set("X-Session-Id", "s")

	out := StripHopByHop(h)
	assert.Empty(t, out.Get("Upgrade"))
	assert.Equal(t, "s", out.Get("X-Session-Id"))
}
