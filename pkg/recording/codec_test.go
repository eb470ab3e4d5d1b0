package recording

import (
	"bytes"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBody(t *testing.T) {
	t.Run("under limit", func(t *testing.T) {
		data, err := ReadBody(strings.NewReader("hello"), 10)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), data)
	})

	t.Run("exactly at limit", func(t *testing.T) {
		data, err := ReadBody(strings.NewReader("12345"), 5)
		require.NoError(t, err)
		assert.Equal(t, []byte("12345"), data)
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := ReadBody(strings.NewReader("123456"), 5)
		var tooLarge *BodyTooLargeError
		require.ErrorAs(t, err, &tooLarge)
		assert.Equal(t, int64(5), tooLarge.Limit)
	})

	t.Run("nil reader", func(t *testing.T) {
		data, err := ReadBody(nil, 5)
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("zero limit uses default", func(t *testing.T) {
		data, err := ReadBody(bytes.NewReader(make([]byte, 1024)), 0)
		require.NoError(t, err)
		assert.Len(t, data, 1024)
	})
}

func TestFromHTTPRequest(t *testing.T) {
	r := httptest.NewRequest("get", "/things/42?page=2", strings.NewReader(`{"a":1}`))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Add("Accept", "application/json")
	r.Header.Add("Accept", "text/plain")

	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)

	stored, err := FromHTTPRequest(r, body)
	require.NoError(t, err)

	assert.Equal(t, "GET", stored.Method, "method is uppercased")
	assert.Equal(t, "/things/42?page=2", stored.URI)
	assert.Equal(t, []byte(`{"a":1}`), stored.Body)
	assert.Equal(t, []string{"application/json", "text/plain"}, stored.Headers["Accept"],
		"multi-valued headers keep their order")
}

func TestFromHTTPRequestRejectsBinaryHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Raw", string([]byte{0xff, 0xfe}))

	_, err := FromHTTPRequest(r, nil)
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "X-Raw", encErr.Header)
}

func TestFromHTTPResponseStatusRange(t *testing.T) {
	_, err := FromHTTPResponse(99, nil, nil)
	assert.Error(t, err)

	_, err = FromHTTPResponse(600, nil, nil)
	assert.Error(t, err)

	resp, err := FromHTTPResponse(204, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.Status)
	assert.Empty(t, resp.Body)
}

func TestRequestRoundTrip(t *testing.T) {
	r := httptest.NewRequest("POST", "/orders?limit=5", strings.NewReader("payload"))
	r.Header.Set("Content-Type", "text/plain")
	r.Header.Add("X-Tag", "one")
	r.Header.Add("X-Tag", "two")

	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)

	stored, err := FromHTTPRequest(r, body)
	require.NoError(t, err)

	live, err := stored.HTTPRequest()
	require.NoError(t, err)

	assert.Equal(t, "POST", live.Method)
	assert.Equal(t, "/orders", live.URL.Path)
	assert.Equal(t, "limit=5", live.URL.RawQuery)
	assert.Equal(t, []string{"one", "two"}, live.Header.Values("X-Tag"))

	liveBody, err := io.ReadAll(live.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), liveBody)
}

func TestResponseRoundTrip(t *testing.T) {
	stored, err := FromHTTPResponse(201, map[string][]string{"Location": {"/things/9"}}, []byte(`{"id":9}`))
	require.NoError(t, err)

	live := stored.HTTPResponse()
	assert.Equal(t, 201, live.StatusCode)
	assert.Equal(t, "/things/9", live.Header.Get("Location"))

	body, err := io.ReadAll(live.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":9}`), body)
}

func TestRequestPath(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"/a/b?q=1", "/a/b"},
		{"/a/b", "/a/b"},
		{"http://origin.test/a/b?q=1", "/a/b"},
	}
	for _, tt := range tests {
		r := Request{URI: tt.uri}
		assert.Equal(t, tt.want, r.Path(), "uri %q", tt.uri)
	}
}

func TestNewInteraction(t *testing.T) {
	req := Request{Method: "GET", URI: "/a"}
	resp := Response{Status: 200}

	a := NewInteraction(req, resp)
	b := NewInteraction(req, resp)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID, "each interaction gets a fresh id")
	assert.NotZero(t, a.Timestamp)
	assert.LessOrEqual(t, a.Timestamp, b.Timestamp)
}
