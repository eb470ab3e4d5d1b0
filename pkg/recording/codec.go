package recording

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DefaultMaxBodySize is the capture ceiling applied when no explicit limit is
// configured: 10 MiB.
const DefaultMaxBodySize int64 = 10 * 1024 * 1024

// ReadBody drains r into memory, enforcing the given ceiling. A limit <= 0
// falls back to DefaultMaxBodySize. Exceeding the ceiling returns
// *BodyTooLargeError; the partial read is discarded.
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}

	// Read one byte past the limit to distinguish "exactly at" from "over".
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, &BodyTooLargeError{Limit: limit}
	}
	return data, nil
}

// FromHTTPRequest converts a live request with an already-buffered body into
// canonical form. Header values that are not valid UTF-8 cause
// *EncodingError.
func FromHTTPRequest(r *http.Request, body []byte) (Request, error) {
	headers, err := headersToCanonical(r.Header)
	if err != nil {
		return Request{}, err
	}

	if body == nil {
		body = []byte{}
	}

	return Request{
		Method:  strings.ToUpper(r.Method),
		URI:     r.URL.String(),
		Headers: headers,
		Body:    body,
	}, nil
}

// FromHTTPResponse converts upstream response parts into canonical form.
func FromHTTPResponse(status int, header http.Header, body []byte) (Response, error) {
	if status < 100 || status > 599 {
		return Response{}, fmt.Errorf("status code %d out of range", status)
	}

	headers, err := headersToCanonical(header)
	if err != nil {
		return Response{}, err
	}

	if body == nil {
		body = []byte{}
	}

	return Response{
		Status:  status,
		Headers: headers,
		Body:    body,
	}, nil
}

// NewInteraction assembles a stored interaction from canonical parts,
// assigning a fresh UUID and the current timestamp.
func NewInteraction(req Request, resp Response) Interaction {
	return Interaction{
		ID:        uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Request:   req,
		Response:  resp,
	}
}

// HTTPRequest reconstructs a live request from canonical form.
// The body is replayable (backed by a memory buffer).
func (r Request) HTTPRequest() (*http.Request, error) {
	u, err := url.Parse(r.URI)
	if err != nil {
		return nil, fmt.Errorf("invalid stored URI %q: %w", r.URI, err)
	}

	req := &http.Request{
		Method: strings.ToUpper(r.Method),
		URL:    u,
		Header: canonicalToHeaders(r.Headers),
		Body:   io.NopCloser(bytes.NewReader(r.Body)),
	}
	req.ContentLength = int64(len(r.Body))
	return req, nil
}

// Path returns the path component of the stored URI, tolerating both
// origin-form ("/a/b?q") and absolute-form ("http://h/a/b") captures.
func (r Request) Path() string {
	u, err := url.Parse(r.URI)
	if err != nil {
		return r.URI
	}
	return u.Path
}

// HTTPResponse reconstructs a live response from canonical form.
func (r Response) HTTPResponse() *http.Response {
	return &http.Response{
		StatusCode:    r.Status,
		Header:        canonicalToHeaders(r.Headers),
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
	}
}

// headersToCanonical copies an http.Header into the canonical map, keeping
// the per-name value order and rejecting non-UTF-8 values.
func headersToCanonical(h http.Header) (map[string][]string, error) {
	headers := make(map[string][]string, len(h))
	for name, values := range h {
		copied := make([]string, len(values))
		for i, v := range values {
			if !utf8.ValidString(v) {
				return nil, &EncodingError{Header: name}
			}
			copied[i] = v
		}
		headers[name] = copied
	}
	return headers, nil
}

// canonicalToHeaders converts the canonical map back into an http.Header.
func canonicalToHeaders(m map[string][]string) http.Header {
	h := make(http.Header, len(m))
	for name, values := range m {
		for _, v := range values {
			h.Add(name, v)
		}
	}
	return h
}
