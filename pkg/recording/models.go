// Package recording defines the canonical, backend-neutral representation of
// captured HTTP interactions and the codec between live request/response
// values and that form.
//
// Every store backend persists exactly this shape. The JSON encoding is the
// on-disk format of the filesystem backend and the value format of the badger
// and S3 backends, so changes here are format changes.
package recording

import "encoding/json"

// Interaction is a captured (request, response) pair.
//
// Interactions are immutable after creation: they are written once during
// Record mode and only ever removed, never rewritten.
type Interaction struct {
	// ID is a UUIDv4 assigned at capture time.
	ID string `json:"id"`

	// Timestamp is seconds since the Unix epoch at capture time.
	// Monotone per capture order within a session under a sane clock.
	Timestamp int64 `json:"timestamp"`

	Request  Request  `json:"request"`
	Response Response `json:"response"`
}

// Request is the canonical form of a captured HTTP request.
type Request struct {
	// Method is the uppercase ASCII method name.
	Method string `json:"method"`

	// URI is the full path-and-query string. Scheme and authority are
	// retained only if they were present on the wire.
	URI string `json:"uri"`

	// Headers maps each header name to the ordered list of all its values,
	// order matching the original message.
	Headers map[string][]string `json:"headers"`

	// Body is the raw payload, stored verbatim. Encoded as base64 in JSON.
	Body []byte `json:"body"`

	// ExpectedBody optionally carries a JSON document used by the structural
	// body comparator during replay matching. Absent for plain captures.
	ExpectedBody json.RawMessage `json:"expected_body,omitempty"`
}

// Response is the canonical form of a captured HTTP response.
type Response struct {
	// Status is the HTTP status code (100..599).
	Status int `json:"status"`

	// Headers has the same shape and ordering guarantees as Request.Headers.
	Headers map[string][]string `json:"headers"`

	// Body is the raw payload, stored verbatim. Encoded as base64 in JSON.
	Body []byte `json:"body"`
}
