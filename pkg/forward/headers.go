package forward

import (
	"net/http"
	"strings"
)

// sessionHeaderPrefix marks proxy-internal headers that must never reach the
// upstream. Matched case-insensitively against the lowercased name.
const sessionHeaderPrefix = "x-session"

// hopByHopHeaders are the RFC 7230 §6.1 single-hop headers a proxy must not
// forward.
var hopByHopHeaders = map[string]struct{}{
	"connection":          {},
	"keep-alive":          {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"te":                  {},
	"trailer":             {},
	"transfer-encoding":   {},
	"upgrade":             {},
}

// IsHopByHop reports whether the header name is hop-by-hop.
func IsHopByHop(name string) bool {
	_, ok := hopByHopHeaders[strings.ToLower(name)]
	return ok
}

// isSessionHeader reports whether the header is proxy session plumbing.
func isSessionHeader(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), sessionHeaderPrefix)
}

// SanitizeOutbound copies h, dropping hop-by-hop headers and any header
// whose lowercased name begins with "x-session". Used when building the
// upstream request.
func SanitizeOutbound(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for name, values := range h {
		if IsHopByHop(name) || isSessionHeader(name) {
			continue
		}
		for _, v := range values {
			out.Add(name, v)
		}
	}
	return out
}

// StripHopByHop copies h, dropping only hop-by-hop headers. Used when
// relaying the upstream response back to the client.
func StripHopByHop(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for name, values := range h {
		if IsHopByHop(name) {
			continue
		}
		for _, v := range values {
			out.Add(name, v)
		}
	}
	return out
}
