package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for proxy spans. HTTP keys follow OpenTelemetry semantic
// conventions; proxy-specific keys use the "proxy." prefix.
const (
	AttrClientIP = "client.address"

	AttrHTTPMethod = "http.request.method"
	AttrHTTPPath   = "url.path"
	AttrHTTPStatus = "http.response.status_code"

	AttrSessionID = "proxy.session_id"
	AttrMode      = "proxy.mode"
	AttrTarget    = "proxy.target"
	AttrMatched   = "proxy.matched"

	AttrStoreType     = "store.type"
	AttrInteractionID = "store.interaction_id"
)

// Span names for proxy operations.
const (
	SpanRequest = "proxy.request"
	SpanForward = "proxy.forward"
	SpanMatch   = "proxy.match"
	SpanStore   = "store.put"
	SpanList    = "store.list"
)

// SessionID returns an attribute for the session id
func SessionID(id string) attribute.KeyValue {
	return attribute.String(AttrSessionID, id)
}

// Mode returns an attribute for the session mode
func Mode(mode string) attribute.KeyValue {
	return attribute.String(AttrMode, mode)
}

// Target returns an attribute for the resolved upstream target
func Target(url string) attribute.KeyValue {
	return attribute.String(AttrTarget, url)
}

// Matched returns an attribute for the matcher outcome
func Matched(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrMatched, hit)
}

// HTTPMethod returns an attribute for the request method
func HTTPMethod(method string) attribute.KeyValue {
	return attribute.String(AttrHTTPMethod, method)
}

// HTTPPath returns an attribute for the request path
func HTTPPath(path string) attribute.KeyValue {
	return attribute.String(AttrHTTPPath, path)
}

// HTTPStatus returns an attribute for the response status code
func HTTPStatus(status int) attribute.KeyValue {
	return attribute.Int(AttrHTTPStatus, status)
}

// StoreType returns an attribute for the store backend type
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// InteractionID returns an attribute for a stored interaction id
func InteractionID(id string) attribute.KeyValue {
	return attribute.String(AttrInteractionID, id)
}

// ClientIP returns an attribute for the client address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// StartRequestSpan starts the root span for a data-plane request.
func StartRequestSpan(ctx context.Context, sessionID, mode, method, path string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanRequest, trace.WithAttributes(
		SessionID(sessionID),
		Mode(mode),
		HTTPMethod(method),
		HTTPPath(path),
	))
}
