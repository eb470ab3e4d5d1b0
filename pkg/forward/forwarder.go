// Package forward sends sanitized copies of incoming requests to the
// upstream origin and drains the response for capture.
package forward

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/replayd/replayd/internal/logger"
	"github.com/replayd/replayd/pkg/recording"
)

// HeaderProxyTarget is the request header carrying a per-request upstream
// target override (a full absolute URL).
const HeaderProxyTarget = "X-Proxy-Target"

// Result is a fully-drained upstream response.
type Result struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Forwarder owns the outbound HTTP client. One instance is shared by all
// sessions; the underlying transport pools connections across them.
//
// The forwarder never follows redirects (the client under test must observe
// them verbatim) and does not add a Via header. The target scheme is not
// restricted: an https target goes through net/http's default TLS handling,
// with no TLS settings of its own.
type Forwarder struct {
	client      *http.Client
	maxBodySize int64
	forwardHost bool
}

// Options configures a Forwarder.
type Options struct {
	// MaxBodySize is the response-body ceiling in bytes.
	// Zero falls back to recording.DefaultMaxBodySize.
	MaxBodySize int64

	// ForwardHost preserves the client's Host header on the outbound
	// request instead of the target URL's host.
	ForwardHost bool

	// Client overrides the outbound HTTP client, primarily for tests.
	Client *http.Client
}

// New creates a forwarder with a pooled outbound client.
func New(opts Options) *Forwarder {
	client := opts.Client
	if client == nil {
		client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	maxBodySize := opts.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = recording.DefaultMaxBodySize
	}

	return &Forwarder{
		client:      client,
		maxBodySize: maxBodySize,
		forwardHost: opts.ForwardHost,
	}
}

// ResolveTarget determines the upstream base URL for a request, in order:
// the X-Proxy-Target header, the session's configured target, a URL
// synthesized from the Host header, and finally the request URI's own
// authority. Returns *NoTargetError when none applies.
func ResolveTarget(r *http.Request, configuredTarget string) (string, error) {
	if target := r.Header.Get(HeaderProxyTarget); target != "" {
		return target, nil
	}

	if configuredTarget != "" {
		return configuredTarget, nil
	}

	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "http"
	}

	if r.Host != "" {
		return scheme + "://" + r.Host, nil
	}

	if r.URL.Host != "" {
		return scheme + "://" + r.URL.Host, nil
	}

	return "", &NoTargetError{}
}

// Do sends the buffered request to the target base URL and returns the
// fully-drained response. Network failures come back as *UpstreamError;
// oversized response bodies as *recording.BodyTooLargeError.
func (f *Forwarder) Do(ctx context.Context, r *http.Request, body []byte, target string) (*Result, error) {
	forwardURL := composeURL(target, r.URL.Path, r.URL.RawQuery)

	logger.DebugCtx(ctx, "forwarding request",
		logger.KeyMethod, r.Method,
		logger.KeyTarget, forwardURL)

	outbound, err := http.NewRequestWithContext(ctx, strings.ToUpper(r.Method), forwardURL, bytes.NewReader(body))
	if err != nil {
		return nil, &UpstreamError{Target: forwardURL, Err: err}
	}

	outbound.Header = SanitizeOutbound(r.Header)
	if f.forwardHost && r.Host != "" {
		outbound.Host = r.Host
	}

	resp, err := f.client.Do(outbound)
	if err != nil {
		logger.ErrorCtx(ctx, "upstream request failed",
			logger.KeyTarget, forwardURL,
			logger.KeyError, err)
		return nil, &UpstreamError{Target: forwardURL, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := recording.ReadBody(resp.Body, f.maxBodySize)
	if err != nil {
		if _, tooLarge := err.(*recording.BodyTooLargeError); tooLarge {
			return nil, err
		}
		return nil, &UpstreamError{Target: forwardURL, Err: err}
	}

	logger.DebugCtx(ctx, "received upstream response",
		logger.KeyStatus, resp.StatusCode,
		logger.KeySize, len(respBody))

	return &Result{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    respBody,
	}, nil
}

// composeURL joins the target base, request path, and query string.
func composeURL(target, path, rawQuery string) string {
	base := strings.TrimSuffix(target, "/")
	url := base + path
	if rawQuery != "" {
		url += "?" + rawQuery
	}
	return url
}
