// Package session implements the record/replay session engine: per-session
// state and pipeline, and the thread-safe registry that owns the sessions.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/replayd/replayd/internal/logger"
	"github.com/replayd/replayd/internal/telemetry"
	"github.com/replayd/replayd/pkg/forward"
	"github.com/replayd/replayd/pkg/matcher"
	"github.com/replayd/replayd/pkg/metrics"
	"github.com/replayd/replayd/pkg/recording"
	"github.com/replayd/replayd/pkg/store"
)

// Reply is the response handed back to the HTTP boundary. Headers have
// already had hop-by-hop entries stripped; the status code is the upstream's
// (or the stored one) verbatim.
type Reply struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Session is one isolated record/replay context.
//
// The registry owns the Session; handlers hold short-lived shared handles
// copied out under the registry lock. Config is guarded by its own lock,
// released before any network call: the pipeline works on an immutable
// snapshot taken at the start of each request.
type Session struct {
	id string

	mu            sync.RWMutex
	config        Config
	rules         []dynamicRule
	dynamicValues map[string]string
	lastAccess    time.Time

	store     store.Store
	storeType string
	matcher   *matcher.Matcher
	forwarder *forward.Forwarder
	metrics   *metrics.Metrics
}

// newSession is called by the Manager with the registry lock held.
func newSession(id string, cfg Config, deps deps) *Session {
	rules, _ := compileRules(cfg.DynamicPatterns)
	return &Session{
		id:            id,
		config:        cfg,
		rules:         rules,
		dynamicValues: make(map[string]string),
		lastAccess:    time.Now(),
		store:         deps.store,
		storeType:     deps.storeType,
		matcher:       deps.matcher,
		forwarder:     deps.forwarder,
		metrics:       deps.metrics,
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Config returns a snapshot of the session's configuration.
func (s *Session) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.clone()
}

// UpdateConfig applies fn to a copy of the config and swaps it in. Dynamic
// patterns are recompiled; a pattern that fails to compile rejects the whole
// update.
func (s *Session) UpdateConfig(fn func(*Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := s.config.clone()
	if err := fn(&updated); err != nil {
		return err
	}

	rules, err := compileRules(updated.DynamicPatterns)
	if err != nil {
		return NewInvalidConfigError(s.id, err)
	}

	s.config = updated
	s.rules = rules
	return nil
}

// LastAccess returns the time of the session's most recent data-plane
// request (or its creation).
func (s *Session) LastAccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccess
}

// touch updates the last-access timestamp.
func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccess = time.Now()
	s.mu.Unlock()
}

// snapshot returns the config copy and compiled rules for one request.
func (s *Session) snapshot() (Config, []dynamicRule) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.clone(), s.rules
}

// applyDynamicValues runs the dynamic-value filter over a request body,
// keeping the per-session replacement table consistent.
func (s *Session) applyDynamicValues(rules []dynamicRule, body []byte) []byte {
	if len(rules) == 0 {
		return body
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return applyDynamic(rules, s.dynamicValues, body)
}

// Process dispatches one data-plane request through the session pipeline.
// The body has already been buffered by the HTTP boundary, subject to the
// size ceiling.
func (s *Session) Process(ctx context.Context, r *http.Request, body []byte) (*Reply, error) {
	cfg, rules := s.snapshot()
	s.touch()

	ctx = logger.WithContext(ctx, logger.FromContext(ctx).WithSession(s.id, cfg.Mode.String()))
	ctx, span := telemetry.StartRequestSpan(ctx, s.id, cfg.Mode.String(), r.Method, r.URL.Path)
	defer span.End()

	start := time.Now()
	reply, err := s.dispatch(ctx, cfg, rules, r, body)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	telemetry.SetAttributes(ctx, telemetry.HTTPStatus(reply.Status))
	s.metrics.ObserveRequest(cfg.Mode.String(), reply.Status, time.Since(start).Seconds())
	return reply, nil
}

// dispatch is the exhaustive mode switch at the top of the pipeline.
func (s *Session) dispatch(ctx context.Context, cfg Config, rules []dynamicRule, r *http.Request, body []byte) (*Reply, error) {
	switch cfg.Mode {
	case ModeReplay:
		return s.replay(ctx, rules, r, body)
	case ModePassthrough:
		return s.roundTrip(ctx, cfg, rules, r, body, false)
	default:
		// Record is the default for any session that predates a mode change.
		return s.roundTrip(ctx, cfg, rules, r, body, true)
	}
}

// roundTrip forwards the request upstream and, in record mode, captures the
// interaction.
func (s *Session) roundTrip(ctx context.Context, cfg Config, rules []dynamicRule, r *http.Request, body []byte, capture bool) (*Reply, error) {
	target, err := forward.ResolveTarget(r, cfg.TargetURL)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(ctx, telemetry.Target(target))

	result, err := s.forwarder.Do(ctx, r, body, target)
	if err != nil {
		if _, isUpstream := err.(*forward.UpstreamError); isUpstream {
			s.metrics.RecordUpstreamError()
		}
		return nil, err
	}

	if capture {
		if err := s.capture(ctx, rules, r, body, result); err != nil {
			return nil, err
		}
	}

	return &Reply{
		Status:  result.Status,
		Headers: forward.StripHopByHop(result.Headers),
		Body:    result.Body,
	}, nil
}

// capture converts the round-trip to canonical form and persists it. The
// upstream has already been charged for the call, so a client disconnect
// must not lose the interaction: the save runs with cancellation removed.
func (s *Session) capture(ctx context.Context, rules []dynamicRule, r *http.Request, body []byte, result *forward.Result) error {
	storedReq, err := recording.FromHTTPRequest(r, s.applyDynamicValues(rules, body))
	if err != nil {
		return err
	}

	storedResp, err := recording.FromHTTPResponse(result.Status, result.Headers, result.Body)
	if err != nil {
		return err
	}

	interaction := recording.NewInteraction(storedReq, storedResp)
	if err := s.store.Save(context.WithoutCancel(ctx), s.id, interaction); err != nil {
		return err
	}

	s.metrics.RecordInteractionStored(s.storeType)
	logger.DebugCtx(ctx, "interaction captured",
		logger.KeyInteractionID, interaction.ID,
		logger.KeyStoreType, s.storeType)
	return nil
}

// replay answers from stored interactions, never touching the upstream. A
// miss is a 404 with a fixed body, not an error.
func (s *Session) replay(ctx context.Context, rules []dynamicRule, r *http.Request, body []byte) (*Reply, error) {
	incoming, err := recording.FromHTTPRequest(r, s.applyDynamicValues(rules, body))
	if err != nil {
		return nil, err
	}

	resp, err := s.matcher.Match(ctx, s.id, incoming)
	if err != nil {
		return nil, err
	}

	if resp == nil {
		telemetry.SetAttributes(ctx, telemetry.Matched(false))
		s.metrics.RecordMatcherMiss()
		logger.InfoCtx(ctx, "no matching interaction",
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path)
		return &Reply{
			Status:  http.StatusNotFound,
			Headers: http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
			Body:    []byte(matcher.NoMatchMessage),
		}, nil
	}

	telemetry.SetAttributes(ctx, telemetry.Matched(true))
	return &Reply{
		Status:  resp.Status,
		Headers: forward.StripHopByHop(resp.HTTPResponse().Header),
		Body:    resp.Body,
	}, nil
}
