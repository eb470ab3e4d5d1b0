// Package matcher finds the stored interaction that answers an incoming
// replay request.
package matcher

import (
	"context"
	"strings"

	"github.com/replayd/replayd/internal/logger"
	"github.com/replayd/replayd/pkg/recording"
	"github.com/replayd/replayd/pkg/store"
)

// NoMatchMessage is the fixed body returned to clients when replay finds no
// stored interaction.
const NoMatchMessage = "No matching interaction found"

// Matcher scans a session's stored interactions and returns the first whose
// request matches the incoming one.
//
// The predicate is: equal method (case-insensitive), byte-equal URI path,
// then the body comparator for interactions that carry an expectation.
// Query strings and headers are deliberately not compared. Stores may return
// interactions in arbitrary order, so "first" is first in store order, not
// necessarily capture order.
type Matcher struct {
	store store.Store
	body  BodyComparator
}

// New creates a matcher reading from the given store, using the AcceptAll
// body comparator.
func New(s store.Store) *Matcher {
	return NewWithComparator(s, AcceptAll{})
}

// NewWithComparator creates a matcher with a custom body comparator.
func NewWithComparator(s store.Store, body BodyComparator) *Matcher {
	if body == nil {
		body = AcceptAll{}
	}
	return &Matcher{store: s, body: body}
}

// Match returns the stored response for the first matching interaction, or
// nil if none matches.
func (m *Matcher) Match(ctx context.Context, sessionID string, req recording.Request) (*recording.Response, error) {
	interactions, err := m.store.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	logger.DebugCtx(ctx, "matching request against stored interactions",
		logger.KeyCount, len(interactions),
		logger.KeyMethod, req.Method,
		logger.KeyPath, req.Path())

	method := strings.ToUpper(req.Method)
	path := req.Path()

	for _, interaction := range interactions {
		if strings.ToUpper(interaction.Request.Method) != method {
			continue
		}
		if interaction.Request.Path() != path {
			continue
		}
		if len(interaction.Request.ExpectedBody) > 0 && !m.body.Matches(interaction.Request.ExpectedBody, req.Body) {
			continue
		}

		logger.DebugCtx(ctx, "found matching interaction", logger.KeyInteractionID, interaction.ID)
		resp := interaction.Response
		return &resp, nil
	}

	return nil, nil
}
