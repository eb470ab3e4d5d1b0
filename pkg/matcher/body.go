package matcher

import (
	"bytes"
	"encoding/json"
)

// BodyComparator decides whether an incoming request body satisfies a stored
// interaction's expectation. Implementations must be safe for concurrent
// use.
type BodyComparator interface {
	// Matches reports whether actual satisfies expected. Expected is the
	// interaction's expected_body document.
	Matches(expected json.RawMessage, actual []byte) bool
}

// AcceptAll matches every body. This is the default comparator: the minimum
// viable predicate is method + path only.
type AcceptAll struct{}

// Matches always reports true.
func (AcceptAll) Matches(json.RawMessage, []byte) bool { return true }

// JSONSubset compares bodies structurally: the expectation matches when
// every key it names is present in the actual document with a recursively
// matching value. Extra keys in the actual document are allowed. Arrays
// match positionally with equal lengths. The string "*" on the expected side
// matches any actual node. Other scalars compare by equality.
//
// Bodies that do not parse as JSON never match.
type JSONSubset struct{}

// Matches implements BodyComparator.
func (JSONSubset) Matches(expected json.RawMessage, actual []byte) bool {
	var expectedVal, actualVal any
	if err := json.Unmarshal(expected, &expectedVal); err != nil {
		return false
	}
	if err := json.Unmarshal(bytes.TrimSpace(actual), &actualVal); err != nil {
		return false
	}
	return jsonMatches(actualVal, expectedVal)
}

// jsonMatches reports whether actual satisfies expected, recursively.
func jsonMatches(actual, expected any) bool {
	// Wildcard matches any node.
	if s, ok := expected.(string); ok && s == "*" {
		return true
	}

	switch expectedVal := expected.(type) {
	case map[string]any:
		actualObj, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for key, expectedChild := range expectedVal {
			actualChild, present := actualObj[key]
			if !present {
				return false
			}
			if !jsonMatches(actualChild, expectedChild) {
				return false
			}
		}
		return true

	case []any:
		actualArr, ok := actual.([]any)
		if !ok || len(actualArr) != len(expectedVal) {
			return false
		}
		for i, expectedChild := range expectedVal {
			if !jsonMatches(actualArr[i], expectedChild) {
				return false
			}
		}
		return true

	default:
		return actual == expected
	}
}
