package session

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

// Generator names understood by the dynamic-value filter. Any other name is
// emitted verbatim as the replacement, which doubles as a test hook.
const (
	GeneratorConsistentRandom = "consistent_random"
	GeneratorIncrement        = "increment"
)

// defaultRandomLength is the length of consistent_random replacements when
// no "length" param is given.
const defaultRandomLength = 10

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// dynamicRule is a compiled DynamicPattern.
type dynamicRule struct {
	re        *regexp.Regexp
	generator string
	params    map[string]string
}

// compileRules validates and compiles the session's dynamic patterns.
func compileRules(patterns []DynamicPattern) ([]dynamicRule, error) {
	rules := make([]dynamicRule, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid dynamic pattern %q: %w", p.Pattern, err)
		}
		rules = append(rules, dynamicRule{re: re, generator: p.Generator, params: p.Params})
	}
	return rules, nil
}

// applyDynamic rewrites body, replacing every rule match with a value that
// is consistent per full-match literal for the life of the session. The
// values table maps full-match string to its replacement and is owned
// exclusively by the session.
func applyDynamic(rules []dynamicRule, values map[string]string, body []byte) []byte {
	if len(rules) == 0 || len(body) == 0 {
		return body
	}

	result := string(body)
	original := string(body)

	for _, rule := range rules {
		for _, groups := range rule.re.FindAllStringSubmatch(original, -1) {
			fullMatch := groups[0]

			if _, seen := values[fullMatch]; !seen {
				values[fullMatch] = generateValue(rule, groups)
			}

			result = strings.ReplaceAll(result, fullMatch, values[fullMatch])
		}
	}

	return []byte(result)
}

// generateValue produces a replacement for one match.
func generateValue(rule dynamicRule, groups []string) string {
	switch rule.generator {
	case GeneratorConsistentRandom:
		length := defaultRandomLength
		if raw, ok := rule.params["length"]; ok {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				length = n
			}
		}
		return randomAlphanumeric(length)

	case GeneratorIncrement:
		if len(groups) > 1 {
			if n, err := strconv.ParseInt(groups[1], 10, 64); err == nil {
				return strconv.FormatInt(n+1, 10)
			}
		}
		return "1"

	default:
		return rule.generator
	}
}

func randomAlphanumeric(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumeric[rand.IntN(len(alphanumeric))]
	}
	return string(b)
}
