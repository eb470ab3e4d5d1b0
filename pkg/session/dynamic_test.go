package session

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, patterns ...DynamicPattern) []dynamicRule {
	t.Helper()
	rules, err := compileRules(patterns)
	require.NoError(t, err)
	return rules
}

func TestCompileRulesRejectsBadPattern(t *testing.T) {
	_, err := compileRules([]DynamicPattern{{Pattern: "([", Generator: "x"}})
	assert.Error(t, err)
}

func TestConsistentRandom(t *testing.T) {
	rules := mustCompile(t, DynamicPattern{Pattern: `tok_[a-z0-9]+`, Generator: GeneratorConsistentRandom})
	values := map[string]string{}

	first := applyDynamic(rules, values, []byte(`{"token":"tok_abc123"}`))
	second := applyDynamic(rules, values, []byte(`{"token":"tok_abc123"}`))

	assert.Equal(t, first, second, "same literal maps to the same replacement")
	assert.NotContains(t, string(first), "tok_abc123")

	replacement := values["tok_abc123"]
	assert.Len(t, replacement, 10)
	assert.Regexp(t, regexp.MustCompile(`^[a-zA-Z0-9]+$`), replacement)
}

func TestConsistentRandomDistinctLiterals(t *testing.T) {
	rules := mustCompile(t, DynamicPattern{Pattern: `tok_[a-z0-9]+`, Generator: GeneratorConsistentRandom})
	values := map[string]string{}

	applyDynamic(rules, values, []byte(`tok_one tok_two`))

	assert.Len(t, values, 2)
	assert.NotEqual(t, values["tok_one"], values["tok_two"])
}

func TestConsistentRandomLengthParam(t *testing.T) {
	rules := mustCompile(t, DynamicPattern{
		Pattern:   `tok_[a-z]+`,
		Generator: GeneratorConsistentRandom,
		Params:    map[string]string{"length": "24"},
	})
	values := map[string]string{}

	applyDynamic(rules, values, []byte(`tok_abc`))
	assert.Len(t, values["tok_abc"], 24)
}

func TestIncrement(t *testing.T) {
	rules := mustCompile(t, DynamicPattern{Pattern: `seq=(\d+)`, Generator: GeneratorIncrement})
	values := map[string]string{}

	out := applyDynamic(rules, values, []byte(`seq=41`))
	assert.Equal(t, `42`, string(out))
}

func TestIncrementFallsBackToOne(t *testing.T) {
	rules := mustCompile(t, DynamicPattern{Pattern: `seq=\w+`, Generator: GeneratorIncrement})
	values := map[string]string{}

	out := applyDynamic(rules, values, []byte(`seq=abc`))
	assert.Equal(t, `1`, string(out), "unparsable capture falls back to 1")
}

func TestUnknownGeneratorEmitsLiteral(t *testing.T) {
	rules := mustCompile(t, DynamicPattern{Pattern: `NOW`, Generator: "frozen-time"})
	values := map[string]string{}

	out := applyDynamic(rules, values, []byte(`at NOW exactly`))
	assert.Equal(t, `at frozen-time exactly`, string(out))
}

func TestNoRulesLeavesBodyAlone(t *testing.T) {
	out := applyDynamic(nil, map[string]string{}, []byte("unchanged"))
	assert.Equal(t, "unchanged", string(out))
}
