package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/babyccino/pipeline-orchestrator/internal/models"
)

func conv(userMessages ...string) models.Conversation {
	var c models.Conversation
	for _, m := range userMessages {
		c = append(c, models.ChatTurn{Role: models.RoleUser, Content: m})
	}
	return c
}

func TestExtractWellKnownFromTable(t *testing.T) {
	e := New(zap.NewNop())
	rec := &models.IntentRecord{
		FunctionName: "is_palindrome",
		FunctionType: models.FunctionWellKnown,
		SpecStatus:   models.SpecComplete,
	}

	req, err := e.Extract(rec, conv("I want a palindrome checker"))

	require.NoError(t, err)
	assert.Equal(t, "is_palindrome", req.Name)
	assert.Equal(t, "bool", req.ReturnType)
	require.Len(t, req.Parameters, 1)
	assert.Equal(t, "s", req.Parameters[0].Name)
	assert.Contains(t, req.EdgeCases, "Empty string returns True")
	assert.NotEmpty(t, req.Examples)
	assert.Empty(t, req.ConversationTranscript)
}

func TestExtractWellKnownNameMissesTableFallsBackToMessages(t *testing.T) {
	e := New(zap.NewNop())
	rec := &models.IntentRecord{
		FunctionName: "check_it",
		FunctionType: models.FunctionWellKnown,
		SpecStatus:   models.SpecComplete,
	}

	req, err := e.Extract(rec, conv("check whether a number is prime"))

	require.NoError(t, err)
	assert.Equal(t, "is_prime", req.Name)
}

func TestExtractCustomSubjective(t *testing.T) {
	e := New(zap.NewNop())
	rec := &models.IntentRecord{
		FunctionName: "is_fun",
		FunctionType: models.FunctionCustom,
		SpecStatus:   models.SpecComplete,
		Purpose:      "Check if a word is fun",
	}

	c := conv(
		"I want a function that checks if a word is fun",
		"it's fun if it has more than one vowel, it's boring if it's longer than 15 characters, and it's fun if it ends with y",
	)
	req, err := e.Extract(rec, c)

	require.NoError(t, err)
	assert.Equal(t, "is_fun", req.Name)
	assert.Equal(t, "bool", req.ReturnType)
	require.Len(t, req.Parameters, 1)
	assert.Equal(t, "word", req.Parameters[0].Name)

	// Each rule-bearing clause is retained verbatim.
	assert.Contains(t, req.EdgeCases, "it's fun if it has more than one vowel")
	assert.Contains(t, req.EdgeCases, "it's boring if it's longer than 15 characters")
	assert.Contains(t, req.EdgeCases, "and it's fun if it ends with y")

	assert.NotEmpty(t, req.ConversationTranscript)
	assert.Contains(t, req.ConversationTranscript, "User: ")
}

func TestExtractCustomNoRulesYieldsEmptyEdgeCases(t *testing.T) {
	e := New(zap.NewNop())
	rec := &models.IntentRecord{
		FunctionName: "count_words",
		FunctionType: models.FunctionCustom,
		SpecStatus:   models.SpecComplete,
		Purpose:      "Count words",
	}

	req, err := e.Extract(rec, conv("count the words please"))

	require.NoError(t, err)
	assert.NotNil(t, req.EdgeCases)
	assert.Empty(t, req.EdgeCases)
	assert.NotNil(t, req.Examples)
	assert.Empty(t, req.Examples)
}

func TestExtractExplicitNameOverride(t *testing.T) {
	e := New(zap.NewNop())
	rec := &models.IntentRecord{
		FunctionName: "is_fun",
		FunctionType: models.FunctionCustom,
		SpecStatus:   models.SpecComplete,
	}

	req, err := e.Extract(rec, conv("a fun word checker, call it fun_check, it's fun if it rhymes with cat"))

	require.NoError(t, err)
	assert.Equal(t, "fun_check", req.Name)
}

func TestExtractNameOverrideRejectsSubjectiveCapture(t *testing.T) {
	e := New(zap.NewNop())
	rec := &models.IntentRecord{
		FunctionName: "rate_word",
		FunctionType: models.FunctionCustom,
		SpecStatus:   models.SpecComplete,
	}

	// "call it good" is a judgment, not a naming statement.
	req, err := e.Extract(rec, conv("if the word is short call it good"))

	require.NoError(t, err)
	assert.Equal(t, "rate_word", req.Name)
}

func TestExtractDefaultsWhenNameMissing(t *testing.T) {
	e := New(zap.NewNop())
	rec := &models.IntentRecord{
		FunctionType: models.FunctionCustom,
		SpecStatus:   models.SpecComplete,
	}

	req, err := e.Extract(rec, conv("something with a score if the total is greater than ten"))

	require.NoError(t, err)
	assert.Equal(t, "generated_function", req.Name)
}

func TestExtractFallbackScansRecentFirst(t *testing.T) {
	e := New(zap.NewNop())

	c := conv(
		"maybe a palindrome thing",
		"actually no, make it a prime checker",
	)
	req, err := e.Extract(nil, c)

	require.NoError(t, err)
	assert.Equal(t, "is_prime", req.Name)
}

func TestExtractFallbackNoMatch(t *testing.T) {
	e := New(zap.NewNop())

	_, err := e.Extract(nil, conv("do something nice"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoIntent)
}

func TestExtractNonCompleteRecordUsesFallback(t *testing.T) {
	e := New(zap.NewNop())
	rec := &models.IntentRecord{
		FunctionName: "is_fun",
		FunctionType: models.FunctionCustom,
		SpecStatus:   models.SpecNeedsRules,
	}

	req, err := e.Extract(rec, conv("give me a factorial function"))

	require.NoError(t, err)
	assert.Equal(t, "factorial", req.Name)
}

func TestExtractIsIdempotent(t *testing.T) {
	e := New(zap.NewNop())
	rec := &models.IntentRecord{
		FunctionName: "is_fun",
		FunctionType: models.FunctionCustom,
		SpecStatus:   models.SpecComplete,
	}
	c := conv("a fun checker, it's fun if it contains a z")

	first, err := e.Extract(rec, c)
	require.NoError(t, err)
	second, err := e.Extract(rec, c)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Fun Check", "fun_check"},
		{"fun-check", "fun_check"},
		{"  is_fun  ", "is_fun"},
		{"IsFun!", "isfun"},
		{"a  b", "a_b"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, snakeCase(tt.in), "input %q", tt.in)
	}
}

func TestSplitClauses(t *testing.T) {
	clauses := splitClauses("a, b; c. d\ne")
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, clauses)
}
