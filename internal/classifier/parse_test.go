package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babyccino/pipeline-orchestrator/internal/models"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		expectedError bool
		expected      models.IntentRecord
	}{
		{
			name: "clean_json",
			raw:  `{"function_name":"is_fun","function_type":"custom","spec_status":"needs_rules","questions":["What makes it fun?"],"purpose":"Check if a word is fun"}`,
			expected: models.IntentRecord{
				FunctionName: "is_fun",
				FunctionType: models.FunctionCustom,
				SpecStatus:   models.SpecNeedsRules,
				Questions:    []string{"What makes it fun?"},
				Purpose:      "Check if a word is fun",
			},
		},
		{
			name: "fenced_json",
			raw: "```json\n" +
				`{"function_name":"is_prime","function_type":"well_known","spec_status":"complete","purpose":"Primality check"}` +
				"\n```",
			expected: models.IntentRecord{
				FunctionName: "is_prime",
				FunctionType: models.FunctionWellKnown,
				SpecStatus:   models.SpecComplete,
				Purpose:      "Primality check",
			},
		},
		{
			name: "prose_around_json",
			raw:  `Sure, here is the classification: {"function_name":"x","function_type":"unclear","spec_status":"needs_rules","purpose":""} hope that helps`,
			expected: models.IntentRecord{
				FunctionName: "x",
				FunctionType: models.FunctionUnclear,
				SpecStatus:   models.SpecNeedsRules,
			},
		},
		{
			name: "nested_braces_in_strings",
			raw:  `{"function_name":"f","function_type":"custom","spec_status":"complete","purpose":"handles {braces} inside"}`,
			expected: models.IntentRecord{
				FunctionName: "f",
				FunctionType: models.FunctionCustom,
				SpecStatus:   models.SpecComplete,
				Purpose:      "handles {braces} inside",
			},
		},
		{name: "empty_output", raw: "   ", expectedError: true},
		{name: "no_json", raw: "I cannot classify this.", expectedError: true},
		{name: "malformed_json", raw: `{"function_name": `, expectedError: true},
		{name: "invalid_function_type", raw: `{"function_type":"builtin","spec_status":"complete"}`, expectedError: true},
		{name: "invalid_spec_status", raw: `{"function_type":"custom","spec_status":"done"}`, expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := ParseIntent(tt.raw)
			if tt.expectedError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrClassification)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, record)
		})
	}
}

func TestParseIntentTruncatesQuestions(t *testing.T) {
	raw := `{"function_type":"custom","spec_status":"needs_rules","questions":["a","b","c","d"]}`
	record, err := ParseIntent(raw)
	require.NoError(t, err)
	assert.Len(t, record.Questions, models.MaxIntentQuestions)
	assert.Equal(t, []string{"a", "b"}, record.Questions)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"nested", `{"a":{"b":2}}`, `{"a":{"b":2}}`},
		{"brace_in_string", `{"a":"}"}`, `{"a":"}"}`},
		{"escaped_quote", `{"a":"\"}"}`, `{"a":"\"}"}`},
		{"unbalanced", `{"a":`, ""},
		{"no_object", "nothing here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSON(tt.text))
		})
	}
}
