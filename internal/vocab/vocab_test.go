package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsRuleSignal(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{"if_clause", "it's fun if it has more than one vowel", true},
		{"when_clause", "return true when the number is even", true},
		{"relational_phrase", "anything greater than ten", true},
		{"operator", "score >= 10 means pass", true},
		{"case_insensitive", "IF the word is short", true},
		{"no_signal", "make me a fun checker", false},
		{"descriptive_if", "a function that checks if a word is fun", false},
		{"descriptive_if_plus_real_rule", "checks if a word is fun: fun if it has a z", true},
		{"empty", "", false},
		{"if_without_space", "uplift the result", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContainsRuleSignal(tt.text))
		})
	}
}

func TestSubjectiveMatches(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{"single_keyword", "a function that checks if a word is fun", []string{"fun"}},
		{"multiple_keywords", "classify names as good or bad", []string{"good", "bad", "classify"}},
		{"whole_word_only", "generate a report", nil},
		{"underscored_name", "is_fun checker", []string{"fun"}},
		{"not_subjective", "count the vowels in a string", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SubjectiveMatches(tt.text))
		})
	}
}

func TestSubjectiveMatchesOrderIsStable(t *testing.T) {
	// Matches come back in table order regardless of position in the text.
	first := SubjectiveMatches("bad then good")
	second := SubjectiveMatches("good then bad")
	assert.Equal(t, first, second)
}

func TestQuestionsFor(t *testing.T) {
	t.Run("keyword_specific", func(t *testing.T) {
		qs := QuestionsFor([]string{"fun"}, 2)
		require.Len(t, qs, 2)
		assert.Contains(t, qs[0], "fun")
	})

	t.Run("caps_at_max", func(t *testing.T) {
		qs := QuestionsFor([]string{"fun", "boring", "good"}, 2)
		assert.Len(t, qs, 2)
	})

	t.Run("generic_fallback", func(t *testing.T) {
		qs := QuestionsFor([]string{"weird"}, 2)
		require.Len(t, qs, 1)
		assert.Equal(t, GenericRuleQuestion, qs[0])
	})

	t.Run("no_keywords", func(t *testing.T) {
		qs := QuestionsFor(nil, 2)
		assert.Equal(t, []string{GenericRuleQuestion}, qs)
	})
}

func TestLookupWellKnown(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		expectedName string
		found        bool
	}{
		{"by_name", "is_palindrome", "is_palindrome", true},
		{"in_sentence", "I need a palindrome checker", "is_palindrome", true},
		{"prime", "check if a number is prime", "is_prime", true},
		{"vowel_counter", "count the vowels in a word", "count_vowels", true},
		{"case_insensitive", "FIBONACCI please", "fibonacci", true},
		{"no_match", "a fun checker for names", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, ok := LookupWellKnown(tt.text)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				require.NotNil(t, spec)
				assert.Equal(t, tt.expectedName, spec.Name)
			}
		})
	}
}

func TestWellKnownSpecsAreComplete(t *testing.T) {
	for _, spec := range WellKnownSpecs {
		assert.NotEmpty(t, spec.Key)
		assert.NotEmpty(t, spec.Name)
		assert.NotEmpty(t, spec.Purpose)
		assert.NotEmpty(t, spec.Parameters, "spec %s has no parameters", spec.Name)
		assert.NotEmpty(t, spec.ReturnType, "spec %s has no return type", spec.Name)
		assert.NotEmpty(t, spec.EdgeCases, "spec %s has no edge cases", spec.Name)
	}
}

func TestInferReturnType(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"bool_cue", "return true or false depending on the word", "bool"},
		{"str_cue", "classify the input into a category", "str"},
		{"int_cue", "give it a score from one to ten", "int"},
		{"bool_wins_over_int", "true or false based on the count", "bool"},
		{"default", "do the thing", "bool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InferReturnType(tt.text))
		})
	}
}

func TestIsCollectionType(t *testing.T) {
	assert.True(t, IsCollectionType("list[int]"))
	assert.True(t, IsCollectionType("dict"))
	assert.True(t, IsCollectionType("Set[str]"))
	assert.False(t, IsCollectionType("str"))
	assert.False(t, IsCollectionType("int"))
}
