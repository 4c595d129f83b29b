package vocab

import (
	"strings"

	"github.com/babyccino/pipeline-orchestrator/internal/models"
)

// WellKnownSpec is a curated, hand-authored specification for a function from
// the well-known set. Keyed by a substring matched against the normalized
// function name or message text.
type WellKnownSpec struct {
	Key        string
	Name       string
	Purpose    string
	Parameters []models.FunctionParameter
	ReturnType string
	EdgeCases  []string
	Examples   []models.FunctionExample
}

// WellKnownSpecs is ordered: lookup scans take the first matching key, so more
// specific keys must precede looser ones.
var WellKnownSpecs = []WellKnownSpec{
	{
		Key:     "palindrome",
		Name:    "is_palindrome",
		Purpose: "Check whether a string reads the same forwards and backwards",
		Parameters: []models.FunctionParameter{
			{Name: "s", Type: "str", Description: "The string to check"},
		},
		ReturnType: "bool",
		EdgeCases: []string{
			"Empty string returns True",
			"Single character returns True",
			"Comparison ignores case",
			"Spaces and punctuation are ignored",
		},
		Examples: []models.FunctionExample{
			{Input: `"racecar"`, Output: "True"},
			{Input: `"hello"`, Output: "False"},
		},
	},
	{
		Key:     "prime",
		Name:    "is_prime",
		Purpose: "Check whether an integer is a prime number",
		Parameters: []models.FunctionParameter{
			{Name: "n", Type: "int", Description: "The number to check"},
		},
		ReturnType: "bool",
		EdgeCases: []string{
			"n < 2 returns False",
			"2 is the smallest prime",
			"Negative numbers return False",
		},
		Examples: []models.FunctionExample{
			{Input: "7", Output: "True"},
			{Input: "9", Output: "False"},
		},
	},
	{
		Key:     "fibonacci",
		Name:    "fibonacci",
		Purpose: "Compute the nth Fibonacci number",
		Parameters: []models.FunctionParameter{
			{Name: "n", Type: "int", Description: "Zero-based index into the sequence"},
		},
		ReturnType: "int",
		EdgeCases: []string{
			"n = 0 returns 0",
			"n = 1 returns 1",
			"Negative n returns None",
		},
		Examples: []models.FunctionExample{
			{Input: "6", Output: "8"},
		},
	},
	{
		Key:     "factorial",
		Name:    "factorial",
		Purpose: "Compute n! for a non-negative integer",
		Parameters: []models.FunctionParameter{
			{Name: "n", Type: "int", Description: "The number to take the factorial of"},
		},
		ReturnType: "int",
		EdgeCases: []string{
			"0! = 1",
			"Negative n returns None",
		},
		Examples: []models.FunctionExample{
			{Input: "5", Output: "120"},
		},
	},
	{
		Key:     "anagram",
		Name:    "is_anagram",
		Purpose: "Check whether two strings are anagrams of each other",
		Parameters: []models.FunctionParameter{
			{Name: "s1", Type: "str", Description: "First string"},
			{Name: "s2", Type: "str", Description: "Second string"},
		},
		ReturnType: "bool",
		EdgeCases: []string{
			"Comparison ignores case",
			"Two empty strings are anagrams",
			"Strings of different lengths return False",
		},
		Examples: []models.FunctionExample{
			{Input: `"listen", "silent"`, Output: "True"},
		},
	},
	{
		Key:     "vowel",
		Name:    "count_vowels",
		Purpose: "Count the vowels in a string",
		Parameters: []models.FunctionParameter{
			{Name: "s", Type: "str", Description: "The string to scan"},
		},
		ReturnType: "int",
		EdgeCases: []string{
			"Empty string returns 0",
			"Both cases of a, e, i, o, u are counted",
		},
		Examples: []models.FunctionExample{
			{Input: `"hello"`, Output: "2"},
		},
	},
	{
		Key:     "even",
		Name:    "is_even",
		Purpose: "Check whether an integer is even",
		Parameters: []models.FunctionParameter{
			{Name: "n", Type: "int", Description: "The number to check"},
		},
		ReturnType: "bool",
		EdgeCases: []string{
			"Zero is even",
			"Negative even numbers return True",
		},
		Examples: []models.FunctionExample{
			{Input: "4", Output: "True"},
			{Input: "7", Output: "False"},
		},
	},
	{
		Key:     "odd",
		Name:    "is_odd",
		Purpose: "Check whether an integer is odd",
		Parameters: []models.FunctionParameter{
			{Name: "n", Type: "int", Description: "The number to check"},
		},
		ReturnType: "bool",
		EdgeCases: []string{
			"Zero is not odd",
			"Negative odd numbers return True",
		},
		Examples: []models.FunctionExample{
			{Input: "3", Output: "True"},
		},
	},
	{
		Key:     "gcd",
		Name:    "gcd",
		Purpose: "Compute the greatest common divisor of two integers",
		Parameters: []models.FunctionParameter{
			{Name: "a", Type: "int", Description: "First number"},
			{Name: "b", Type: "int", Description: "Second number"},
		},
		ReturnType: "int",
		EdgeCases: []string{
			"gcd(n, 0) = n",
			"gcd(0, 0) = 0",
		},
		Examples: []models.FunctionExample{
			{Input: "12, 18", Output: "6"},
		},
	},
	{
		Key:     "reverse",
		Name:    "reverse_string",
		Purpose: "Reverse a string",
		Parameters: []models.FunctionParameter{
			{Name: "s", Type: "str", Description: "The string to reverse"},
		},
		ReturnType: "str",
		EdgeCases: []string{
			"Empty string returns empty string",
		},
		Examples: []models.FunctionExample{
			{Input: `"abc"`, Output: `"cba"`},
		},
	},
	{
		Key:     "sort",
		Name:    "sort_list",
		Purpose: "Sort a list of integers in ascending order",
		Parameters: []models.FunctionParameter{
			{Name: "items", Type: "list[int]", Description: "The list to sort"},
		},
		ReturnType: "list[int]",
		EdgeCases: []string{
			"Empty list returns empty list",
			"Duplicates are preserved",
		},
		Examples: []models.FunctionExample{
			{Input: "[3, 1, 2]", Output: "[1, 2, 3]"},
		},
	},
}

// LookupWellKnown returns the first curated spec whose key is a substring of
// the normalized text.
func LookupWellKnown(text string) (*WellKnownSpec, bool) {
	lower := strings.ToLower(text)
	for i := range WellKnownSpecs {
		if strings.Contains(lower, WellKnownSpecs[i].Key) {
			return &WellKnownSpecs[i], true
		}
	}
	return nil, false
}

// ParamCue maps a keyword in the function name or transcript to an inferred
// parameter.
type ParamCue struct {
	Keyword string
	Param   models.FunctionParameter
}

// ParamCues is ordered by specificity; the first matching cue wins.
var ParamCues = []ParamCue{
	{Keyword: "name", Param: models.FunctionParameter{Name: "name", Type: "str", Description: "The name to evaluate"}},
	{Keyword: "word", Param: models.FunctionParameter{Name: "word", Type: "str", Description: "The word to evaluate"}},
	{Keyword: "sentence", Param: models.FunctionParameter{Name: "sentence", Type: "str", Description: "The sentence to evaluate"}},
	{Keyword: "number", Param: models.FunctionParameter{Name: "n", Type: "int", Description: "The number to evaluate"}},
	{Keyword: "digit", Param: models.FunctionParameter{Name: "n", Type: "int", Description: "The number to evaluate"}},
	{Keyword: "string", Param: models.FunctionParameter{Name: "s", Type: "str", Description: "The string to evaluate"}},
	{Keyword: "text", Param: models.FunctionParameter{Name: "text", Type: "str", Description: "The text to evaluate"}},
}

// DefaultParam is used when no cue matches.
var DefaultParam = models.FunctionParameter{Name: "value", Type: "str", Description: "The value to evaluate"}

// Return-type cue tables, checked in order: bool, str, int; bool is also the
// final default for custom functions.
var (
	BoolReturnCues = []string{"bool", "true or false", "true/false", "boolean", "yes or no"}
	StrReturnCues  = []string{"classify", "label", "category", "categorize"}
	IntReturnCues  = []string{"score", "count", "how many"}
)

// InferReturnType applies the cue tables to transcript text.
func InferReturnType(text string) string {
	lower := strings.ToLower(text)
	for _, cue := range BoolReturnCues {
		if strings.Contains(lower, cue) {
			return "bool"
		}
	}
	for _, cue := range StrReturnCues {
		if strings.Contains(lower, cue) {
			return "str"
		}
	}
	for _, cue := range IntReturnCues {
		if strings.Contains(lower, cue) {
			return "int"
		}
	}
	return "bool"
}
