package models

// FunctionType classifies how a requested function's specification is sourced.
type FunctionType string

const (
	// FunctionWellKnown comes from the curated specification table.
	FunctionWellKnown FunctionType = "well_known"
	// FunctionCustom must have its specification mined from the conversation.
	FunctionCustom FunctionType = "custom"
	// FunctionUnclear means the classifier could not tell what is wanted.
	FunctionUnclear FunctionType = "unclear"
)

// SpecStatus is the three-valued readiness verdict that drives whether the
// pipeline asks another question or proceeds to test proposal.
type SpecStatus string

const (
	SpecComplete     SpecStatus = "complete"
	SpecNeedsRules   SpecStatus = "needs_rules"
	SpecNeedsDetails SpecStatus = "needs_details"
)

// MaxIntentQuestions caps how many clarifying questions an intent record carries.
const MaxIntentQuestions = 2

// IntentRecord is the classifier's verdict on a single chat turn. It is not
// trusted as-is: every record passes through the validator before the
// extractor may use it.
type IntentRecord struct {
	FunctionName string       `json:"function_name"`
	FunctionType FunctionType `json:"function_type"`
	SpecStatus   SpecStatus   `json:"spec_status"`
	Questions    []string     `json:"questions,omitempty"`
	Purpose      string       `json:"purpose,omitempty"`
}

// ValidFunctionType reports whether s is one of the known enum values.
func ValidFunctionType(s string) bool {
	switch FunctionType(s) {
	case FunctionWellKnown, FunctionCustom, FunctionUnclear:
		return true
	}
	return false
}

// ValidSpecStatus reports whether s is one of the known enum values.
func ValidSpecStatus(s string) bool {
	switch SpecStatus(s) {
	case SpecComplete, SpecNeedsRules, SpecNeedsDetails:
		return true
	}
	return false
}
