package models

// FunctionParameter describes one parameter of the function to generate.
type FunctionParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// FunctionExample is an example input/output pair, both as string
// representations of Python literals.
type FunctionExample struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// FunctionRequirements is the machine-checkable specification extracted from
// a conversation. For custom functions, EdgeCases must retain every explicit
// rule the user stated; ConversationTranscript carries the raw exchange so
// the code generator can recover anything the extractor paraphrased.
// Immutable once sent to test proposal.
type FunctionRequirements struct {
	Name                   string              `json:"name"`
	Purpose                string              `json:"purpose"`
	Parameters             []FunctionParameter `json:"parameters"`
	ReturnType             string              `json:"return_type"`
	EdgeCases              []string            `json:"edge_cases"`
	Examples               []FunctionExample   `json:"examples"`
	ConversationTranscript string              `json:"conversation_transcript,omitempty"`
}
