package models

// ComplexityResult is a Big-O complexity estimate for generated code.
type ComplexityResult struct {
	Time        string `json:"time"`
	Space       string `json:"space"`
	Explanation string `json:"explanation"`
}

// CodeResult is the generated function with executed tests and complexity
// analysis. Read-only to the pipeline once received.
type CodeResult struct {
	FunctionName string           `json:"function_name"`
	Function     string           `json:"function"`
	Tests        TestResult       `json:"tests"`
	Complexity   ComplexityResult `json:"complexity"`
}

// GenerateTestsRequest is the body of POST /generate-tests on the
// code-generation service.
type GenerateTestsRequest struct {
	Requirements FunctionRequirements `json:"requirements"`
}

// GenerateTestsResponse is the proposed test set returned by the
// code-generation service.
type GenerateTestsResponse struct {
	FunctionName  string             `json:"function_name"`
	ProposedTests []ProposedTestCase `json:"proposed_tests"`
}

// GenerateCodeRequest is the body of POST /generate-code. Requirements is a
// list to allow multi-function generation; single-function callers send one
// element.
type GenerateCodeRequest struct {
	ConversationID *string                `json:"conversation_id"`
	Requirements   []FunctionRequirements `json:"requirements"`
	ApprovedTests  []ApprovedTestCase     `json:"approved_tests,omitempty"`
}

// GenerateCodeResponse is the code-generation service's reply.
type GenerateCodeResponse struct {
	ConversationID string       `json:"conversation_id"`
	Results        []CodeResult `json:"results"`
}

// HealthResponse is the shape of GET /health, both on the code-generation
// service and on this service's own health endpoint.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	LLMProvider    string `json:"llm_provider"`
	Model          string `json:"model"`
	ModelAvailable bool   `json:"model_available"`
}
