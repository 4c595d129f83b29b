package models

// ProposedTestCase is a server-authored test case awaiting user approval.
// Ids are minted by the proposing service and retained through approval so
// edits stay traceable.
type ProposedTestCase struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsEdgeCase     bool   `json:"is_edge_case"`
}

// ApprovedTestCase is a user-filtered, possibly edited test case forwarded to
// code generation. Its id either traces to a proposed test case or is freshly
// minted for a user-authored test.
type ApprovedTestCase struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsEdgeCase     bool   `json:"is_edge_case"`
}

// TestCaseResult is the executed outcome of a single generated test.
type TestCaseResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Output string `json:"output"`
}

// TestResult bundles the generated test code with its execution results.
type TestResult struct {
	Code    string           `json:"code"`
	Results []TestCaseResult `json:"results"`
	Summary string           `json:"summary"`
}
