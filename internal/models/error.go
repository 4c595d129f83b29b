package models

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeSessionNotFound   = "SESSION_NOT_FOUND"
	ErrCodeInvalidState      = "INVALID_STATE"
	ErrCodeStaleProposal     = "STALE_PROPOSAL"
	ErrCodeServiceFailure    = "SERVICE_FAILURE"
	ErrCodeMalformedResponse = "MALFORMED_RESPONSE"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)
