// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
// Code carries the machine-readable reason from the apperr taxonomy so the
// cashier/kitchen UIs can branch on it without parsing the message text.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Message: msg}
}

// NewCoded builds an envelope carrying a machine-readable reason code.
func NewCoded(code, msg string) *APIError {
	return &APIError{Message: msg, Code: code}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Message: "Validation failed", Code: "validation_error", Fields: fields}
}
