package sdk

import "fmt"

// Error codes returned in the server's error envelope.
const (
	CodeBadRequest       = "bad_request"
	CodeInvalidQuery     = "invalid_query"
	CodeIndexUnavailable = "index_unavailable"
	CodeBudgetExceeded   = "budget_exceeded"
	CodeProviderError    = "provider_error"
	CodeInternal         = "internal_error"
)

// APIError is a non-2xx response from the server. Check Code against the
// Code* constants with errors.As:
//
//	var apiErr *sdk.APIError
//	if errors.As(err, &apiErr) && apiErr.Code == sdk.CodeBudgetExceeded { ... }
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("groundline: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}
