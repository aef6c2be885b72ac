// Package errors provides the error taxonomy for rewrite requests.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrEmptyInput      = errors.New("message is empty")
	ErrAuthFailed      = errors.New("authentication failed")
	ErrNoAPIKey        = errors.New("GEMINI_API_KEY is not set")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrNoContent       = errors.New("no content in response")
)

// DefaultHint is shown to the user whenever a rewrite fails upstream.
const DefaultHint = "Please check your Google API key and quota. Try again in a moment."

// EmptyInputError is raised when a rewrite is requested for blank text.
// It is a warning: it never reaches the network.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "please enter a message to rewrite"
}

// Is allows comparison with sentinel errors
func (e *EmptyInputError) Is(target error) bool {
	if target == ErrEmptyInput {
		return true
	}
	_, ok := target.(*EmptyInputError)
	return ok
}

// NewEmptyInputError creates a new EmptyInputError
func NewEmptyInputError() *EmptyInputError {
	return &EmptyInputError{}
}

// AuthError represents an authentication failure
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed: API key may be missing or invalid"
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is allows comparison with sentinel errors
func (e *AuthError) Is(target error) bool {
	if target == ErrAuthFailed {
		return true
	}
	_, ok := target.(*AuthError)
	return ok
}

// NewAuthError creates a new AuthError
func NewAuthError(message string) *AuthError {
	return &AuthError{Message: message}
}

// UsageLimitError represents an exhausted quota or rate limit
type UsageLimitError struct {
	Message string
	Err     error
}

func (e *UsageLimitError) Error() string {
	if e.Message == "" {
		return "usage limit exceeded"
	}
	return fmt.Sprintf("usage limit exceeded: %s", e.Message)
}

func (e *UsageLimitError) Unwrap() error { return e.Err }

// Is allows comparison with sentinel errors
func (e *UsageLimitError) Is(target error) bool {
	if target == ErrQuotaExceeded {
		return true
	}
	_, ok := target.(*UsageLimitError)
	return ok
}

// NewUsageLimitError creates a new UsageLimitError
func NewUsageLimitError(message string) *UsageLimitError {
	return &UsageLimitError{Message: message}
}

// NetworkError represents a transport failure talking to the generation service
type NetworkError struct {
	Operation string
	Err       error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("network error during %s", e.Operation)
	}
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation string, err error) *NetworkError {
	return &NetworkError{Operation: operation, Err: err}
}

// APIError represents a non-auth, non-quota failure reported by the service
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Model      string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] for %s: %s", e.StatusCode, e.Model, e.Message)
	}
	return fmt.Sprintf("API error for %s: %s", e.Model, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, model, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Model:      model,
		Message:    message,
	}
}

// ParseError represents model output that does not follow the section template
type ParseError struct {
	Message string
	Section string
}

func (e *ParseError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("parse error: %s (section %q)", e.Message, e.Section)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError
func NewParseError(message, section string) *ParseError {
	return &ParseError{Message: message, Section: section}
}

// IsEmptyInput reports whether err is an empty-input warning
func IsEmptyInput(err error) bool {
	return errors.Is(err, ErrEmptyInput)
}

// IsAuthError reports whether err is an authentication failure
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) || errors.Is(err, ErrNoAPIKey)
}

// IsRateLimitError reports whether err is a quota or rate limit failure
func IsRateLimitError(err error) bool {
	var limitErr *UsageLimitError
	return errors.As(err, &limitErr)
}

// IsNetworkError reports whether err is a transport failure
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsParseError reports whether err is a section parse failure
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// Kind classifies err for metrics and logs. Retries treat every kind alike.
func Kind(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case IsEmptyInput(err):
		return "empty_input"
	case IsAuthError(err):
		return "auth"
	case IsRateLimitError(err):
		return "quota"
	case IsNetworkError(err):
		return "network"
	case IsParseError(err):
		return "parse"
	case errors.Is(err, ErrNoContent):
		return "no_content"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &apiErr):
		return "api"
	default:
		return "other"
	}
}

// GetHTTPStatus extracts an HTTP status code from err, or 0
func GetHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Hint returns the user-visible remediation for a failed rewrite.
// Upstream failures are not differentiated; they all share DefaultHint.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case IsEmptyInput(err):
		return "Type a message or pick a demo preset first."
	default:
		return DefaultHint
	}
}
