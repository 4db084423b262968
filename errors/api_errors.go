// errors/api_errors.go
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrValidationFailed tags client-side form rejections that never
// reached the backend; the field details travel alongside it.
var ErrValidationFailed = errors.New("validation failed")

// FieldError is one entry of the backend's structured validation
// details list. Param names the offending form field.
type FieldError struct {
	Param string `json:"param"`
	Msg   string `json:"msg"`
}

// APIError is a non-2xx backend response decoded at the facade
// boundary. Details is populated when the backend returns per-field
// validation messages; views render those next to the field and only
// fall back to Message when no field-level mapping exists.
type APIError struct {
	Status  int
	Message string
	Details []FieldError
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

// NetworkError wraps transport-level failures: no connectivity, DNS,
// or an exceeded request timeout. The absence of a response is not
// proof the session is invalid, so these never clear the session.
type NetworkError struct {
	Err     error
	Timeout bool
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("request timed out: %v", e.Err)
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError is a response that arrived but did not match the
// expected envelope. Malformed responses fail fast here instead of
// surfacing as nils deep in a view.
type DecodeError struct {
	Resource string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s response: %v", e.Resource, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsAuthError reports whether err means the session is no longer
// valid and the console must return to login.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrNoSession) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsValidationError reports whether err carries field-level details.
func IsValidationError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && len(apiErr.Details) > 0
}

// IsNetworkError reports whether err is a retryable transport failure.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsNotFound reports whether the backend answered 404 for the resource.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrViolationNotFound) || errors.Is(err, ErrEnforcerNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// ValidationDetails extracts the field-level details from err, or nil.
func ValidationDetails(err error) []FieldError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Details
	}
	return nil
}
