// errors/enforcer_errors.go
package errors

import "errors"

var (
	ErrEnforcerNotFound    = errors.New("enforcer not found")
	ErrEnforcerConflict    = errors.New("enforcer conflict")
	ErrInvalidEnforcerData = errors.New("invalid enforcer data")
)
