// errors/auth_errors.go
package errors

import "errors"

var (
	ErrNoSession          = errors.New("no active session")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
