// errors/violation_errors.go
package errors

import "errors"

var (
	ErrViolationNotFound    = errors.New("violation not found")
	ErrInvalidViolationData = errors.New("invalid violation data")
	ErrInvalidStatus        = errors.New("invalid violation status")
)
