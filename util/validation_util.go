// util/validation_util.go

package util

import (
	"strings"

	consoleerrors "github.com/tvmsuite/console/errors"
	"github.com/tvmsuite/console/model"
)

// ValidationUtil pre-validates form input before it goes over the
// wire. The checks mirror the backend's and produce the same
// field-keyed shape, so a locally rejected form renders identically
// to a backend validation failure.
type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

func (v *ValidationUtil) ValidateEnforcerInput(input model.EnforcerInput, creating bool) []consoleerrors.FieldError {
	var details []consoleerrors.FieldError
	if creating {
		if input.Username == "" {
			details = append(details, consoleerrors.FieldError{Param: "username", Msg: "username is required"})
		}
		if input.Password == "" {
			details = append(details, consoleerrors.FieldError{Param: "password", Msg: "password is required"})
		} else if len(input.Password) < 8 {
			details = append(details, consoleerrors.FieldError{Param: "password", Msg: "password must be at least 8 characters"})
		}
		if input.FullName == "" {
			details = append(details, consoleerrors.FieldError{Param: "full_name", Msg: "full name is required"})
		}
		if input.BadgeNumber == "" {
			details = append(details, consoleerrors.FieldError{Param: "badge_number", Msg: "badge number is required"})
		}
	} else if input.Password != "" {
		details = append(details, consoleerrors.FieldError{Param: "password", Msg: "password cannot be changed here"})
	}
	if input.Email != "" && !strings.Contains(input.Email, "@") {
		details = append(details, consoleerrors.FieldError{Param: "email", Msg: "email is not valid"})
	} else if creating && input.Email == "" {
		details = append(details, consoleerrors.FieldError{Param: "email", Msg: "email is required"})
	}
	return details
}

func (v *ValidationUtil) ValidateViolationInput(input model.ViolationInput) []consoleerrors.FieldError {
	var details []consoleerrors.FieldError
	if input.FineAmount < 0 {
		details = append(details, consoleerrors.FieldError{Param: "fine_amount", Msg: "fine amount cannot be negative"})
	}
	if input.Status != "" && !validStatus(input.Status) {
		details = append(details, consoleerrors.FieldError{Param: "status", Msg: "unknown status"})
	}
	return details
}

func (v *ValidationUtil) ValidateSettings(settings model.Settings) []consoleerrors.FieldError {
	var details []consoleerrors.FieldError
	if settings.SystemName == "" {
		details = append(details, consoleerrors.FieldError{Param: "system_name", Msg: "system name is required"})
	}
	if settings.DefaultFineAmount < 0 {
		details = append(details, consoleerrors.FieldError{Param: "default_fine_amount", Msg: "default fine cannot be negative"})
	}
	if settings.RepeatOffenderMin < 2 {
		details = append(details, consoleerrors.FieldError{Param: "repeat_offender_min", Msg: "repeat offender threshold must be at least 2"})
	}
	return details
}

func validStatus(status string) bool {
	for _, s := range model.ValidStatuses {
		if s == status {
			return true
		}
	}
	return false
}
