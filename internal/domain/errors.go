package domain

import "fmt"

// Domain errors
var (
	ErrInvalidStatus      = &RegistrationError{Code: "INVALID_REQUEST_DATA", Message: "requested competing status is not recognized"}
	ErrMissingEvents      = &RegistrationError{Code: "INVALID_EVENT_SELECTION", Message: "registration must include at least one event"}
	ErrNotFound           = &RegistrationError{Code: "REGISTRATION_NOT_FOUND", Message: "no registration for this competitor and competition"}
	ErrPermissionDenied   = &RegistrationError{Code: "USER_INSUFFICIENT_PERMISSIONS", Message: "actor is not allowed to perform this action"}
	ErrDuplicateRequest   = &RegistrationError{Code: "DUPLICATE_REQUEST", Message: "request with the same deduplication key already processed"}
	ErrStorageConflict    = &RegistrationError{Code: "STORAGE_CONFLICT", Message: "concurrent write lost the race"}
	ErrTransientFailure   = &RegistrationError{Code: "TRANSIENT_FAILURE", Message: "update could not be committed after retries"}
	ErrCommentTooLong     = &RegistrationError{Code: "COMMENT_TOO_LONG", Message: "comment exceeds the allowed length"}
	ErrInvalidGuestCount  = &RegistrationError{Code: "INVALID_GUEST_COUNT", Message: "guest count must not be negative"}
	ErrRegistrationExists = &RegistrationError{Code: "REGISTRATION_EXISTS", Message: "registration already exists for this competitor and competition"}
	ErrRegistrationClosed = &RegistrationError{Code: "REGISTRATION_CLOSED", Message: "registration for this competition is not open"}
	ErrPaymentNotEnabled  = &RegistrationError{Code: "PAYMENT_NOT_ENABLED", Message: "competition does not collect payments"}
	ErrPaymentNotReady    = &RegistrationError{Code: "PAYMENT_NOT_READY", Message: "registration is not ready for payment"}
)

// RegistrationError is a domain-level error with a stable machine code.
type RegistrationError struct {
	Code    string
	Message string
}

func (e *RegistrationError) Error() string {
	return e.Message
}

// BadRequestError marks a structurally malformed request item, e.g. a bulk
// update entry with no resolvable user id.
type BadRequestError struct {
	Reason string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("malformed request: %s", e.Reason)
}
