package errors

import "errors"

var (
	ErrNotFound               = errors.New("resource not found")
	ErrAlreadyExists          = errors.New("resource already exists")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInsufficientPermission = errors.New("insufficient permission")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrQuotaExceeded          = errors.New("daily quota exceeded")
	ErrThrottled              = errors.New("too many attempts")
	ErrInfrastructure         = errors.New("infrastructure failure")
	ErrNotConfigured          = errors.New("service not configured")
	ErrAlreadyVerified        = errors.New("account already verified")
	ErrNotVerified            = errors.New("account not verified")
)

type Error struct {
	Err     error
	Message string
	Code    string
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
		Code:    "INTERNAL_ERROR",
	}
}

// Infra marks a storage or network failure. Callers must treat it as a deny.
func Infra(err error, message string) *Error {
	return &Error{
		Err:     &infraError{cause: err},
		Message: message,
		Code:    "INFRASTRUCTURE_ERROR",
	}
}

// Invalid reports a ValidationFailure with a caller-facing message.
func Invalid(message string) *Error {
	return &Error{
		Err:     ErrInvalidInput,
		Message: message,
		Code:    "VALIDATION_ERROR",
	}
}

type infraError struct {
	cause error
}

func (e *infraError) Error() string {
	if e.cause == nil {
		return ErrInfrastructure.Error()
	}
	return e.cause.Error()
}

func (e *infraError) Is(target error) bool {
	return target == ErrInfrastructure
}

func (e *infraError) Unwrap() error {
	return e.cause
}
