package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	// Validation family: a required field is missing or malformed. No state
	// change has occurred when one of these is returned.
	ErrInvalidDate        ErrorCode = "INVALID_DATE"
	ErrInvalidAmount      ErrorCode = "INVALID_AMOUNT"
	ErrInvalidMethod      ErrorCode = "INVALID_METHOD"
	ErrMissingBankAccount ErrorCode = "MISSING_BANK_ACCOUNT"
	ErrMissingCheckNumber ErrorCode = "MISSING_CHECK_NUMBER"
	ErrMissingReason      ErrorCode = "MISSING_REASON"
	ErrValidation         ErrorCode = "VALIDATION_ERROR"

	ErrObligationNotEligible ErrorCode = "OBLIGATION_NOT_ELIGIBLE"
	ErrInvalidTransition     ErrorCode = "INVALID_TRANSITION"
	ErrNotFound              ErrorCode = "NOT_FOUND"
	ErrConcurrencyConflict   ErrorCode = "CONCURRENCY_CONFLICT"
	ErrForbidden             ErrorCode = "FORBIDDEN"
	ErrTransient             ErrorCode = "TRANSIENT"
	ErrInternal              ErrorCode = "INTERNAL"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

func (e AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code ErrorCode, message string) AppError {
	return AppError{Code: code, Message: message}
}

func Newf(code ErrorCode, format string, args ...any) AppError {
	return AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func WithDetails(code ErrorCode, message string, details any) AppError {
	return AppError{Code: code, Message: message, Details: details}
}

// CodeOf extracts the error code, or ErrInternal for untyped errors.
func CodeOf(err error) ErrorCode {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

func HTTPStatus(err error) int {
	var appErr AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConcurrencyConflict, ErrInvalidTransition:
		return http.StatusConflict
	case ErrForbidden:
		return http.StatusForbidden
	case ErrObligationNotEligible:
		return http.StatusUnprocessableEntity
	case ErrTransient:
		return http.StatusServiceUnavailable
	case ErrInvalidDate, ErrInvalidAmount, ErrInvalidMethod,
		ErrMissingBankAccount, ErrMissingCheckNumber, ErrMissingReason,
		ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
