package errors

import (
	stderrors "errors"
	"net/http"
	"time"
)

// License-specific error types. These map one-to-one to the machine-readable
// reasons the licensed client acts on, so the strings are part of the API.
const (
	ErrorTypeInvalidKey     ErrorType = "INVALID_KEY"
	ErrorTypeKeyAlreadyUsed ErrorType = "KEY_ALREADY_USED"
	ErrorTypeHWIDMismatch   ErrorType = "HWID_MISMATCH"
	ErrorTypeResetRateLimit ErrorType = "RESET_RATE_LIMITED"
	ErrorTypeRevoked        ErrorType = "REVOKED"
	ErrorTypeExpired        ErrorType = "EXPIRED"
	ErrorTypeNotLicensed    ErrorType = "NOT_LICENSED"
	ErrorTypeTimeout        ErrorType = "TIMEOUT"
)

// ErrConcurrentModification is returned by the ledger when a conditional
// write loses the version race. Callers re-read, recompute and re-write.
var ErrConcurrentModification = stderrors.New("concurrent modification")

// NewExtensionConflictError signals that the bounded retry loop around a
// license mutation exhausted its attempts. Transient; the caller may retry
// the whole request.
func NewExtensionConflictError() *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: "license is being modified concurrently, please retry",
		Code:    http.StatusConflict,
		Details: "EXTENSION_CONFLICT",
	}
}

// NewTimeoutError reports an operation that exceeded its bounded wait.
// Transient; the caller should retry the whole request later.
func NewTimeoutError() *AppError {
	return &AppError{
		Type:    ErrorTypeTimeout,
		Message: "operation timed out, please retry",
		Code:    http.StatusGatewayTimeout,
	}
}

// NewInvalidKeyError reports a malformed or unknown activation key.
func NewInvalidKeyError(details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    ErrorTypeInvalidKey,
		Message: "activation key is invalid",
		Code:    http.StatusBadRequest,
		Details: detail,
	}
}

// NewKeyAlreadyUsedError reports an activation key that has been consumed.
func NewKeyAlreadyUsedError() *AppError {
	return &AppError{
		Type:    ErrorTypeKeyAlreadyUsed,
		Message: "activation key has already been used",
		Code:    http.StatusConflict,
	}
}

// NewHWIDMismatchError reports a heartbeat from a machine other than the
// bound one. Hard denial; the client must go through the reset flow.
func NewHWIDMismatchError() *AppError {
	return &AppError{
		Type:    ErrorTypeHWIDMismatch,
		Message: "license is bound to a different machine",
		Code:    http.StatusForbidden,
	}
}

// ResetRateLimitedError is a policy denial carrying the time at which the
// next hardware reset becomes available.
type ResetRateLimitedError struct {
	*AppError
	AvailableAt time.Time
}

func (e *ResetRateLimitedError) Unwrap() error {
	return e.AppError
}

// NewResetRateLimitedError reports that the rolling hardware-reset window
// has not elapsed yet.
func NewResetRateLimitedError(availableAt time.Time) *ResetRateLimitedError {
	return &ResetRateLimitedError{
		AppError: &AppError{
			Type:    ErrorTypeResetRateLimit,
			Message: "hardware reset is rate limited",
			Code:    http.StatusTooManyRequests,
			Details: "next reset available at " + availableAt.UTC().Format(time.RFC3339),
		},
		AvailableAt: availableAt,
	}
}

// GetResetRateLimitedError extracts a ResetRateLimitedError from an error chain.
func GetResetRateLimitedError(err error) *ResetRateLimitedError {
	var rlErr *ResetRateLimitedError
	if stderrors.As(err, &rlErr) {
		return rlErr
	}
	return nil
}
