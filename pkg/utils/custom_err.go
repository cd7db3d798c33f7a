package utils

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the service layer wraps exactly one of these,
// so callers can switch on errors.Is without knowing the concrete code.
var (
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrExternalFailure = errors.New("external failure")
	ErrLimitExceeded   = errors.New("limit exceeded")
	ErrDatabaseError   = errors.New("database error")
)

// Stable error codes surfaced to API clients.
const (
	CodeSubscriptionExists    = "subscription_exists"
	CodeSubscriptionNotFound  = "subscription_not_found"
	CodePlanNotFound          = "plan_not_found"
	CodeFreePlanMissing       = "free_plan_missing"
	CodeNotificationNotFound  = "notification_not_found"
	CodeInvalidTrialDays      = "invalid_trial_days"
	CodeInvalidExtensionDays  = "invalid_extension_days"
	CodeNotTrialing           = "subscription_not_trialing"
	CodeInvalidTransition     = "invalid_transition"
	CodeInvalidResourceType   = "invalid_resource_type"
	CodeInvalidRequest        = "invalid_request"
	CodeLimitExceeded         = "limit_exceeded"
	CodePaymentConfirmation   = "payment_confirmation_failed"
	CodeNotificationDelivery  = "notification_delivery_failed"
	CodeSweepInProgress       = "sweep_in_progress"
	CodeDatabase              = "database_error"
	CodeInternal              = "internal_error"
)

type AppError struct {
	Kind    error
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newAppError(kind error, code, message string, err error) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, Err: err}
}

func Conflict(code, message string) error {
	return newAppError(ErrConflict, code, message, nil)
}

func NotFound(code, message string) error {
	return newAppError(ErrNotFound, code, message, nil)
}

func Validation(code, message string) error {
	return newAppError(ErrValidation, code, message, nil)
}

func ExternalFailure(code, message string, err error) error {
	return newAppError(ErrExternalFailure, code, message, err)
}

func LimitExceeded(message string) error {
	return newAppError(ErrLimitExceeded, CodeLimitExceeded, message, nil)
}

// DatabaseError wraps a storage failure. Already-typed errors pass through untouched
// so a NotFound raised inside a transaction is not downgraded to a 500.
func DatabaseError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return newAppError(ErrDatabaseError, CodeDatabase, "database operation failed", err)
}

// ErrorCode returns the stable code carried by err, or CodeInternal.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
