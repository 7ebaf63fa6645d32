package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Error taxonomy for the enrollment lifecycle. Controllers map these to HTTP
// statuses; anything not wrapped here is treated as transient and safe for
// the caller to retry (the transaction has already rolled back).

// ValidationError means the input was malformed. Not retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConflictError means the operation would violate an invariant
// (duplicate enrollment, quota exceeded, attempt already open). Not retried.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// NotFoundError means a referenced enrollment/attempt/lesson does not exist.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

func NewValidationError(msg string) error { return &ValidationError{Msg: msg} }
func NewConflictError(msg string) error   { return &ConflictError{Msg: msg} }
func NewNotFoundError(msg string) error   { return &NotFoundError{Msg: msg} }

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// isUniqueViolation reports whether err is a unique-constraint violation from
// any of the supported drivers. The unique indexes are the linearization
// points for the whole lifecycle, so this check is load-bearing.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || // postgres
		strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate entry") // mysql
}
