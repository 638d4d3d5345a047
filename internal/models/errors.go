package models

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateUsername is returned when the username is already registered
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrDuplicateCenter is returned when a center with the same address tuple exists
	ErrDuplicateCenter = errors.New("center already exists")

	// ErrAlreadyAssociated is returned when an operator is already bound to a center
	ErrAlreadyAssociated = errors.New("operator already associated with a center")

	// ErrNotAssociated is returned when an operator has no center yet
	ErrNotAssociated = errors.New("operator not associated with any center")

	// ErrInternalInconsistency marks stored data violating an invariant
	ErrInternalInconsistency = errors.New("internal data inconsistency")

	// ErrStorageUnavailable marks a failure of the underlying record store
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNoConditions is returned when a lookup is attempted without conditions
	ErrNoConditions = errors.New("at least one condition is required")
)

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}

// StorageError wraps a failure reported by the record store
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage unavailable: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrStorageUnavailable) match any StorageError
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// IsTransient returns true: the store may recover on a later call
func (e *StorageError) IsTransient() bool {
	return true
}

// NewValidationError builds a ValidationError for field
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}
