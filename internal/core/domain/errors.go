package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown document type or store backend.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnknownEntity indicates a relation entity with no registered schema.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrInvalidConfiguration indicates a schema or settings value that cannot be used.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrResolution indicates the store failed to resolve a document reference.
	ErrResolution = errors.New("resolution failed")
)

// ValidationError reports the first violation found while validating raw
// stored data against an entity schema.
type ValidationError struct {
	// Entity is the schema being validated ("doc" for documents).
	Entity string

	// Field is the offending field path, empty for record-level failures.
	Field string

	// Reason describes the violation.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validate %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("validate %s: field %q: %s", e.Entity, e.Field, e.Reason)
}

// Unwrap lets callers match validation failures with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a ValidationError.
func NewValidationError(entity, field, reason string) *ValidationError {
	return &ValidationError{Entity: entity, Field: field, Reason: reason}
}

// ResolutionError wraps a store failure encountered while resolving a reference.
// A reference that simply points nowhere is not a ResolutionError.
type ResolutionError struct {
	Ref DocumentRef
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Ref, e.Err)
}

// Unwrap returns the underlying store error.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is matches ErrResolution.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// ConfigurationError is raised when a schema is registered with a shape the
// pipeline cannot support. It only ever surfaces at startup.
type ConfigurationError struct {
	Entity string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configure %s: %s", e.Entity, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidConfiguration).
func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}
