// Package apperr defines the error kinds surfaced to CLI commands.
//
// Failures that leave a service are ParseError, DuplicateEntityError,
// NotFoundError or StorageError, plus ValidationError for bad operator input.
// Callers branch on kind with the Is* helpers, which unwrap through
// fmt.Errorf("%w") chains.
package apperr

import (
	"errors"
	"fmt"
)

// ParseError reports a statement that could not be turned into transactions.
type ParseError struct {
	Source string
	Line   int // 0 when the error concerns the whole statement
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %s", e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("parse %s: %s", e.Source, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError builds a statement-level ParseError.
func NewParseError(source, reason string, err error) error {
	return &ParseError{Source: source, Reason: reason, Err: err}
}

// DuplicateEntityError reports a uniqueness violation.
type DuplicateEntityError struct {
	Entity string
	Field  string
	Value  string
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

// NewDuplicate builds a DuplicateEntityError.
func NewDuplicate(entity, field, value string) error {
	return &DuplicateEntityError{Entity: entity, Field: field, Value: value}
}

// NotFoundError reports a reference to an unknown entity.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// NewNotFound builds a NotFoundError.
func NewNotFound(entity, key string) error {
	return &NotFoundError{Entity: entity, Key: key}
}

// ValidationError reports operator input rejected before touching the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StorageError reports that the underlying store failed. It is fatal for the
// running command.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError. A nil err stays nil, and errors that
// already carry a kind are returned untouched.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDuplicate(err) || IsNotFound(err) || IsStorage(err) || IsValidation(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func IsParse(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

func IsDuplicate(err error) bool {
	var target *DuplicateEntityError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsStorage(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
