// Package errors provides consolidated error definitions for the project.
//
// This file provides:
// - Sentinel errors for all error conditions
// - Error category checking functions
// - Error wrapping utilities
// - A ValidationErrors collector for configuration checking
package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel errors for common conditions
// ============================================================================

var (
	// Configuration errors
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrInvalidWorkers = errors.New("worker count must be positive")
	ErrInvalidFormat  = errors.New("invalid output format")
	ErrMissingField   = errors.New("missing required field")

	// Ingestion errors
	ErrMalformedRow   = errors.New("malformed input row")
	ErrMissingColumn  = errors.New("missing required column")
	ErrEmptyDataset   = errors.New("empty dataset")
	ErrInvalidMetric  = errors.New("invalid metric name")
	ErrStationUnknown = errors.New("station not found")

	// Processing errors
	ErrQueueDrained    = errors.New("work queue drained")
	ErrDuplicateResult = errors.New("duplicate result for partition")
	ErrPartitionPanic  = errors.New("panic during partition analysis")

	// Storage errors
	ErrStoreClosed  = errors.New("run store is closed")
	ErrRunNotFound  = errors.New("run not found")
	ErrWriterClosed = errors.New("writer is closed")
)

// ============================================================================
// Helper functions for error checking
// ============================================================================

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// IsValidation returns true if err is a configuration/validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidWorkers) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrMissingField)
}

// IsIngestion returns true if err is an ingestion error.
func IsIngestion(err error) bool {
	return errors.Is(err, ErrMalformedRow) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrEmptyDataset)
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ============================================================================
// Error constructors with context
// ============================================================================

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// NewMalformedRow creates a malformed row error carrying the line number.
func NewMalformedRow(line int, reason string) error {
	return fmt.Errorf("line %d: %s: %w", line, reason, ErrMalformedRow)
}

// ============================================================================
// Validation Errors Collection
// ============================================================================

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []error
}

// NewValidationErrors creates a new ValidationErrors collector.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

// Add adds an error to the collection.
func (v *ValidationErrors) Add(err error) {
	if err != nil {
		v.Errors = append(v.Errors, err)
	}
}

// AddField adds a field validation error.
func (v *ValidationErrors) AddField(field, reason string) {
	v.Errors = append(v.Errors, NewValidation(field, reason))
}

// AddMissing adds a missing field error.
func (v *ValidationErrors) AddMissing(field string) {
	v.Errors = append(v.Errors, NewMissingField(field))
}

// HasErrors returns true if there are any errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}

	msg := fmt.Sprintf("validation failed with %d errors:", len(v.Errors))
	for _, err := range v.Errors {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Err returns nil if no errors, otherwise returns the ValidationErrors.
func (v *ValidationErrors) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v
}

// Unwrap exposes the collected errors for errors.Is/As support.
func (v *ValidationErrors) Unwrap() []error {
	return v.Errors
}
