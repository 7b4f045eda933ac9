package errors

import (
	stderrors "errors"
	"fmt"
)

// Sentinel errors raised by sheet validation and historical lookups.
// Validation failures surface before consolidation proceeds so a bad
// row can never contaminate statistics downstream.
var (
	ErrDuplicateName    = stderrors.New("duplicate student name in subject sheet")
	ErrInvalidMark      = stderrors.New("mark outside valid range")
	ErrEmptyInput       = stderrors.New("no data to analyze")
	ErrSnapshotNotFound = stderrors.New("exam snapshot not found")
	ErrInputTooLarge    = stderrors.New("input exceeds maximum row count")
)

// DuplicateNameError reports the same raw name appearing twice in one
// subject sheet.
type DuplicateNameError struct {
	Subject string
	Name    string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate student name %q in subject %q", e.Name, e.Subject)
}

func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

// NewDuplicateNameError creates a duplicate name validation error.
func NewDuplicateNameError(subject, name string) *DuplicateNameError {
	return &DuplicateNameError{Subject: subject, Name: name}
}

// InvalidMarkError reports a mark outside the configured valid range.
type InvalidMarkError struct {
	Subject string
	Name    string
	Mark    float64
	Min     float64
	Max     float64
}

func (e *InvalidMarkError) Error() string {
	return fmt.Sprintf("invalid mark %.2f for %q in subject %q: valid range is [%.2f, %.2f]",
		e.Mark, e.Name, e.Subject, e.Min, e.Max)
}

func (e *InvalidMarkError) Unwrap() error { return ErrInvalidMark }

// NewInvalidMarkError creates an out-of-range mark validation error.
func NewInvalidMarkError(subject, name string, mark, min, max float64) *InvalidMarkError {
	return &InvalidMarkError{Subject: subject, Name: name, Mark: mark, Min: min, Max: max}
}

// IsValidation reports whether err is one of the table-level validation
// failures the caller is expected to catch and re-prompt on.
func IsValidation(err error) bool {
	return stderrors.Is(err, ErrDuplicateName) ||
		stderrors.Is(err, ErrInvalidMark) ||
		stderrors.Is(err, ErrEmptyInput) ||
		stderrors.Is(err, ErrInputTooLarge)
}
