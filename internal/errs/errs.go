// Package errs holds the error taxonomy shared by the repositories, the
// reconciliation engine and the HTTP layer.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSyncConflict is reserved for concurrent-write detection. Writes are
	// last-write-wins, so nothing produces it today.
	ErrSyncConflict = errors.New("sync conflict")
)

// ValidationError reports a missing or malformed field. It is raised before
// any remote call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}

	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RepositoryError wraps a failed remote call (network, permission, quota).
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

func Repository(op string, err error) error {
	if err == nil {
		return nil
	}

	return &RepositoryError{Op: op, Err: err}
}

func IsRepository(err error) bool {
	var re *RepositoryError
	return errors.As(err, &re)
}

// MalformedDocumentError is returned when a stored document cannot be decoded
// into its record type.
type MalformedDocumentError struct {
	Collection string
	ID         string
	Field      string
	Reason     string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed %s document %s: field %q %s", e.Collection, e.ID, e.Field, e.Reason)
}

func IsMalformed(err error) bool {
	var me *MalformedDocumentError
	return errors.As(err, &me)
}
