// Package apperr is the error taxonomy shared by the persistence boundary and
// the document services. Raw backend errors are translated into these types once,
// in postgres.Normalize; callers only ever use errors.As / errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a lookup by id or natural key matches nothing.
var ErrNotFound = errors.New("not found")

// ValidationError aborts an import before any write. Messages holds every problem found.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 1 {
		return "validation failed: " + e.Messages[0]
	}
	return fmt.Sprintf("validation failed (%d problems): %s", len(e.Messages), strings.Join(e.Messages, "; "))
}

// DuplicateKeyError is a unique constraint violation.
type DuplicateKeyError struct {
	Constraint string
	Err        error
}

func (e *DuplicateKeyError) Error() string {
	if e.Constraint == "" {
		return "duplicate key"
	}
	return fmt.Sprintf("duplicate key violates %q", e.Constraint)
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// IsDuplicate reports whether err is a DuplicateKeyError on constraint.
func IsDuplicate(err error, constraint string) bool {
	var dup *DuplicateKeyError
	return errors.As(err, &dup) && dup.Constraint == constraint
}

// SchemaDriftError means a column the code writes is missing in the store.
type SchemaDriftError struct {
	Table  string
	Column string
	Err    error
}

func (e *SchemaDriftError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("column %s.%s does not exist", e.Table, e.Column)
	}
	return fmt.Sprintf("column %s does not exist", e.Column)
}

func (e *SchemaDriftError) Unwrap() error { return e.Err }

// RecordError is one failed record inside a batch.
type RecordError struct {
	Key string
	Err error
}

func (e RecordError) Error() string { return e.Key + ": " + e.Err.Error() }

// PartialBatchError reports a batch where some records failed and the rest went through.
type PartialBatchError struct {
	Succeeded int
	Failed    int
	Errors    []RecordError
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("%d of %d records failed", e.Failed, e.Succeeded+e.Failed)
}

// PersistenceError is any other backend failure, surfaced verbatim.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }
