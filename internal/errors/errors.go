// Package errors defines the pipeline error taxonomy.
//
// Schema and integrity errors are fatal: they indicate that an input contract
// was violated, and any output computed from such input would be
// untrustworthy. They propagate to the top and abort the run. Per-group
// estimation problems are not represented here at all; the estimators log and
// skip those groups locally.
package errors

import (
	"errors"
	"fmt"
)

// SchemaError reports a required field that is absent from an input feed, or
// a value (typically a date) that cannot be parsed. It is raised at ingest,
// never deep inside a computation.
type SchemaError struct {
	Source string // input feed the problem came from, e.g. "match_calendar"
	Field  string // canonical field name
	Reason string
}

// NewSchemaError creates a SchemaError for the given feed and field.
func NewSchemaError(source, field, reason string) *SchemaError {
	return &SchemaError{Source: source, Field: field, Reason: reason}
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error in %s: field %q: %s", e.Source, e.Field, e.Reason)
}

// IntegrityError reports duplicate merge keys where uniqueness is required,
// or an empty table where a non-empty result is mandatory.
type IntegrityError struct {
	Table  string
	Reason string
}

// NewIntegrityError creates an IntegrityError for the given table.
func NewIntegrityError(table, reason string) *IntegrityError {
	return &IntegrityError{Table: table, Reason: reason}
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity error in %s: %s", e.Table, e.Reason)
}

// IsSchema reports whether err is, or wraps, a SchemaError.
func IsSchema(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// IsIntegrity reports whether err is, or wraps, an IntegrityError.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
