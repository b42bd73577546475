package content

import (
	"errors"
	"fmt"
)

var (
	// ErrDatabaseNotFound is returned when a database ID does not resolve.
	ErrDatabaseNotFound = errors.New("database not found")
	// ErrEntryNotFound is returned when an entry ID does not resolve.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrColumnNotFound is returned when a column ID does not resolve.
	ErrColumnNotFound = errors.New("column not found")
	// ErrViewNotFound is returned when a view ID does not resolve.
	ErrViewNotFound = errors.New("view not found")
	// ErrForbidden is returned when a database belongs to another org.
	ErrForbidden = errors.New("forbidden")

	errNameEmpty = errors.New("name is required")
)

// ColumnConfigError reports a structurally invalid column definition.
// Unlike resolution failures, which degrade to null values, it is surfaced
// immediately so a bad schema is never persisted.
type ColumnConfigError struct {
	Column string
	Reason string
}

func (e *ColumnConfigError) Error() string {
	return fmt.Sprintf("invalid config for column %q: %s", e.Column, e.Reason)
}

func invalidColumnConfig(column, format string, args ...any) error {
	return &ColumnConfigError{Column: column, Reason: fmt.Sprintf(format, args...)}
}
