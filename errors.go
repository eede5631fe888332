package relq

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common failure classes.
var (
	// ErrNotFound is returned when a required operation matched zero rows.
	ErrNotFound = errors.New("relq: no rows found")

	// ErrConfiguration is returned for schema misconfiguration detected at
	// query construction time.
	ErrConfiguration = errors.New("relq: configuration error")

	// ErrUsage is returned for programming errors at the call site,
	// detected before any statement is executed.
	ErrUsage = errors.New("relq: usage error")
)

// ConfigurationError reports schema misconfiguration detected when a query
// is constructed: missing model, model without a table, or a model without
// an identity field. Fatal to the call; never retried.
type ConfigurationError struct {
	Model  string
	Reason string
}

// Error returns the error string.
func (e *ConfigurationError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("relq: configuration: %s", e.Reason)
	}
	return fmt.Sprintf("relq: configuration: model %s: %s", e.Model, e.Reason)
}

// Is reports whether the target matches ErrConfiguration.
func (e *ConfigurationError) Is(err error) bool {
	return err == ErrConfiguration
}

func newConfigurationError(model, reason string) *ConfigurationError {
	return &ConfigurationError{Model: model, Reason: reason}
}

// IsConfiguration returns true if err is a ConfigurationError.
func IsConfiguration(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigurationError
	return errors.As(err, &e) || errors.Is(err, ErrConfiguration)
}

// UsageError reports a programming error at the call site: an unknown or
// cross-model field, joining models with no reference path, or executing a
// query that is attached as a join child. Raised before any I/O.
type UsageError struct {
	Model  string
	Field  string
	Reason string
}

// Error returns the error string.
func (e *UsageError) Error() string {
	switch {
	case e.Model != "" && e.Field != "":
		return fmt.Sprintf("relq: usage: model %s has no field %q: %s", e.Model, e.Field, e.Reason)
	case e.Model != "":
		return fmt.Sprintf("relq: usage: model %s: %s", e.Model, e.Reason)
	default:
		return fmt.Sprintf("relq: usage: %s", e.Reason)
	}
}

// Is reports whether the target matches ErrUsage.
func (e *UsageError) Is(err error) bool {
	return err == ErrUsage
}

func newUsageError(model, field, reason string) *UsageError {
	return &UsageError{Model: model, Field: field, Reason: reason}
}

// IsUsage returns true if err is a UsageError.
func IsUsage(err error) bool {
	if err == nil {
		return false
	}
	var e *UsageError
	return errors.As(err, &e) || errors.Is(err, ErrUsage)
}

// OperationError reports a failed execute call for one verb. It wraps the
// underlying driver error as its cause and carries the query that failed.
// No retry policy is applied; callers may retry at a higher level.
type OperationError struct {
	Op    Operation
	Query *Query
	cause error
}

// Error returns the error string.
func (e *OperationError) Error() string {
	return fmt.Sprintf("relq: %s %s failed: %v", e.Op, e.label(), e.cause)
}

// Unwrap returns the underlying driver error.
func (e *OperationError) Unwrap() error {
	return e.cause
}

func (e *OperationError) label() string {
	if e.Query != nil && e.Query.model != nil {
		return e.Query.model.Name
	}
	return "query"
}

func newOperationError(op Operation, q *Query, cause error) *OperationError {
	return &OperationError{Op: op, Query: q, cause: cause}
}

// IsOperation returns true if err is an OperationError.
func IsOperation(err error) bool {
	if err == nil {
		return false
	}
	var e *OperationError
	return errors.As(err, &e)
}

// RowsNotFoundError is raised only when Require is set and an otherwise
// successful operation produced zero rows. It is a result-shape error, not
// a driver error, and carries no underlying cause. Singular is keyed on
// First: a first-fetch that finds nothing reports the singular variant.
type RowsNotFoundError struct {
	Op       Operation
	Model    string
	Singular bool
}

// Error returns the error string.
func (e *RowsNotFoundError) Error() string {
	if e.Singular {
		return fmt.Sprintf("relq: %s %s: row not found", e.Op, e.Model)
	}
	return fmt.Sprintf("relq: %s %s: rows not found", e.Op, e.Model)
}

// Is reports whether the target matches ErrNotFound.
func (e *RowsNotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

func newRowsNotFoundError(op Operation, model string, singular bool) *RowsNotFoundError {
	return &RowsNotFoundError{Op: op, Model: model, Singular: singular}
}

// IsNotFound returns true if the error is a RowsNotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *RowsNotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}
