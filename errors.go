package persistence

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrUndefinedClause is returned when merging into a clause that was never set.
	ErrUndefinedClause = errors.New("persistence: clause not defined")

	// ErrUnknownClause is returned for a clause name outside the clause vocabulary.
	ErrUnknownClause = errors.New("persistence: unknown clause")

	// ErrReferenceDefined is returned when a field declares a second foreign reference.
	ErrReferenceDefined = errors.New("persistence: relationship already defined")

	// ErrUnsupportedType is returned for a field type outside the supported set.
	ErrUnsupportedType = errors.New("persistence: type not supported")

	// ErrNoDriver is returned when an engine has no usable driver.
	ErrNoDriver = errors.New("persistence: can't use the driver")

	// ErrUnsupportedField is returned when a column spec has a shape the solver can't render.
	ErrUnsupportedField = errors.New("persistence: unsupported field")

	// ErrUnknownRule is returned when a filter rule is not registered for the active dialect.
	ErrUnknownRule = errors.New("persistence: can't resolve filter rule")

	// ErrInvalidModifier is returned when a clause value can't be rendered by its modifier.
	ErrInvalidModifier = errors.New("persistence: invalid modifier")

	// ErrMissingClause is returned when a statement lacks a mandatory clause.
	ErrMissingClause = errors.New("persistence: missing clause")

	// ErrTxNotStarted is returned by commit or rollback on a connection without a transaction.
	ErrTxNotStarted = errors.New("persistence: transaction not started")
)

// Relationship is the detail reported for a column whose foreign-key constraint failed.
const Relationship = "relationship"

// ConfigError represents a configuration problem surfaced immediately to the caller.
type ConfigError struct {
	Subject string // Setting, clause, or field the error refers to
	Err     error  // Underlying error
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("persistence: configuration: %v", e.Err)
	}
	return fmt.Sprintf("persistence: configuration %q: %v", e.Subject, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError returns a new ConfigError.
func NewConfigError(subject string, err error) *ConfigError {
	return &ConfigError{Subject: subject, Err: err}
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}

// CompileError represents a failure to render clauses into SQL.
// No statement reaches the connection when it is returned.
type CompileError struct {
	Clause string // Clause being rendered (e.g., "where", "fields")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *CompileError) Error() string {
	return fmt.Sprintf("persistence: compile %s: %v", e.Clause, e.Err)
}

// Unwrap returns the underlying error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// NewCompileError returns a new CompileError.
func NewCompileError(clause string, err error) *CompileError {
	return &CompileError{Clause: clause, Err: err}
}

// IsCompileError returns true if the error is a CompileError.
func IsCompileError(err error) bool {
	if err == nil {
		return false
	}
	var e *CompileError
	return errors.As(err, &e)
}

// PersistenceError wraps a failure raised by the connection while running a statement.
type PersistenceError struct {
	Op      string              // Operation (e.g., "create", "read", "run")
	SQL     string              // Statement text
	Args    []any               // Statement parameters
	Details map[string][]string // Structured details, e.g. {"customer_id": ["relationship"]}
	Err     error               // Underlying driver error
}

// Error returns the error string.
func (e *PersistenceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "persistence: %s: %q %v", e.Op, e.SQL, e.Args)
	if len(e.Details) > 0 {
		fmt.Fprintf(&b, " %v", e.Details)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError returns a new PersistenceError.
func NewPersistenceError(op, sql string, args []any, err error) *PersistenceError {
	return &PersistenceError{Op: op, SQL: sql, Args: args, Err: err}
}

// IsPersistenceError returns true if the error is a PersistenceError.
func IsPersistenceError(err error) bool {
	if err == nil {
		return false
	}
	var e *PersistenceError
	return errors.As(err, &e)
}

// RelationshipField returns the column whose foreign-key constraint failed, if any.
func RelationshipField(err error) (string, bool) {
	var e *PersistenceError
	if !errors.As(err, &e) {
		return "", false
	}
	for name, details := range e.Details {
		for _, d := range details {
			if d == Relationship {
				return name, true
			}
		}
	}
	return "", false
}

// DataError is returned when a statement ran but the driver could not
// report a valid outcome for it.
type DataError struct {
	Op   string
	SQL  string
	Args []any
	Err  error
}

// Error returns the error string.
func (e *DataError) Error() string {
	return fmt.Sprintf("persistence: %s: invalid outcome for %q %v: %v", e.Op, e.SQL, e.Args, e.Err)
}

// Unwrap returns the underlying error.
func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError returns a new DataError.
func NewDataError(op, sql string, args []any, err error) *DataError {
	return &DataError{Op: op, SQL: sql, Args: args, Err: err}
}

// IsDataError returns true if the error is a DataError.
func IsDataError(err error) bool {
	if err == nil {
		return false
	}
	var e *DataError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Key string // Connection key in the unit of work
	Err error
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("persistence: rollback %s failed: %v", e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "persistence: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("persistence: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors, so errors.Is and errors.As see every one of them.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
