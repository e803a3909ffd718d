// Package errs classifies the failures raised by the relation and dispatch
// cores.
//
// Three classes exist:
//   - Configuration: relation keys cannot be determined, a command or query
//     has no handler, a registry is frozen. Fatal to the single operation.
//   - Storage: the underlying query or mutation failed. The driver error is
//     wrapped unchanged so callers can still errors.As it.
//   - NotFound: a lookup by primary key matched no row.
//
// Emitting an event nobody listens to and naming an unknown notification
// channel are not errors at all.
package errs

import (
	"errors"
	"fmt"
)

// Class represents the classification of an error.
type Class int

const (
	// Configuration errors are caused by missing or invalid setup.
	Configuration Class = iota + 1
	// Storage errors come from the storage collaborator.
	Storage
	// NotFound errors report a missing record.
	NotFound
)

// String returns the string representation of Class.
func (c Class) String() string {
	switch c {
	case Configuration:
		return "configuration"
	case Storage:
		return "storage"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Sentinel errors shared across packages.
var (
	ErrFrozen        = errors.New("registry is frozen")
	ErrImmutableKey  = errors.New("primary key is immutable once persisted")
	ErrMissingKey    = errors.New("key attribute is not set")
	ErrInvalidSchema = errors.New("invalid schema")
	ErrNotFound      = errors.New("record not found")
)

// ClassifiedError wraps an error with its classification and the operation
// that produced it.
type ClassifiedError struct {
	Class Class
	Op    string
	Err   error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Class, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Class, e.Err)
}

// Unwrap returns the underlying error.
func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Configf creates a Configuration error with a formatted message.
// A %w verb in format is honored.
func Configf(op, format string, args ...any) error {
	return &ClassifiedError{Class: Configuration, Op: op, Err: fmt.Errorf(format, args...)}
}

// Config wraps err as a Configuration error.
func Config(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Class: Configuration, Op: op, Err: err}
}

// Store wraps err as a Storage error. The original error stays reachable
// through errors.As and errors.Is.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) && ce.Class == Storage {
		return err
	}
	return &ClassifiedError{Class: Storage, Op: op, Err: err}
}

// NotFoundf creates a NotFound error wrapping ErrNotFound.
func NotFoundf(op, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return &ClassifiedError{Class: NotFound, Op: op, Err: fmt.Errorf("%s: %w", msg, ErrNotFound)}
}

// ClassOf returns the class of err, or 0 when err is not classified.
func ClassOf(err error) Class {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}
	return 0
}

// IsConfiguration reports whether err is a Configuration error.
func IsConfiguration(err error) bool {
	return err != nil && ClassOf(err) == Configuration
}

// IsStorage reports whether err is a Storage error.
func IsStorage(err error) bool {
	return err != nil && ClassOf(err) == Storage
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	return err != nil && (ClassOf(err) == NotFound || errors.Is(err, ErrNotFound))
}
