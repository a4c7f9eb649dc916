package agent

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for routing and reporting purposes.
type Kind string

const (
	KindConfig         Kind = "config_error"
	KindNotFound       Kind = "not_found"
	KindSchemaDrift    Kind = "schema_drift"
	KindProvider       Kind = "provider_failure"
	KindCompliance     Kind = "compliance_violation"
	KindEmptyIndex     Kind = "empty_index"
	KindReconstruction Kind = "reconstruction_failure"
	KindInternal       Kind = "internal_error"
)

// Error carries a Kind alongside a wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf creates a classified error.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind to an existing error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err, or KindInternal when untyped.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
