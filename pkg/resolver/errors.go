package resolver

import "fmt"

// ErrorKind classifies resolution failures. Every kind is fatal to the
// schema it occurs in; batch drivers decide whether siblings continue.
type ErrorKind string

const (
	KindSchema                 ErrorKind = "schema"
	KindUnresolvedReference    ErrorKind = "unresolved-reference"
	KindConflictingRequirement ErrorKind = "conflicting-requirement"
	KindTypeMismatch           ErrorKind = "type-mismatch"
	KindInsufficientDefault    ErrorKind = "insufficient-default-values"
	KindExcessDefault          ErrorKind = "excess-default-values"
)

// Error is a structured resolution error carrying the offending field.
type Error struct {
	Kind  ErrorKind
	Field string
	Msg   string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("resolver: %s", e.Msg)
	}
	return fmt.Sprintf("resolver: field %q: %s", e.Field, e.Msg)
}

// IsLayout reports whether the error came from default materialization.
func (e *Error) IsLayout() bool {
	return e.Kind == KindInsufficientDefault || e.Kind == KindExcessDefault
}

func schemaErrf(field, format string, args ...any) *Error {
	return &Error{Kind: KindSchema, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func unresolvedErrf(field, format string, args ...any) *Error {
	return &Error{Kind: KindUnresolvedReference, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func conflictErrf(field, format string, args ...any) *Error {
	return &Error{Kind: KindConflictingRequirement, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func mismatchErrf(field, format string, args ...any) *Error {
	return &Error{Kind: KindTypeMismatch, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func layoutErrf(kind ErrorKind, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Msg: fmt.Sprintf(format, args...)}
}
