// Package errs defines the error kinds shared by every domain package.
//
// Domain packages declare sentinel errors with the constructors below so the
// HTTP layer can map them to a status code without knowing the domain.
package errs

import (
	"errors"
	"sort"
	"strings"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is a typed domain error. Code is a stable snake_case identifier.
type Error struct {
	Kind   Kind
	Code   string
	Fields map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Code
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Code + " (" + strings.Join(parts, ", ") + ")"
}

// Is matches on kind and code so that a sentinel matches a copy carrying fields.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func Validation(code string) *Error { return &Error{Kind: KindValidation, Code: code} }
func NotFound(code string) *Error   { return &Error{Kind: KindNotFound, Code: code} }
func Conflict(code string) *Error   { return &Error{Kind: KindConflict, Code: code} }
func Forbidden(code string) *Error  { return &Error{Kind: KindForbidden, Code: code} }

func Unauthorized(code string) *Error { return &Error{Kind: KindUnauthorized, Code: code} }

// WithField returns a copy of e carrying a field-level detail.
func (e *Error) WithField(field, msg string) *Error {
	fields := make(map[string]string, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields[field] = msg
	return &Error{Kind: e.Kind, Code: e.Code, Fields: fields}
}

// KindOf reports the kind of err. Untyped errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the typed error, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
