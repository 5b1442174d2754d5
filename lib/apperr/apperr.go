// Package apperr holds the error kinds the API surfaces to callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	// KindUnavailable marks a failed or timed out call to the classifier or
	// comment generator. It is recovered where the fallback is applied and
	// never reaches an HTTP response.
	KindUnavailable
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindUnavailable:
		return "collaborator unavailable"
	case KindPersistence:
		return "persistence"
	}
	return "internal"
}

func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, err error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...any) error {
	return newf(KindValidation, nil, format, args...)
}

func NotFound(format string, args ...any) error {
	return newf(KindNotFound, nil, format, args...)
}

func Conflict(format string, args ...any) error {
	return newf(KindConflict, nil, format, args...)
}

func Unauthorized(format string, args ...any) error {
	return newf(KindUnauthorized, nil, format, args...)
}

// Unavailable wraps the failure of an external model service.
func Unavailable(service string, err error) error {
	return newf(KindUnavailable, err, "%s unavailable", service)
}

func Persistence(err error, format string, args ...any) error {
	return newf(KindPersistence, err, format, args...)
}

// KindOf reports the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message is the text safe to show a client. Internal errors are not described.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Msg
	}
	return "internal server error"
}
