package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindForbidden  ErrorKind = "forbidden"
	KindExternal   ErrorKind = "external"
	KindInternal   ErrorKind = "internal"
)

// AppError is the error every service returns across its public boundary.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetail attaches one machine-readable detail and returns e.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

func NewValidationError(msg string) *AppError {
	return &AppError{Kind: KindValidation, Code: "VALIDATION_FAILED", Message: msg}
}

func NewNotFoundError(code, msg string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: msg}
}

func NewConflictError(code, msg string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: msg}
}

func NewForbiddenError(msg string) *AppError {
	return &AppError{Kind: KindForbidden, Code: "FORBIDDEN", Message: msg}
}

func NewExternalError(msg string, err error) *AppError {
	return &AppError{Kind: KindExternal, Code: "EXTERNAL_SERVICE", Message: msg, Err: err}
}

func NewInternalError(msg string, err error) *AppError {
	return &AppError{Kind: KindInternal, Code: "INTERNAL", Message: msg, Err: err}
}

// KindOf returns the kind of err, treating unknown errors as internal.
func KindOf(err error) ErrorKind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Kind == kind
}

// HTTPStatus maps an error kind onto a response status.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
