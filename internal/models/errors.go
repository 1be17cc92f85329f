package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of failure categories the API reports.
// Every error that crosses a handler boundary carries exactly one kind.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation_error"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindQuotaExceeded   ErrorKind = "quota_exceeded"
	KindRateLimited     ErrorKind = "rate_limited"
	KindTransport       ErrorKind = "transport_error"
	KindUpstream        ErrorKind = "upstream_error"
	KindInvalidInput    ErrorKind = "invalid_input"
	KindPayloadTooLarge ErrorKind = "payload_too_large"
	KindStorage         ErrorKind = "storage_error"
	KindNotFound        ErrorKind = "not_found"
	KindCancelled       ErrorKind = "cancelled"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the error kind, defaulting to KindStorage for untagged
// errors so persistence failures surface generically rather than leaking.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Retryable reports whether the caller may usefully retry the same input.
func (k ErrorKind) Retryable() bool {
	return k == KindRateLimited || k == KindTransport
}

// HTTPStatus maps an error kind to a response status. Handlers apply this
// mapping once; nothing else inspects error strings.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindQuotaExceeded, KindRateLimited:
		return http.StatusTooManyRequests
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	case KindCancelled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}
