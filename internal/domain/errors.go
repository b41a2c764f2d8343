package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the datachat core.
type ErrorKind string

const (
	KindNotFound                ErrorKind = "NOT_FOUND"
	KindRemoteTimeout           ErrorKind = "REMOTE_TIMEOUT"
	KindRemoteUnavailable       ErrorKind = "REMOTE_UNAVAILABLE"
	KindRemoteHTTPError         ErrorKind = "REMOTE_HTTP_ERROR"
	KindMalformedData           ErrorKind = "MALFORMED_DATA"
	KindClassificationFailed    ErrorKind = "CLASSIFICATION_FAILED"
	KindStructuredOutputInvalid ErrorKind = "STRUCTURED_OUTPUT_INVALID"
	KindSessionNotFound         ErrorKind = "SESSION_NOT_FOUND"
	KindGenerationFailed        ErrorKind = "GENERATION_FAILED"
	KindInvalidSource           ErrorKind = "INVALID_SOURCE"
	KindSourceBlocked           ErrorKind = "SOURCE_BLOCKED"
	KindInvalidRequest          ErrorKind = "INVALID_REQUEST"
	KindInternal                ErrorKind = "INTERNAL"
)

// Error is a classified failure. Status is the remote HTTP status for
// REMOTE_HTTP_ERROR and zero otherwise.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound                = &Error{Kind: KindNotFound}
	ErrRemoteTimeout           = &Error{Kind: KindRemoteTimeout}
	ErrRemoteUnavailable       = &Error{Kind: KindRemoteUnavailable}
	ErrRemoteHTTPError         = &Error{Kind: KindRemoteHTTPError}
	ErrMalformedData           = &Error{Kind: KindMalformedData}
	ErrClassificationFailed    = &Error{Kind: KindClassificationFailed}
	ErrStructuredOutputInvalid = &Error{Kind: KindStructuredOutputInvalid}
	ErrSessionNotFound         = &Error{Kind: KindSessionNotFound}
	ErrGenerationFailed        = &Error{Kind: KindGenerationFailed}
	ErrInvalidSource           = &Error{Kind: KindInvalidSource}
	ErrSourceBlocked           = &Error{Kind: KindSourceBlocked}
	ErrInvalidRequest          = &Error{Kind: KindInvalidRequest}
)

// NewError creates a classified error wrapping err.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NewRemoteHTTPError creates a REMOTE_HTTP_ERROR carrying the remote status.
func NewRemoteHTTPError(status int, source string) *Error {
	return &Error{
		Kind:    KindRemoteHTTPError,
		Status:  status,
		Message: fmt.Sprintf("remote source %s returned HTTP %d", source, status),
	}
}

// AsError extracts the classified error from err's chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf returns the kind of err, or INTERNAL if err is not classified.
func KindOf(err error) ErrorKind {
	if de, ok := AsError(err); ok {
		return de.Kind
	}
	return KindInternal
}
