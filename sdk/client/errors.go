package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Origin classifies where a failure was detected.
type Origin string

const (
	// OriginTransport marks failures where no response reached the caller.
	OriginTransport Origin = "transport"
	// OriginHTTP marks responses carrying a non-2xx status.
	OriginHTTP Origin = "http"
	// OriginBusiness marks 2xx responses whose envelope reports a failure.
	OriginBusiness Origin = "business"
	// OriginConfig marks requests that could not be built or sent.
	OriginConfig Origin = "config"
)

const (
	msgUnauthorized   = "unauthorized, please re-authenticate"
	msgForbidden      = "access denied"
	msgNotFound       = "resource not found"
	msgInternal       = "internal server error"
	msgNetwork        = "network connection failed"
	msgBusinessFailed = "request failed"
	msgBadEnvelope    = "invalid response envelope"
)

// Error is the normalized failure surfaced by every pipeline call, whatever its origin.
type Error struct {
	// Code is the envelope code, the HTTP status, or 500 for transport and config failures.
	Code int `json:"code"`
	// Message is a human readable description of the failure.
	Message string `json:"message"`
	// Details optionally carries the decoded response body or envelope.
	Details any `json:"details,omitempty"`
	// Origin records which layer produced the failure.
	Origin Origin `json:"-"`

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s error %d: %s", e.Origin, e.Code, e.Message)
}

// StatusCode implements the optional status accessor used by callers that branch on codes.
func (e *Error) StatusCode() int {
	if e == nil {
		return 0
	}
	return e.Code
}

// Unwrap exposes the underlying transport or build error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// AsError extracts a normalized error from err.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}

func newTransportError(cause error) *Error {
	var details any
	if cause != nil {
		details = cause.Error()
	}
	return &Error{
		Code:    http.StatusInternalServerError,
		Message: msgNetwork,
		Details: details,
		Origin:  OriginTransport,
		cause:   cause,
	}
}

func newConfigError(cause error) *Error {
	msg := "invalid request configuration"
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}
	return &Error{
		Code:    http.StatusInternalServerError,
		Message: msg,
		Origin:  OriginConfig,
		cause:   cause,
	}
}

// newHTTPError maps a non-2xx status to its normalized form. Well-known statuses always use
// their fixed message; other statuses prefer the message the server supplied.
func newHTTPError(status int, serverMessage string, details any) *Error {
	var msg string
	switch status {
	case http.StatusUnauthorized:
		msg = msgUnauthorized
	case http.StatusForbidden:
		msg = msgForbidden
	case http.StatusNotFound:
		msg = msgNotFound
	case http.StatusInternalServerError:
		msg = msgInternal
	default:
		if serverMessage != "" {
			msg = serverMessage
		} else {
			msg = fmt.Sprintf("request failed (%d)", status)
		}
	}
	return &Error{Code: status, Message: msg, Details: details, Origin: OriginHTTP}
}

func newBusinessError(code int, message string, details any) *Error {
	if message == "" {
		message = msgBusinessFailed
	}
	return &Error{Code: code, Message: message, Details: details, Origin: OriginBusiness}
}

// normalize converts any error into *Error, treating unknown errors as configuration failures.
func normalize(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := AsError(err); ok {
		return e
	}
	return newConfigError(err)
}
