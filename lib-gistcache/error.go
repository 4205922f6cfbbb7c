package gistcache

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorType is type of Error
type ErrorType uint8

const (
	// TypeNotFound is a error for the user that does not exist on upstream.
	TypeNotFound ErrorType = iota + 1

	// TypeRateLimited is a error for exceeded upstream API rate limit.
	TypeRateLimited

	// TypeUpstreamError is a error for the error response from upstream API.
	TypeUpstreamError

	// TypeTimeout is a error for timed out upstream request.
	TypeTimeout

	// TypeTransportError is a error for failed connection to upstream.
	TypeTransportError

	// TypeArgumentError is a error for invalid argument error.
	TypeArgumentError
)

// String is converter to human readable string.
func (t ErrorType) String() string {
	switch t {
	case TypeNotFound:
		return "NotFound"
	case TypeRateLimited:
		return "RateLimited"
	case TypeUpstreamError:
		return "UpstreamError"
	case TypeTimeout:
		return "Timeout"
	case TypeTransportError:
		return "TransportError"
	case TypeArgumentError:
		return "ArgumentError"
	default:
		return "UnknownError"
	}
}

// Error is error type of gistcache.
type Error struct {
	Type     ErrorType
	Original error
	Message  string

	// Status is the status code that upstream API responded.
	// This is only for TypeUpstreamError.
	Status int

	// Reset is the time that upstream API rate limit will reset.
	// This is only for TypeRateLimited.
	Reset time.Time
}

// newError is make new Error by format string.
func newError(typ ErrorType, original error, format string, args ...interface{}) Error {
	return Error{
		Type:     typ,
		Message:  fmt.Sprintf(format, args...),
		Original: original,
	}
}

// Error is converter to human readable string.
func (e Error) Error() string {
	if e.Original == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Original.Error())
}

// Unwrap is getter of original error.
func (e Error) Unwrap() error {
	return e.Original
}

// HTTPStatus is converter to the status code for the API boundary.
func (e Error) HTTPStatus() int {
	switch e.Type {
	case TypeNotFound:
		return http.StatusNotFound
	case TypeRateLimited:
		return http.StatusTooManyRequests
	case TypeUpstreamError, TypeTransportError:
		return http.StatusBadGateway
	case TypeTimeout:
		return http.StatusGatewayTimeout
	case TypeArgumentError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Code is getter of the stable error code string for the API boundary.
func (e Error) Code() string {
	switch e.Type {
	case TypeNotFound:
		return "user_not_found"
	case TypeRateLimited:
		return "rate_limit_exceeded"
	case TypeUpstreamError:
		return "github_api_error"
	case TypeTimeout:
		return "github_api_timeout"
	case TypeTransportError:
		return "github_unreachable"
	case TypeArgumentError:
		return "validation_error"
	default:
		return "internal_error"
	}
}

// ErrorSet is list of errors.
type ErrorSet []error

// Error is getter for description string.
func (e ErrorSet) Error() string {
	xs := make([]string, len(e))
	for i, x := range e {
		xs[i] = x.Error()
	}
	return strings.Join(xs, "\n")
}
