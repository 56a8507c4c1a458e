package configsets

import (
	"errors"
	"fmt"
)

// ErrorCode classifies configset failures.
type ErrorCode uint8

const (
	CodeServer ErrorCode = iota
	CodeBadRequest
	CodeConfiguration
	CodeInvariant
	CodeNotFound
	CodeConflict
	CodeInUse
)

// String returns a short name for the code.
func (c ErrorCode) String() string {
	switch c {
	case CodeBadRequest:
		return "bad request"
	case CodeConfiguration:
		return "configuration error"
	case CodeInvariant:
		return "invariant violation"
	case CodeNotFound:
		return "not found"
	case CodeConflict:
		return "conflict"
	case CodeInUse:
		return "in use"
	default:
		return "server error"
	}
}

// Status maps the code to an HTTP-class status number. Configuration
// errors are reported as bad requests, invariant violations as server errors.
func (c ErrorCode) Status() int {
	switch c {
	case CodeBadRequest, CodeConfiguration:
		return 400
	case CodeNotFound:
		return 404
	case CodeConflict, CodeInUse:
		return 409
	default:
		return 500
	}
}

// Error is a classified configset failure.
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// BadRequest reports malformed or missing input.
func BadRequest(format string, args ...any) *Error {
	return newError(CodeBadRequest, format, args...)
}

// ConfigurationError reports a host that cannot serve configset requests.
func ConfigurationError(format string, args ...any) *Error {
	return newError(CodeConfiguration, format, args...)
}

// InvariantViolation reports an unexpected internal state.
func InvariantViolation(format string, args ...any) *Error {
	return newError(CodeInvariant, format, args...)
}

// NotFound reports a missing configset or file.
func NotFound(format string, args ...any) *Error {
	return newError(CodeNotFound, format, args...)
}

// Conflict reports an already existing configset or file.
func Conflict(format string, args ...any) *Error {
	return newError(CodeConflict, format, args...)
}

// InUse reports a configset that is still referenced.
func InUse(format string, args ...any) *Error {
	return newError(CodeInUse, format, args...)
}

// CodeOf returns the code of the first *Error in err's chain, or CodeServer.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeServer
}
