// Package errorx implements the numeric error-coder pattern used across
// agentrelay's HTTP surface: every error that can reach a client is
// registered once against a Coder describing its HTTP status and message,
// and wrapped at the point it occurs with WithCode/WrapC.
package errorx

import (
	"fmt"
)

// Coder describes how an error kind maps onto the wire.
type Coder interface {
	// Code is the unique numeric error code.
	Code() int
	// HTTPStatus is the HTTP status this code maps to.
	HTTPStatus() int
	// String is the default human-readable message for this code.
	String() string
	// Reference is an optional URL/path with more detail; empty if none.
	Reference() string
}

var codes = map[int]Coder{}

// MustRegister registers a Coder under its Code(). Panics on a duplicate
// registration — that is a programmer error, caught at init() time.
func MustRegister(coder Coder) {
	if coder.Code() == 0 {
		panic("errorx: code 0 is reserved")
	}
	if _, exists := codes[coder.Code()]; exists {
		panic(fmt.Sprintf("errorx: code %d already registered", coder.Code()))
	}
	codes[coder.Code()] = coder
}

// unknownCoder is returned by ParseCoder when a code was never registered.
type unknownCoder struct{}

func (unknownCoder) Code() int         { return -1 }
func (unknownCoder) HTTPStatus() int   { return 500 }
func (unknownCoder) String() string    { return "internal server error" }
func (unknownCoder) Reference() string { return "" }

// withCode is an error carrying a registered code, a formatted message,
// and an optional wrapped cause.
type withCode struct {
	code  int
	msg   string
	cause error
}

func (w *withCode) Error() string {
	if w.cause != nil {
		return fmt.Sprintf("%s: %s", w.msg, w.cause.Error())
	}
	return w.msg
}

func (w *withCode) Unwrap() error { return w.cause }

// Code returns the registered code this error carries; ParseCoder
// resolves it to the registered Coder for status/string lookups.
func (w *withCode) Code() int { return w.code }

// WithCode builds a new error from a registered code and a formatted
// message, with no wrapped cause.
func WithCode(code int, format string, args ...interface{}) error {
	return &withCode{code: code, msg: fmt.Sprintf(format, args...)}
}

// WrapC wraps an existing error with a registered code and additional
// context, preserving the original error as the cause.
func WrapC(err error, code int, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &withCode{code: code, msg: fmt.Sprintf(format, args...), cause: err}
}

// ParseCoder extracts the Coder for err, walking Unwrap chains. Returns
// an unknown/internal Coder if err carries no registered code.
func ParseCoder(err error) Coder {
	for err != nil {
		if wc, ok := err.(*withCode); ok {
			if c, exists := codes[wc.code]; exists {
				return c
			}
			return unknownCoder{}
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	return unknownCoder{}
}

// IsCode reports whether err carries the given registered code anywhere
// in its Unwrap chain.
func IsCode(err error, code int) bool {
	for err != nil {
		if wc, ok := err.(*withCode); ok && wc.code == code {
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
