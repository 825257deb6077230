// Package errors defines the stable numeric error code system for Isomer
// tooling. Every code in the 50000 namespace has exactly one documentation
// page; codes are part of the public contract and are never reused.
package errors

import (
	"errors"
	"fmt"
	"io"
)

// Code is a stable numeric error code.
type Code int

// IsoError is the standard error type carrying a code.
type IsoError struct {
	Code  Code
	Msg   string
	Cause error
}

// Error returns the stable format: "error <code>: message".
func (e *IsoError) Error() string {
	return fmt.Sprintf("error %d: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *IsoError) Unwrap() error {
	return e.Cause
}

// New creates a coded error with a plain message.
func New(code Code, msg string) error {
	return &IsoError{Code: code, Msg: msg}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...interface{}) error {
	return &IsoError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error wrapping an underlying cause.
func Wrap(code Code, msg string, err error) error {
	return &IsoError{Code: code, Msg: msg, Cause: err}
}

// CodeOf extracts the code from an error, or 0 if err carries none.
func CodeOf(err error) Code {
	var ie *IsoError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return 0
}

// AsIsoError returns (*IsoError, true) if err is or wraps an IsoError.
func AsIsoError(err error) (*IsoError, bool) {
	var ie *IsoError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// UsageExitCode is returned for command line usage errors.
const UsageExitCode = 64

// ExitCode returns the process exit code for an error: 0 for nil, the
// numeric code for coded errors, 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code := CodeOf(err); code != 0 {
		return int(code)
	}
	return 1
}

// Print writes the error to w in the stable stderr format. Coded errors
// with a registered documentation page get a pointer to the hosted page.
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	ie, ok := AsIsoError(err)
	if !ok {
		fmt.Fprintln(w, err.Error())
		return
	}
	fmt.Fprintf(w, "error %d: %s\n", ie.Code, ie.Msg)
	if page, lookupErr := Lookup(ie.Code); lookupErr == nil {
		fmt.Fprintf(w, "  %s\n", page.Title)
		fmt.Fprintf(w, "  see %s\n", page.DocURL(DefaultDocsBaseURL))
	}
}
