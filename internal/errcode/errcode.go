// Package errcode defines the stable error codes shared by every licensing
// protocol surface. Codes are transport-independent; HTTP handlers map them
// onto statuses at the edge.
package errcode

import (
	"errors"
	"fmt"
)

const (
	MissingParams     = "MISSING_PARAMS"
	LicenseNotFound   = "LICENSE_NOT_FOUND"
	LicenseInactive   = "LICENSE_INACTIVE"
	LicenseExpired    = "LICENSE_EXPIRED"
	MaxHostsReached   = "MAX_HOSTS_REACHED"
	NotActivated      = "NOT_ACTIVATED"
	NetworkNotAllowed = "NETWORK_NOT_ALLOWED"
	InvalidAction     = "INVALID_ACTION"
	Internal          = "INTERNAL_ERROR"
)

// Error pairs a machine-readable code with a human-readable message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func New(code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// CodeOf extracts the code from an error chain. Errors that carry no code
// report Internal.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}

// Is reports whether the error chain carries the given code.
func Is(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
