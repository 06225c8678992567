package rctransfer

import (
	"errors"
	"fmt"
)

// Error represents a transfer error
type Error struct {
	// Type is the error type
	Type ErrorType

	// Message is a human-readable error message
	Message string

	// File is the file the error belongs to (if applicable)
	File string

	// Err is the underlying cause (if any)
	Err error
}

// ErrorType categorizes transfer errors
type ErrorType int

const (
	// ErrRemoteRejected indicates the remote answered with an error line
	ErrRemoteRejected ErrorType = iota

	// ErrLengthMismatch indicates the package trailer's length disagrees with the payload
	ErrLengthMismatch

	// ErrChecksumMismatch indicates the package trailer's checksum disagrees with the payload
	ErrChecksumMismatch

	// ErrMalformedPrompt indicates a plaintext response did not end in a known prompt
	ErrMalformedPrompt

	// ErrMalformedPackage indicates the package payload or trailer is not valid hex
	ErrMalformedPackage

	// ErrIncomplete indicates the stream ended before the package was complete
	ErrIncomplete

	// ErrSourceFileMissing indicates the local file does not exist
	ErrSourceFileMissing

	// ErrNoMatch indicates a wildcard matched no files
	ErrNoMatch

	// ErrTransport indicates the link could not be opened or written
	ErrTransport

	// ErrCancelled indicates the transfer was cancelled
	ErrCancelled

	// ErrConfig indicates an invalid option or configuration value
	ErrConfig

	// ErrLocalIO indicates a local file could not be read or written
	ErrLocalIO
)

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.File != "" {
		msg = fmt.Sprintf("%s: %s", e.File, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func (t ErrorType) String() string {
	switch t {
	case ErrRemoteRejected:
		return "remote rejected"
	case ErrLengthMismatch:
		return "length mismatch"
	case ErrChecksumMismatch:
		return "checksum mismatch"
	case ErrMalformedPrompt:
		return "malformed prompt"
	case ErrMalformedPackage:
		return "malformed package"
	case ErrIncomplete:
		return "incomplete"
	case ErrSourceFileMissing:
		return "file not found"
	case ErrNoMatch:
		return "no match"
	case ErrTransport:
		return "transport failure"
	case ErrCancelled:
		return "cancelled"
	case ErrConfig:
		return "configuration error"
	case ErrLocalIO:
		return "local I/O error"
	default:
		return "unknown error"
	}
}

// NewError creates a new transfer error
func NewError(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// WrapError creates a new transfer error with an underlying cause
func WrapError(errType ErrorType, message string, err error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// withFile attaches a file name to err if it is an *Error without one.
func withFile(err error, file string) error {
	var e *Error
	if errors.As(err, &e) && e.File == "" {
		c := *e
		c.File = file
		return &c
	}
	return err
}

// errorType returns the type of err and whether err is an *Error.
func errorType(err error) (ErrorType, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Type, true
	}
	return 0, false
}

// IsRemoteRejected checks if an error is a rejection line from the remote
func IsRemoteRejected(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrRemoteRejected
}

// IsMismatch checks if an error is a length or checksum mismatch
func IsMismatch(err error) bool {
	t, ok := errorType(err)
	return ok && (t == ErrLengthMismatch || t == ErrChecksumMismatch)
}

// IsNoMatch checks if an error is a wildcard that matched nothing
func IsNoMatch(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrNoMatch
}

// IsTransport checks if an error is a transport failure
func IsTransport(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTransport
}

// IsCancelled checks if an error indicates cancellation
func IsCancelled(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrCancelled
}

// IsFatal reports whether err must abort the whole batch rather than just
// the current file.
func IsFatal(err error) bool {
	t, ok := errorType(err)
	return ok && (t == ErrTransport || t == ErrCancelled)
}
