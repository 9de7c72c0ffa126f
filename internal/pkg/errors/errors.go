// Package errors provides the error type shared by the zoomclip API, worker and CLI.
// Errors carry a code for categorization, the failing operation, free-form
// fields and the stack at creation.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Code represents an error code for categorization.
type Code string

const (
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeTimeout       Code = "TIMEOUT"
	CodeUnavailable   Code = "UNAVAILABLE"
	CodeFailedPrecond Code = "FAILED_PRECONDITION"

	// Render pipeline failures.
	CodeFetchFailed         Code = "FETCH_FAILED"
	CodeDimensionReadFailed Code = "DIMENSION_READ_FAILED"
	CodeEncodingFailed      Code = "ENCODING_FAILED"
	CodeFilesystem          Code = "FILESYSTEM_ERROR"
)

// Field keys attached to ENCODING_FAILED errors.
const (
	FieldExitCode = "exit_code"
	FieldStderr   = "stderr"
)

// Error is a custom error type with additional context.
type Error struct {
	// Code is the error code for categorization.
	Code Code
	// Message is the human-readable error message.
	Message string
	// Op is the operation that failed (e.g., "zoomvideo.encode").
	Op string
	// Err is the underlying error.
	Err error
	// Fields contains additional context fields.
	Fields map[string]any
	// Stack contains the stack trace at error creation.
	Stack []Frame
}

// Frame represents a single stack frame.
type Frame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Code != "" {
		b.WriteString("[")
		b.WriteString(string(e.Code))
		b.WriteString("] ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithField adds a field to the error.
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// WithOp sets the failing operation.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return 400
	case CodeNotFound:
		return 404
	case CodeConflict:
		return 409
	case CodeFailedPrecond:
		return 412
	case CodeFetchFailed, CodeDimensionReadFailed:
		return 422
	case CodeTimeout:
		return 504
	case CodeUnavailable:
		return 503
	default:
		return 500
	}
}

// StackTrace returns the stack trace as a formatted string.
func (e *Error) StackTrace() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	for _, f := range e.Stack {
		fmt.Fprintf(&b, "  %s:%d %s\n", f.File, f.Line, f.Function)
	}
	return b.String()
}

// New creates a new error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps err with an operation and message. The code of a wrapped *Error
// is preserved; anything else becomes INTERNAL_ERROR.
func Wrap(err error, op string, message string) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return &Error{
			Code:    e.Code,
			Message: message,
			Op:      op,
			Err:     err,
			Fields:  e.Fields,
			Stack:   captureStack(2),
		}
	}

	return &Error{
		Code:    CodeInternal,
		Message: message,
		Op:      op,
		Err:     err,
		Stack:   captureStack(2),
	}
}

// WrapWithCode wraps an error with a specific code.
func WrapWithCode(err error, code Code, op string, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
		Stack:   captureStack(2),
	}
}

// NotFound creates a not found error.
func NotFound(resource string, id string) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s not found: %s", resource, id)).
		WithField("resource", resource).
		WithField("id", id)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// ValidationField creates a validation error for a specific field.
func ValidationField(field string, message string) *Error {
	return New(CodeValidation, message).WithField("field", field)
}

// FetchFailed reports an unreachable or invalid image source.
func FetchFailed(source string, err error) *Error {
	e := WrapWithCode(err, CodeFetchFailed, "", "fetch failed")
	if e == nil {
		e = New(CodeFetchFailed, "fetch failed")
	}
	e.Stack = captureStack(2)
	return e.WithField("source", source)
}

// DimensionReadFailed reports a corrupt or unsupported image.
func DimensionReadFailed(path string, err error) *Error {
	e := WrapWithCode(err, CodeDimensionReadFailed, "", "could not read image dimensions")
	if e == nil {
		e = New(CodeDimensionReadFailed, "could not read image dimensions")
	}
	e.Stack = captureStack(2)
	return e.WithField("path", path)
}

// EncodingFailed reports a non-zero encoder exit. The captured stderr is part
// of the message so it survives plain string logging.
func EncodingFailed(exitCode int, stderr string) *Error {
	e := Newf(CodeEncodingFailed, "encoder exited with code %d: %s", exitCode, strings.TrimSpace(stderr))
	e.Stack = captureStack(2)
	return e.WithField(FieldExitCode, exitCode).WithField(FieldStderr, stderr)
}

// Filesystem reports a path, copy or cleanup failure.
func Filesystem(path string, err error) *Error {
	e := WrapWithCode(err, CodeFilesystem, "", "filesystem operation failed")
	if e == nil {
		e = New(CodeFilesystem, "filesystem operation failed")
	}
	e.Stack = captureStack(2)
	return e.WithField("path", path)
}

// EncodingDetails returns the exit code and stderr carried by an
// ENCODING_FAILED error.
func EncodingDetails(err error) (exitCode int, stderr string, ok bool) {
	var e *Error
	if !errors.As(err, &e) || e.Code != CodeEncodingFailed {
		return 0, "", false
	}
	exitCode, _ = e.Fields[FieldExitCode].(int)
	stderr, _ = e.Fields[FieldStderr].(string)
	return exitCode, stderr, true
}

// GetCode extracts the error code from an error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// GetHTTPStatus extracts the HTTP status from an error.
func GetHTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return 500
}

// GetFields extracts fields from an error.
func GetFields(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) && e.Fields != nil {
		return e.Fields
	}
	return nil
}

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

func IsValidation(err error) bool {
	return IsCode(err, CodeValidation)
}

func captureStack(skip int) []Frame {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip+1, pcs[:])

	frames := make([]Frame, 0, n)
	callersFrames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := callersFrames.Next()

		if strings.Contains(frame.File, "runtime/") {
			if !more {
				break
			}
			continue
		}

		frames = append(frames, Frame{
			File:     frame.File,
			Line:     frame.Line,
			Function: frame.Function,
		})

		if !more || len(frames) >= 10 {
			break
		}
	}

	return frames
}

// As is a convenience wrapper for errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is a convenience wrapper for errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
