// Package errs defines the error taxonomy shared by the rules core.
//
// Every failure that crosses a package boundary is an *Error carrying a Code.
// Packages may additionally wrap their own sentinel errors as Cause so callers
// can use errors.Is against the sentinel and CodeOf for the category.
package errs

import (
	"errors"
	"fmt"
)

// Code classifies an error.
type Code string

const (
	CodeNotFound         Code = "NOT_FOUND"
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeInvalidState     Code = "INVALID_STATE"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeAlreadyExists    Code = "ALREADY_EXISTS"
	CodeParse            Code = "PARSE_ERROR"
	CodeInternal         Code = "INTERNAL"
)

func (c Code) String() string {
	return string(c)
}

// Error is a structured error with code, message and optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Meta    map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithMeta attaches a metadata value and returns e.
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err keeping its code when err is already an *Error.
// Foreign errors become CodeInternal.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: message, Cause: err, Meta: existing.Meta}
	}
	return &Error{Code: CodeInternal, Message: message, Cause: err}
}

// Wrapf wraps err with a formatted message.
func Wrapf(err error, format string, args ...any) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps err under an explicit code.
func WrapWithCode(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// WrapWithCodef wraps err under an explicit code with a formatted message.
func WrapWithCodef(err error, code Code, format string, args ...any) *Error {
	return WrapWithCode(err, code, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

func InvalidArgumentf(format string, args ...any) *Error {
	return Newf(CodeInvalidArgument, format, args...)
}

func InvalidStatef(format string, args ...any) *Error {
	return Newf(CodeInvalidState, format, args...)
}

func PermissionDeniedf(format string, args ...any) *Error {
	return Newf(CodePermissionDenied, format, args...)
}

func AlreadyExistsf(format string, args ...any) *Error {
	return Newf(CodeAlreadyExists, format, args...)
}

func Parsef(format string, args ...any) *Error {
	return Newf(CodeParse, format, args...)
}

func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// CodeOf returns the code of the outermost *Error in err's chain,
// CodeInternal for foreign errors and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MetaOf returns a metadata value of the outermost *Error in err's chain.
func MetaOf(err error, key string) (any, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Meta == nil {
		return nil, false
	}
	v, ok := e.Meta[key]
	return v, ok
}

// Message returns the human-readable message of the outermost *Error,
// or err.Error() for foreign errors.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func IsNotFound(err error) bool         { return CodeOf(err) == CodeNotFound }
func IsInvalidArgument(err error) bool  { return CodeOf(err) == CodeInvalidArgument }
func IsInvalidState(err error) bool     { return CodeOf(err) == CodeInvalidState }
func IsPermissionDenied(err error) bool { return CodeOf(err) == CodePermissionDenied }
func IsAlreadyExists(err error) bool    { return CodeOf(err) == CodeAlreadyExists }
func IsParse(err error) bool            { return CodeOf(err) == CodeParse }
