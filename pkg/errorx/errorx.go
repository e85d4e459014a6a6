package errorx

import (
	"errors"
	"fmt"
)

// CodeError is an error carrying a business code.
// It supports %w wrapping and is recognized by errors.Is/errors.As.
type CodeError struct {
	Code  int    // business code
	Msg   string // human readable message
	cause error  // wrapped underlying error
}

// Error implements the error interface. When a cause is present the result
// is "msg: cause", otherwise just the message.
func (e *CodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

// Unwrap exposes the cause to errors.Is/errors.As.
func (e *CodeError) Unwrap() error {
	return e.cause
}

// New creates a CodeError without a cause.
func New(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

// Newf creates a CodeError with a formatted message.
func Newf(code int, format string, args ...any) *CodeError {
	return &CodeError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a business code and message to an underlying error.
func Wrap(err error, code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg, cause: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code int, format string, args ...any) *CodeError {
	return &CodeError{Code: code, Msg: fmt.Sprintf(format, args...), cause: err}
}

// GetCode extracts the business code, falling back to CodeServerBusy.
func GetCode(err error) int {
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		return codeErr.Code
	}
	return CodeServerBusy
}

// Business codes.
const (
	CodeSuccess         = 1000 // ok
	CodeInvalidParam    = 1001 // malformed or missing request field
	CodeUserExist       = 1002 // username already registered
	CodeUserNotExist    = 1003 // unknown user
	CodeInvalidPassword = 1004 // credential mismatch
	CodeServerBusy      = 1005 // internal failure
	CodeUnauthorized    = 1006 // missing/expired/invalid token
	CodeNotFound        = 1008 // entity not found
	CodeDBError         = 1010 // storage failure
	CodeCacheError      = 1011 // cache failure
)

// Predefined instances, usable directly or with errors.Is.
var (
	ErrInvalidParam = New(CodeInvalidParam, "invalid request parameter")
	ErrServerBusy   = New(CodeServerBusy, "server busy")
	ErrUnauthorized = New(CodeUnauthorized, "unauthorized")
)

// IsNotFound reports whether err represents a missing entity, including
// gorm's record-not-found sentinel surfacing through wrapped errors.
func IsNotFound(err error) bool {
	var codeErr *CodeError
	if errors.As(err, &codeErr) && codeErr.Code == CodeNotFound {
		return true
	}
	return err != nil && err.Error() == "record not found"
}
