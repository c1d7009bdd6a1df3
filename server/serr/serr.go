// Package serr holds the error objects shared across the engine and its
// server/CLI surfaces. Error can be created with one or more 'cause'
// errors; calling errors.Is() against any of those causes returns true.
// Error also carries a Code drawn from the engine's error taxonomy, so
// callers at the edges (HTTP handlers, the REPL) can render a uniform
// result envelope without re-deriving the failure kind from a string
// message.
package serr

import "errors"

// Code is one of the recognized error kinds an operation can fail with.
type Code string

const (
	CodeNotReady            Code = "NOT_READY"
	CodeValidationError      Code = "VALIDATION_ERROR"
	CodeNotFound             Code = "NOT_FOUND"
	CodeConstraintViolation  Code = "CONSTRAINT_VIOLATION"
	CodeCycle                Code = "CYCLE"
	CodeNoCoverage           Code = "NO_COVERAGE"
	CodeOperationFailed      Code = "OPERATION_FAILED"
	CodeUnknown              Code = "UNKNOWN_ERROR"
)

var (
	ErrNotReady            = errors.New("the engine has not finished initializing")
	ErrNotFound            = errors.New("the requested entity could not be found")
	ErrConstraintViolation = errors.New("a referential constraint was violated")
	ErrValidation          = errors.New("one or more arguments failed validation")
	ErrCycle               = errors.New("the requested edge would introduce a cycle")
	ErrNoCoverage          = errors.New("no full segmentation could be found")
	ErrDB                  = errors.New("an error occurred in the storage layer")
)

// Error is a typed error that carries a Code plus one or more causes.
// It is compatible with errors.Is/errors.As: calling errors.Is on an
// Error value along with any value it holds as a cause returns true.
//
// Error should not be used directly; call New or one of the Code-named
// constructors.
type Error struct {
	msg    string
	code   Code
	cause  []error
	detail any
}

// Error returns the defined message, concatenated with the result of
// calling Error() on its first cause if one is defined. If no message
// is set but a cause is, the cause's message is returned as-is.
func (e Error) Error() string {
	if e.msg == "" && e.cause != nil {
		return e.cause[0].Error()
	}
	if e.cause != nil {
		return e.msg + ": " + e.cause[0].Error()
	}
	return e.msg
}

// Code returns the error's taxonomy code, or CodeUnknown if unset.
func (e Error) Code() Code {
	if e.code == "" {
		return CodeUnknown
	}
	return e.code
}

// Detail returns the optional structured detail payload attached to the
// error (e.g. NoCoverage's unmatched suffix), or nil if none was set.
func (e Error) Detail() any {
	return e.detail
}

// Unwrap returns the causes of Error, or nil if none were defined.
func (e Error) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}

// Is returns whether target is itself (by message and causes) or one of
// e's causes.
func (e Error) Is(target error) bool {
	if errTarget, ok := target.(Error); ok {
		if e.msg == errTarget.msg && e.code == errTarget.code && len(e.cause) == len(errTarget.cause) {
			allCausesEqual := true
			for i := range e.cause {
				if e.cause[i] != errTarget.cause[i] {
					allCausesEqual = false
					break
				}
			}
			if allCausesEqual {
				return true
			}
		}
	}
	for i := range e.cause {
		if e.cause[i] == target {
			return true
		}
	}
	return false
}

// New creates a new Error with the given code, message, and optional
// wrapped causes.
func New(code Code, msg string, causes ...error) Error {
	err := Error{msg: msg, code: code}
	if len(causes) > 0 {
		err.cause = make([]error, len(causes))
		copy(err.cause, causes)
	}
	return err
}

// WithDetail attaches a structured detail payload to err and returns the
// updated value.
func (e Error) WithDetail(detail any) Error {
	e.detail = detail
	return e
}

// NotReady builds a CodeNotReady Error.
func NotReady() Error {
	return New(CodeNotReady, ErrNotReady.Error(), ErrNotReady)
}

// Validation builds a CodeValidationError Error.
func Validation(msg string) Error {
	return New(CodeValidationError, msg, ErrValidation)
}

// NotFound builds a CodeNotFound Error.
func NotFound(msg string) Error {
	return New(CodeNotFound, msg, ErrNotFound)
}

// ConstraintViolation builds a CodeConstraintViolation Error.
func ConstraintViolation(msg string) Error {
	return New(CodeConstraintViolation, msg, ErrConstraintViolation)
}

// CycleDetected builds a CodeCycle Error.
func CycleDetected(msg string) Error {
	return New(CodeCycle, msg, ErrCycle)
}

// NoCoverage builds a CodeNoCoverage Error carrying the unmatched suffix
// as its detail.
func NoCoverage(unmatched string) Error {
	return New(CodeNoCoverage, ErrNoCoverage.Error(), ErrNoCoverage).WithDetail(unmatched)
}

// OperationFailed builds a CodeOperationFailed Error, for internal
// invariant breaks and storage errors a caller should treat as fatal.
func OperationFailed(msg string, causes ...error) Error {
	all := append([]error{ErrDB}, causes...)
	return New(CodeOperationFailed, msg, all...)
}
