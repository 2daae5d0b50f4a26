package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/deonto/internal/bpmn"
)

// ErrorCode categorizes fatal compilation errors.
type ErrorCode string

const (
	// CodeMalformedInput means no process container could be read.
	CodeMalformedInput ErrorCode = "MALFORMED_INPUT"

	// CodeStructuralError means the diagram does not have exactly one entry
	// and at least one exit.
	CodeStructuralError ErrorCode = "STRUCTURAL_ERROR"

	// CodeUnrecognizedBranch means a decision branch label is neither the
	// affirmative nor the negative label under the strict branch policy.
	CodeUnrecognizedBranch ErrorCode = "UNRECOGNIZED_BRANCH"
)

// Error is a fatal compilation error. No rule is emitted once one occurs.
type Error struct {
	Code    ErrorCode
	Message string
	NodeID  string
	Err     error
}

func (e *Error) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.NodeID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == code
}

// IsMalformedInput reports whether err means the markup had no readable
// process, including a bare bpmn.ParseError.
func IsMalformedInput(err error) bool {
	var pe *bpmn.ParseError
	return hasCode(err, CodeMalformedInput) || errors.As(err, &pe)
}

// IsStructuralError reports whether err is an entry/exit violation.
func IsStructuralError(err error) bool {
	return hasCode(err, CodeStructuralError)
}

// IsUnrecognizedBranch reports whether err is a strict-policy branch failure.
func IsUnrecognizedBranch(err error) bool {
	return hasCode(err, CodeUnrecognizedBranch)
}

func structuralError(format string, args ...any) *Error {
	return &Error{Code: CodeStructuralError, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of a fatal compilation error, or "" when err is
// not one.
func CodeOf(err error) ErrorCode {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	var pe *bpmn.ParseError
	if errors.As(err, &pe) {
		return CodeMalformedInput
	}
	return ""
}
