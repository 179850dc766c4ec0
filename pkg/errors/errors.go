// Package errors provides structured error types for healthviz.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - A single reported error naming the pipeline stage that failed
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - EMPTY_DATASET, MALFORMED_MEASURE, MISSING_STAGE_VALUE, LOOKUP_MISS: data errors
//   - NOT_FOUND_*: Resource not found
//   - NETWORK_*: Network-related errors
//   - INTERNAL_*: Unexpected internal errors
//
// # Stages
//
// Errors raised by the transformation core carry the [Stage] that produced
// them (load, aggregate, graph-build, join, render), so that callers can
// report "which stage failed and why" in a single line.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeEmptyDataset, "no rows in %s", path).In(errors.StageLoad)
//	if errors.Is(err, errors.ErrCodeEmptyDataset) {
//	    // Handle empty input
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Data errors raised by the transformation core
	ErrCodeEmptyDataset      Code = "EMPTY_DATASET"
	ErrCodeMalformedMeasure  Code = "MALFORMED_MEASURE"
	ErrCodeMissingStageValue Code = "MISSING_STAGE_VALUE"
	ErrCodeLookupMiss        Code = "LOOKUP_MISS"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Stage names the transformation step an error originated in.
type Stage string

// Pipeline stages.
const (
	StageLoad      Stage = "load"
	StageAggregate Stage = "aggregate"
	StageGraph     Stage = "graph-build"
	StageJoin      Stage = "join"
	StageRender    Stage = "render"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Stage   Stage  // Pipeline stage (optional)
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Stage != "" {
		msg = fmt.Sprintf("%s: %s", e.Stage, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// In sets the stage on e and returns it for chaining.
func (e *Error) In(stage Stage) *Error {
	e.Stage = stage
	return e
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// CodeOr returns the code of err, or def when err carries none.
func CodeOr(err error, def Code) Code {
	if c := GetCode(err); c != "" {
		return c
	}
	return def
}

// Staged tags err with stage. An *Error without a stage is tagged in place;
// anything else is wrapped as INTERNAL_ERROR. A nil err stays nil.
func Staged(err error, stage Stage) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if StageOf(err) == "" {
			e.Stage = stage
		}
		return err
	}
	return Wrap(ErrCodeInternal, err, "unexpected error").In(stage)
}

// StageOf returns the stage of the outermost *Error in err's chain that has
// one set, or the empty stage.
func StageOf(err error) Stage {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.Stage != "" {
			return e.Stage
		}
		err = e.Cause
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix,
// prefixed by the stage when one is known.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if stage := StageOf(err); stage != "" {
			return fmt.Sprintf("%s failed: %s", stage, e.Message)
		}
		return e.Message
	}
	return err.Error()
}
