// Package errors defines the error taxonomy of the analysis pipeline.
//
// Every failure carries a stable code and the name of the offending column,
// group, or predictor, since the consumer is a human analyst deciding how to
// adjust inputs. Normalizer and aggregator failures are fatal to the whole
// pipeline; regression failures are isolated to the reporting stage.
package errors

import (
	"errors"
	"fmt"
)

// Code identifies a failure category.
type Code string

const (
	// CodeMalformedDate marks an unparseable date string. Policy: the field
	// is nulled and the row kept, so this surfaces as an error only in
	// strict mode.
	CodeMalformedDate Code = "MALFORMED_DATE"
	// CodeUnknownColumn marks a requested column absent from the table.
	// Fatal to the call.
	CodeUnknownColumn Code = "UNKNOWN_COLUMN"
	// CodeEmptyGroup marks a zero-count group reaching the rate calculator.
	// Unreachable by construction; defensive.
	CodeEmptyGroup Code = "EMPTY_GROUP"
	// CodeInsufficientSample marks a regression sample smaller than the
	// parameter count plus one.
	CodeInsufficientSample Code = "INSUFFICIENT_SAMPLE"
	// CodeDegenerateFactor marks a predictor level whose effect is
	// inseparable from the other predictor.
	CodeDegenerateFactor Code = "DEGENERATE_FACTOR"
)

// AnalysisError is a pipeline failure with a stable code and the offending
// name attached.
type AnalysisError struct {
	Code    Code
	Subject string // column, group, or predictor level the failure points at
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Subject)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Is matches two analysis errors by code so call sites can test categories
// with errors.Is against the sentinel constructors' results.
func (e *AnalysisError) Is(target error) bool {
	var ae *AnalysisError
	if errors.As(target, &ae) {
		return e.Code == ae.Code
	}
	return false
}

// New creates an analysis error with the given code, subject, and message.
func New(code Code, subject, message string) *AnalysisError {
	return &AnalysisError{Code: code, Subject: subject, Message: message}
}

// Wrap creates an analysis error around an underlying cause.
func Wrap(code Code, subject, message string, err error) *AnalysisError {
	return &AnalysisError{Code: code, Subject: subject, Message: message, Err: err}
}

// Helper constructors for the specific failure scenarios.

// MalformedDate reports an unparseable date value.
func MalformedDate(column, value string) *AnalysisError {
	return New(CodeMalformedDate, column, fmt.Sprintf("cannot parse date %q", value))
}

// UnknownColumn reports a column absent from the table.
func UnknownColumn(column string) *AnalysisError {
	return New(CodeUnknownColumn, column, "column not present in table")
}

// EmptyGroup reports a group with zero members reaching a rate computation.
func EmptyGroup(group string) *AnalysisError {
	return New(CodeEmptyGroup, group, "group has no members")
}

// InsufficientSample reports a regression sample too small to identify the
// model.
func InsufficientSample(response string, rows, params int) *AnalysisError {
	return New(CodeInsufficientSample, response,
		fmt.Sprintf("%d rows cannot identify %d parameters (need at least %d)", rows, params, params+1))
}

// DegenerateFactor reports a predictor level with no variance contribution.
func DegenerateFactor(predictor, level string) *AnalysisError {
	return New(CodeDegenerateFactor, predictor,
		fmt.Sprintf("level %q appears in only one combination of the other predictors", level))
}

// IsCode reports whether err is an AnalysisError with the given code.
func IsCode(err error, code Code) bool {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
