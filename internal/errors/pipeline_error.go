// Package errors provides the standardized error type for pipeline
// operations. Every fatal failure surfaces as a single PipelineError whose
// message names the offending column, operator, or value, so it can be fed
// back to the plan producer for a corrective retry.
package errors

import (
	"fmt"
)

// Kind classifies what went wrong.
type Kind uint8

const (
	// KindPlanValidation marks a structural or referential problem in the
	// plan itself: unknown column, unsupported function, missing argument,
	// type-incoercible literal. Raised before any row is processed.
	KindPlanValidation Kind = iota
	// KindUnsupportedConversion marks a from/to unit or currency pair with no
	// known conversion path.
	KindUnsupportedConversion
	// KindCollaborator marks a failure in an external collaborator, such as
	// the currency rate source.
	KindCollaborator
	// KindUnknownOperation marks a plan step whose tag is not in the
	// supported vocabulary. Always fatal.
	KindUnknownOperation
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindPlanValidation:
		return "plan validation"
	case KindUnsupportedConversion:
		return "unsupported conversion"
	case KindCollaborator:
		return "collaborator failure"
	case KindUnknownOperation:
		return "unknown operation"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// PipelineError represents standardized errors across all pipeline operations.
type PipelineError struct {
	Kind    Kind   // Error classification
	Op      string // Operation tag (e.g. "filter", "groupBy")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s operation failed on column %q: %s", e.Op, e.Column, e.Message)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s operation failed: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error wrapping support.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is().
func (e *PipelineError) Is(target error) bool {
	if pe, ok := target.(*PipelineError); ok {
		return e.Kind == pe.Kind && e.Op == pe.Op && e.Column == pe.Column && e.Message == pe.Message
	}
	return false
}

// NewValidationError creates a plan-validation error with a preformatted
// message.
func NewValidationError(op, column, format string, args ...interface{}) *PipelineError {
	return &PipelineError{
		Kind:    KindPlanValidation,
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewColumnNotFoundError creates an error for operations referencing columns
// that do not resolve.
func NewColumnNotFoundError(op, column string) *PipelineError {
	return &PipelineError{
		Kind:    KindPlanValidation,
		Op:      op,
		Column:  column,
		Message: "column does not exist",
	}
}

// NewUnsupportedFunctionError creates an error for functions outside an
// operator's supported set.
func NewUnsupportedFunctionError(op, fn string) *PipelineError {
	return &PipelineError{
		Kind:    KindPlanValidation,
		Op:      op,
		Message: fmt.Sprintf("unsupported function: %s", fn),
	}
}

// NewUnsupportedConversionError creates an error for a unit or currency pair
// with no known conversion path.
func NewUnsupportedConversionError(op, from, to string) *PipelineError {
	return &PipelineError{
		Kind:    KindUnsupportedConversion,
		Op:      op,
		Message: fmt.Sprintf("unsupported unit conversion %s -> %s", from, to),
	}
}

// NewUnknownOperationError creates an error for an unrecognized plan step.
func NewUnknownOperationError(tag string) *PipelineError {
	return &PipelineError{
		Kind:    KindUnknownOperation,
		Op:      tag,
		Message: fmt.Sprintf("unknown operation: %s", tag),
	}
}

// NewCollaboratorError creates an error for an external service failure.
func NewCollaboratorError(op string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindCollaborator,
		Op:      op,
		Message: "external collaborator failed",
		Cause:   cause,
	}
}
