// Package apperrors defines the error taxonomy shared across the engine.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrNoData    = errors.New("no usable data")
	ErrCancelled = errors.New("operation cancelled")
)

// InputValidationError indicates a malformed request shape. Never retried.
type InputValidationError struct {
	Field  string
	Reason string
}

func (e *InputValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input: field %q: %s", e.Field, e.Reason)
}

// NewInputValidation creates an InputValidationError for a specific field.
func NewInputValidation(field, reason string) *InputValidationError {
	return &InputValidationError{Field: field, Reason: reason}
}

// SynthesisError indicates the LLM failed or returned an unusable structure.
type SynthesisError struct {
	Op    string // which synthesis operation failed (query, intent, chart, ...)
	Cause error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed (%s): %v", e.Op, e.Cause)
}

func (e *SynthesisError) Unwrap() error { return e.Cause }

// NewSynthesis wraps a provider or parse failure as a SynthesisError.
func NewSynthesis(op string, cause error) *SynthesisError {
	return &SynthesisError{Op: op, Cause: cause}
}

// SafetyRejection indicates a candidate query failed the allow-list gate.
// Deterministic; never retried.
type SafetyRejection struct {
	Reason string
}

func (e *SafetyRejection) Error() string {
	return fmt.Sprintf("query rejected: %s", e.Reason)
}

// ExecutionKind classifies failures from the tenant datasource.
type ExecutionKind string

const (
	ExecColumnNotFound ExecutionKind = "column_not_found"
	ExecTableNotFound  ExecutionKind = "table_not_found"
	ExecTransient      ExecutionKind = "transient_connection"
	ExecUnknown        ExecutionKind = "unknown"
)

// ExecutionError wraps a driver error with a classified kind.
type ExecutionError struct {
	Kind  ExecutionKind
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed (%s): %v", e.Kind, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// IsRetryable reports whether the executor may retry the query.
// Only transient connection failures qualify.
func (e *ExecutionError) IsRetryable() bool {
	return e.Kind == ExecTransient
}

// NewExecution creates a classified execution error.
func NewExecution(kind ExecutionKind, cause error) *ExecutionError {
	return &ExecutionError{Kind: kind, Cause: cause}
}

// PipelineStageError indicates a deep-analysis stage failed.
type PipelineStageError struct {
	Stage string
	Cause error
}

func (e *PipelineStageError) Error() string {
	return fmt.Sprintf("pipeline stage %s failed: %v", e.Stage, e.Cause)
}

func (e *PipelineStageError) Unwrap() error { return e.Cause }

// NewPipelineStage wraps a stage failure with the stage name.
func NewPipelineStage(stage string, cause error) *PipelineStageError {
	return &PipelineStageError{Stage: stage, Cause: cause}
}
