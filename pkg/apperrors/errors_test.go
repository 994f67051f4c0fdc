package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionErrorUnwrap(t *testing.T) {
	cause := errors.New("relation \"sales\" does not exist")
	err := NewExecution(ExecTableNotFound, cause)

	assert.ErrorIs(t, err, cause)

	var execErr *ExecutionError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &execErr))
	assert.Equal(t, ExecTableNotFound, execErr.Kind)
}

func TestExecutionErrorRetryable(t *testing.T) {
	assert.True(t, NewExecution(ExecTransient, errors.New("connection refused")).IsRetryable())
	assert.False(t, NewExecution(ExecColumnNotFound, errors.New("column")).IsRetryable())
	assert.False(t, NewExecution(ExecUnknown, errors.New("boom")).IsRetryable())
}

func TestSynthesisErrorMessage(t *testing.T) {
	err := NewSynthesis("query", errors.New("no valid JSON found in response"))
	assert.Contains(t, err.Error(), "synthesis failed (query)")
	assert.Contains(t, err.Error(), "no valid JSON")
}

func TestInputValidationMessage(t *testing.T) {
	assert.Equal(t, `invalid input: field "question": required`,
		NewInputValidation("question", "required").Error())
	assert.Equal(t, "invalid input: empty body",
		(&InputValidationError{Reason: "empty body"}).Error())
}

func TestPipelineStageErrorUnwrap(t *testing.T) {
	cause := NewSynthesis("sql_batch", errors.New("timeout"))
	err := NewPipelineStage("generate_sql_batch", cause)

	var synthErr *SynthesisError
	assert.True(t, errors.As(err, &synthErr))
	assert.Contains(t, err.Error(), "generate_sql_batch")
}
