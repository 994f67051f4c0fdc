package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{"auth 401", errors.New("status code 401: unauthorized"), ErrorTypeAuth, false},
		{"bad api key", errors.New("invalid api key provided"), ErrorTypeAuth, false},
		{"model missing", errors.New("the model `gpt-5-nope` does not exist"), ErrorTypeModel, false},
		{"endpoint 404", errors.New("status code 404"), ErrorTypeEndpoint, false},
		{"refused", errors.New("dial tcp: connection refused"), ErrorTypeEndpoint, true},
		{"timeout", errors.New("context deadline exceeded (timeout)"), ErrorTypeEndpoint, true},
		{"rate limited", errors.New("status code 429: rate limit exceeded"), ErrorTypeUnknown, true},
		{"server error", errors.New("status code 503 service unavailable"), ErrorTypeEndpoint, true},
		{"unknown", errors.New("something odd"), ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.retryable, got.IsRetryable())
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyErrorNil(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))
}

func TestClassifyErrorPassthrough(t *testing.T) {
	orig := &Error{Type: ErrorTypeAuth, Message: "authentication failed"}
	assert.Same(t, orig, ClassifyError(orig))
}
