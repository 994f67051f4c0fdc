package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetryable struct {
	msg       string
	retryable bool
}

func (f *fakeRetryable) Error() string     { return f.msg }
func (f *fakeRetryable) IsRetryable() bool { return f.retryable }

func fastConfig() *Config {
	return &Config{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func TestDoWithResultSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(context.Background(), fastConfig(), func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("connection refused")
		}
		return "rows", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "rows", result)
	assert.Equal(t, 3, attempts)
}

func TestDoWithResultStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("syntax error at or near SELEC")
	attempts := 0
	_, err := DoWithResult(context.Background(), fastConfig(), func() (int, error) {
		attempts++
		return 0, permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestDoWithResultExhaustsAttempts(t *testing.T) {
	attempts := 0
	_, err := DoWithResult(context.Background(), fastConfig(), func() (int, error) {
		attempts++
		return 0, errors.New("i/o timeout")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoWithResultHonorsRetryableInterface(t *testing.T) {
	// An error whose text looks permanent but declares itself retryable.
	attempts := 0
	_, err := DoWithResult(context.Background(), fastConfig(), func() (int, error) {
		attempts++
		return 0, &fakeRetryable{msg: "weird driver state", retryable: true}
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)

	// And the reverse: transient-looking text, explicitly not retryable.
	attempts = 0
	_, err = DoWithResult(context.Background(), fastConfig(), func() (int, error) {
		attempts++
		return 0, &fakeRetryable{msg: "connection refused", retryable: false}
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, &Config{MaxAttempts: 3, BaseDelay: time.Minute}, func() error {
		return errors.New("connection reset")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(errors.New("dial tcp: connection refused")))
	assert.True(t, IsRetryable(errors.New("FATAL: too many clients already")))
	assert.False(t, IsRetryable(errors.New("column \"amout\" does not exist")))
	assert.False(t, IsRetryable(nil))
}
