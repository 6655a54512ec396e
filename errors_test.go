package parley_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/parleyhq/parley"
)

func TestErrorKind_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "network", parley.ErrorNetwork.String())
	assert.Equal(t, "authentication", parley.ErrorAuthentication.String())
	assert.Equal(t, "rate_limit", parley.ErrorRateLimit.String())
	assert.Equal(t, "server_error", parley.ErrorServer.String())
	assert.Equal(t, "timeout", parley.ErrorTimeout.String())
	assert.Equal(t, "cancelled", parley.ErrorCancelled.String())
	assert.Equal(t, "unknown", parley.ErrorUnknown.String())
}

func TestErrorKind_Retryable(t *testing.T) {
	t.Parallel()
	assert.True(t, parley.ErrorNetwork.Retryable())
	assert.True(t, parley.ErrorTimeout.Retryable())
	assert.True(t, parley.ErrorServer.Retryable())
	assert.True(t, parley.ErrorRateLimit.Retryable())
	assert.False(t, parley.ErrorAuthentication.Retryable())
	assert.False(t, parley.ErrorCancelled.Retryable())
	assert.False(t, parley.ErrorUnknown.Retryable())
}

func TestFailure_ErrorAndUnwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("dial tcp: connection refused")
	f := &parley.Failure{
		Kind:       parley.ErrorNetwork,
		Message:    "connection refused",
		RetryAfter: 2 * time.Second,
		Cause:      cause,
	}
	assert.Equal(t, "network: connection refused", f.Error())
	assert.ErrorIs(t, f, cause)
}
