package retry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/retry"
)

func TestClassify_Nil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, retry.Classify(nil))
}

func TestClassify_Kinds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want parley.ErrorKind
	}{
		{"context canceled", context.Canceled, parley.ErrorCancelled},
		{"wrapped canceled", fmt.Errorf("read: %w", context.Canceled), parley.ErrorCancelled},
		{"user stop", parley.ErrStoppedByUser, parley.ErrorCancelled},
		{"abort marker", errors.New("request aborted"), parley.ErrorCancelled},
		{"deadline exceeded", context.DeadlineExceeded, parley.ErrorTimeout},
		{"timeout marker", errors.New("request timed out after 30s"), parley.ErrorTimeout},
		{"network marker", errors.New("network is unreachable"), parley.ErrorNetwork},
		{"fetch marker", errors.New("fetch failed"), parley.ErrorNetwork},
		{"connection marker", errors.New("connection refused"), parley.ErrorNetwork},
		{"401", errors.New("HTTP 401: bad token"), parley.ErrorAuthentication},
		{"unauthorized marker", errors.New("unauthorized"), parley.ErrorAuthentication},
		{"forbidden marker", errors.New("access forbidden"), parley.ErrorAuthentication},
		{"429", errors.New("HTTP 429: slow down"), parley.ErrorRateLimit},
		{"rate limit marker", errors.New("rate limit exceeded"), parley.ErrorRateLimit},
		{"500 server", errors.New("HTTP 503: server unavailable"), parley.ErrorServer},
		{"internal", errors.New("502: internal failure upstream"), parley.ErrorServer},
		{"plain 5xx without marker", errors.New("got 503"), parley.ErrorUnknown},
		{"mystery", errors.New("something odd happened"), parley.ErrorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := retry.Classify(tt.err)
			require.NotNil(t, f)
			assert.Equal(t, tt.want, f.Kind, "message %q", tt.err)
		})
	}
}

func TestClassify_CancelBeatsLaterMarkers(t *testing.T) {
	t.Parallel()
	// Marker order is fixed: a cancelled fetch is cancelled, not network.
	f := retry.Classify(errors.New("fetch cancelled by caller"))
	assert.Equal(t, parley.ErrorCancelled, f.Kind)
}

func TestClassify_RateLimitRetryAfter(t *testing.T) {
	t.Parallel()
	f := retry.Classify(errors.New("HTTP 429: rate limited, retry-after: 2"))
	require.Equal(t, parley.ErrorRateLimit, f.Kind)
	assert.Equal(t, 2*time.Second, f.RetryAfter)

	f = retry.Classify(errors.New("rate limit exceeded"))
	assert.Zero(t, f.RetryAfter)
}

func TestClassify_PassthroughFailure(t *testing.T) {
	t.Parallel()
	orig := &parley.Failure{
		Kind:       parley.ErrorRateLimit,
		Message:    "HTTP 429",
		RetryAfter: 5 * time.Second,
	}

	f := retry.Classify(fmt.Errorf("attempt 2: %w", orig))

	assert.Same(t, orig, f)
}

func TestClassify_PreservesCause(t *testing.T) {
	t.Parallel()
	cause := errors.New("connection reset by peer")
	f := retry.Classify(cause)
	assert.ErrorIs(t, f, cause)
	assert.Equal(t, cause.Error(), f.Message)
}
