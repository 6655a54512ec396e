// Package retry classifies stream failures and decides recovery: retry,
// backoff, circuit-break, reauthenticate, fallback, or fail.
package retry

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/parleyhq/parley"
)

// retryAfterRe matches a server-suggested delay in seconds embedded in an
// error message, e.g. "rate limited, retry-after: 2".
var retryAfterRe = regexp.MustCompile(`(?i)retry[-_ ]?after[:=]?\s*(\d+)`)

// serverCodeRe matches an HTTP 5xx status code in an error message.
var serverCodeRe = regexp.MustCompile(`\b5\d{2}\b`)

// Classify inspects a failure and returns it tagged with an ErrorKind.
// Classification is structural first (context errors), then textual over
// the message, in marker order: abort/cancel, timeout, network, auth,
// rate limit, server. Anything unmatched is unknown. An already-classified
// *parley.Failure passes through unchanged.
func Classify(err error) *parley.Failure {
	if err == nil {
		return nil
	}

	var f *parley.Failure
	if errors.As(err, &f) {
		return f
	}

	msg := err.Error()
	kind := classifyMessage(err, strings.ToLower(msg))

	failure := &parley.Failure{Kind: kind, Message: msg, Cause: err}
	if kind == parley.ErrorRateLimit {
		failure.RetryAfter = retryAfter(msg)
	}
	return failure
}

func classifyMessage(err error, msg string) parley.ErrorKind {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, parley.ErrStoppedByUser),
		strings.Contains(msg, "abort"),
		strings.Contains(msg, "cancel"):
		return parley.ErrorCancelled

	case errors.Is(err, context.DeadlineExceeded),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"):
		return parley.ErrorTimeout

	case strings.Contains(msg, "network"),
		strings.Contains(msg, "fetch"),
		strings.Contains(msg, "connection"):
		return parley.ErrorNetwork

	case strings.Contains(msg, "401"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "forbidden"):
		return parley.ErrorAuthentication

	case strings.Contains(msg, "429"),
		strings.Contains(msg, "rate limit"):
		return parley.ErrorRateLimit

	case serverCodeRe.MatchString(msg) &&
		(strings.Contains(msg, "server") || strings.Contains(msg, "internal")):
		return parley.ErrorServer

	default:
		return parley.ErrorUnknown
	}
}

// retryAfter extracts a server-suggested delay from the message text.
// Returns zero when none is present.
func retryAfter(msg string) time.Duration {
	m := retryAfterRe.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	secs, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}
