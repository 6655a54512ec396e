package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/parleyhq/parley"
)

// Decision is the recovery action for a classified failure.
type Decision int

const (
	DecisionRetry Decision = iota
	DecisionBackoff
	DecisionReauthenticate
	DecisionCircuitBreak
	DecisionFallback
	DecisionFail
)

// String returns the snake_case name of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionRetry:
		return "retry"
	case DecisionBackoff:
		return "backoff"
	case DecisionReauthenticate:
		return "reauthenticate"
	case DecisionCircuitBreak:
		return "circuit_break"
	case DecisionFallback:
		return "fallback"
	default:
		return "fail"
	}
}

// Sentinel errors wrapping terminal Do outcomes so callers can distinguish
// them without re-deciding.
var (
	// ErrCircuitOpen indicates the breaker is refusing attempts for the key.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrFallback indicates repeated server errors; the caller should fall
	// back rather than keep retrying.
	ErrFallback = errors.New("fallback")

	// ErrReauthenticate indicates the credential is presumed stale and a
	// fresh login is required before any further attempt.
	ErrReauthenticate = errors.New("reauthentication required")
)

// Policy tracks per-key failure history and decides recovery. Keys are
// logical stream identities (session kinds), so failure history survives
// individual sessions.
type Policy struct {
	// MaxAttempts bounds retries for network/timeout failures per key.
	MaxAttempts int
	// BreakerThreshold is the cumulative failure count that opens the
	// breaker for a key.
	BreakerThreshold int
	// BreakerCooldown is how long an open breaker refuses attempts before
	// half-opening for one trial.
	BreakerCooldown time.Duration
	// InitialDelay, Multiplier and MaxDelay shape exponential backoff.
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	// JitterFraction is the maximum additive jitter, as a fraction of the
	// computed delay. Jitter is only ever added, never subtracted.
	JitterFraction float64

	now    func() time.Time
	jitter func() float64 // uniform in [0, 1)

	mu   sync.Mutex
	keys map[string]*keyState
}

// keyState is the per-key failure record. Created lazily on first failure,
// removed entirely on first success.
type keyState struct {
	failures   int
	serverRuns int // consecutive server_error failures
	open       bool
	halfOpen   bool
	reopenAt   time.Time
}

// NewPolicy returns a Policy with the default tuning: 3 retries, breaker at
// 5 failures with a 60s cooldown, 1s initial delay doubling to a 30s cap,
// 10% jitter.
func NewPolicy() *Policy {
	return &Policy{
		MaxAttempts:      3,
		BreakerThreshold: 5,
		BreakerCooldown:  60 * time.Second,
		InitialDelay:     time.Second,
		Multiplier:       2.0,
		MaxDelay:         30 * time.Second,
		JitterFraction:   0.10,
		now:              time.Now,
		jitter:           rand.Float64,
	}
}

// Decide records the failure against the key and returns the recovery
// action. Authentication always yields reauthenticate and cancelled always
// yields fail, both regardless of history: a stale credential or a user
// stop must never be silently retried.
func (p *Policy) Decide(kind parley.ErrorKind, key string) Decision {
	switch kind {
	case parley.ErrorAuthentication:
		return DecisionReauthenticate
	case parley.ErrorCancelled:
		return DecisionFail
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ks := p.keys[key]
	if ks == nil {
		if p.keys == nil {
			p.keys = map[string]*keyState{}
		}
		ks = &keyState{}
		p.keys[key] = ks
	}

	now := p.now()
	switch {
	case ks.open && now.Before(ks.reopenAt):
		return DecisionCircuitBreak
	case ks.open:
		// Cooldown elapsed: half-open, one trial permitted.
		ks.open = false
		ks.halfOpen = true
		ks.failures = 0
		ks.serverRuns = 0
	case ks.halfOpen:
		// The half-open trial failed: re-open and reset the wait.
		ks.halfOpen = false
		ks.open = true
		ks.reopenAt = now.Add(p.BreakerCooldown)
		return DecisionCircuitBreak
	}

	ks.failures++
	if kind != parley.ErrorServer {
		ks.serverRuns = 0
	}
	if ks.failures >= p.BreakerThreshold {
		ks.open = true
		ks.halfOpen = false
		ks.reopenAt = now.Add(p.BreakerCooldown)
		return DecisionCircuitBreak
	}

	switch kind {
	case parley.ErrorNetwork, parley.ErrorTimeout:
		if ks.failures > p.MaxAttempts {
			return DecisionCircuitBreak
		}
		return DecisionRetry

	case parley.ErrorRateLimit:
		return DecisionBackoff

	case parley.ErrorServer:
		ks.serverRuns++
		if ks.serverRuns >= 2 {
			return DecisionFallback
		}
		return DecisionRetry

	default:
		return DecisionFail
	}
}

// RecordSuccess resets the key's failure record to absent and clears any
// breaker state for it.
func (p *Policy) RecordSuccess(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.keys, key)
}

// Delay returns the wait before the given zero-indexed attempt. A non-zero
// server retryAfter is honored verbatim; otherwise the delay is
// InitialDelay * Multiplier^attempt capped at MaxDelay, plus up to
// JitterFraction additive jitter to avoid synchronized retries.
func (p *Policy) Delay(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	d *= 1 + p.JitterFraction*p.jitter()
	return time.Duration(d)
}

// Do runs op, reclassifying and re-deciding on each failure. For retry and
// backoff it sleeps (interruptible by ctx) and tries again; terminal
// decisions return the classified failure wrapped with the matching
// sentinel. Success clears the key's record.
func (p *Policy) Do(ctx context.Context, key string, op func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			p.RecordSuccess(key)
			return nil
		}

		failure := Classify(err)
		switch p.Decide(failure.Kind, key) {
		case DecisionRetry:
			if serr := sleep(ctx, p.Delay(attempt, 0)); serr != nil {
				return Classify(serr)
			}

		case DecisionBackoff:
			if serr := sleep(ctx, p.Delay(attempt, failure.RetryAfter)); serr != nil {
				return Classify(serr)
			}

		case DecisionReauthenticate:
			return fmt.Errorf("%w: %w", ErrReauthenticate, failure)

		case DecisionCircuitBreak:
			return fmt.Errorf("%w: %w", ErrCircuitOpen, failure)

		case DecisionFallback:
			return fmt.Errorf("%w: %w", ErrFallback, failure)

		default:
			return failure
		}
	}
}

// sleep waits for d or until ctx is done, whichever comes first. A pending
// interrupt always wins over a backoff wait.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-t.C:
		return nil
	}
}
