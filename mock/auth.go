package mock

import (
	"context"

	"github.com/parleyhq/parley"
)

// Interface compliance check.
var _ parley.Authenticator = (*Authenticator)(nil)

// Authenticator is a test double for parley.Authenticator.
// All function fields are nil-safe with authenticated defaults, so tests
// that only care about the happy path need no setup at all.
type Authenticator struct {
	LoginFn  func(ctx context.Context) (parley.LoginResult, error)
	LogoutFn func(ctx context.Context) error
	StatusFn func(ctx context.Context) (parley.AuthStatus, error)
	TokenFn  func(ctx context.Context) (string, error)
}

// Login delegates to LoginFn. Reports success when LoginFn is not set.
func (a *Authenticator) Login(ctx context.Context) (parley.LoginResult, error) {
	if a.LoginFn == nil {
		return parley.LoginResult{Success: true}, nil
	}
	return a.LoginFn(ctx)
}

// Logout delegates to LogoutFn. Returns nil when LogoutFn is not set.
func (a *Authenticator) Logout(ctx context.Context) error {
	if a.LogoutFn == nil {
		return nil
	}
	return a.LogoutFn(ctx)
}

// Status delegates to StatusFn. Reports authenticated when StatusFn is not
// set.
func (a *Authenticator) Status(ctx context.Context) (parley.AuthStatus, error) {
	if a.StatusFn == nil {
		return parley.AuthStatus{Authenticated: true, User: "test"}, nil
	}
	return a.StatusFn(ctx)
}

// Token delegates to TokenFn. Returns a fixed token when TokenFn is not set.
func (a *Authenticator) Token(ctx context.Context) (string, error) {
	if a.TokenFn == nil {
		return "test-token", nil
	}
	return a.TokenFn(ctx)
}
