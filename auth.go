package parley

import "context"

// Authenticator is the OAuth collaborator. Implementations own the browser
// flow and token storage; this package only consumes status and tokens and
// never persists credentials itself.
type Authenticator interface {
	Login(ctx context.Context) (LoginResult, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context) (AuthStatus, error)
	// Token returns the current access credential, or ErrNotAuthenticated
	// when none is available.
	Token(ctx context.Context) (string, error)
}

// AuthStatus describes the current authentication state.
type AuthStatus struct {
	Authenticated bool
	User          string
}

// LoginResult reports the outcome of a login attempt.
type LoginResult struct {
	Success bool
	Message string
}
