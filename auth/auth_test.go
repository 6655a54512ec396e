package auth_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/auth"
)

func newStore(t *testing.T, opts ...auth.Option) *auth.FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	return auth.NewFileStore(path, opts...)
}

func TestFileStore_LoginThenToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t, auth.WithUser("ada"))

	res, err := s.Login(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "ada")

	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	status, err := s.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Authenticated)
	assert.Equal(t, "ada", status.User)
}

func TestFileStore_TokenWithoutLogin(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	_, err := s.Token(context.Background())
	assert.ErrorIs(t, err, parley.ErrNotAuthenticated)

	status, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Authenticated)
}

func TestFileStore_Logout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Login(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx))

	_, err = s.Token(ctx)
	assert.ErrorIs(t, err, parley.ErrNotAuthenticated)

	// Logging out twice is fine.
	assert.NoError(t, s.Logout(ctx))
}

func TestFileStore_ExpiredCredential(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t, auth.WithTTL(-time.Hour))

	_, err := s.Login(ctx)
	require.NoError(t, err)

	_, err = s.Token(ctx)
	assert.ErrorIs(t, err, parley.ErrNotAuthenticated)

	status, err := s.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Authenticated)
}

func TestFileStore_LoginReplacesToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Login(ctx)
	require.NoError(t, err)
	first, err := s.Token(ctx)
	require.NoError(t, err)

	_, err = s.Login(ctx)
	require.NoError(t, err)
	second, err := s.Token(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
