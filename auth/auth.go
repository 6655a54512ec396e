// Package auth implements file-backed credentials for the chat service.
// Tokens live in a mode-0600 JSON file under the parley state directory;
// nothing is cached in memory, so an external logout takes effect on the
// next call.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/parleyhq/parley"
)

// Interface compliance check.
var _ parley.Authenticator = (*FileStore)(nil)

// credentials is the on-disk format.
type credentials struct {
	Token     string    `json:"token"`
	User      string    `json:"user"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileStore stores credentials in a single JSON file.
type FileStore struct {
	path string
	ttl  time.Duration
	user string
	now  func() time.Time
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithTTL sets the credential lifetime issued by Login.
func WithTTL(d time.Duration) Option {
	return func(s *FileStore) { s.ttl = d }
}

// WithUser overrides the user name recorded at login.
func WithUser(user string) Option {
	return func(s *FileStore) { s.user = user }
}

// NewFileStore creates a store writing to the given file path.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path: path,
		ttl:  30 * 24 * time.Hour,
		now:  time.Now,
	}
	if s.user = os.Getenv("USER"); s.user == "" {
		s.user = "parley"
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Login issues a fresh credential and persists it.
func (s *FileStore) Login(ctx context.Context) (parley.LoginResult, error) {
	now := s.now()
	creds := credentials{
		Token:     uuid.NewString(),
		User:      s.user,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.write(creds); err != nil {
		return parley.LoginResult{}, err
	}
	return parley.LoginResult{
		Success: true,
		Message: fmt.Sprintf("Signed in as %s", creds.User),
	}, nil
}

// Logout removes the stored credential. Logging out while logged out is
// not an error.
func (s *FileStore) Logout(ctx context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("auth: remove credentials: %w", err)
	}
	return nil
}

// Status reports whether a usable credential exists.
func (s *FileStore) Status(ctx context.Context) (parley.AuthStatus, error) {
	creds, err := s.read()
	if err != nil {
		return parley.AuthStatus{}, nil
	}
	if s.now().After(creds.ExpiresAt) {
		return parley.AuthStatus{}, nil
	}
	return parley.AuthStatus{Authenticated: true, User: creds.User}, nil
}

// Token returns the stored bearer token, or ErrNotAuthenticated when none
// is stored or the stored one has expired.
func (s *FileStore) Token(ctx context.Context) (string, error) {
	creds, err := s.read()
	if err != nil {
		return "", parley.ErrNotAuthenticated
	}
	if s.now().After(creds.ExpiresAt) {
		return "", fmt.Errorf("%w: credential expired", parley.ErrNotAuthenticated)
	}
	return creds.Token, nil
}

func (s *FileStore) read() (credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return credentials{}, err
	}
	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return credentials{}, fmt.Errorf("auth: parse credentials: %w", err)
	}
	return creds, nil
}

func (s *FileStore) write(creds credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("auth: marshal credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("auth: create directories: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("auth: write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("auth: rename credentials: %w", err)
	}
	return nil
}
