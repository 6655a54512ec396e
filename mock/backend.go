// Package mock provides test doubles for parley interfaces using function
// fields.
package mock

import (
	"context"

	"github.com/parleyhq/parley"
)

// Interface compliance checks.
var (
	_ parley.Backend     = (*Backend)(nil)
	_ parley.EventStream = (*EventStream)(nil)
)

// Backend is a test double for parley.Backend.
// Set the function fields for the methods you need. HealthFn and
// InitSessionFn are nil-safe (healthy, zero session) because most stream
// tests never exercise the handshake.
type Backend struct {
	OpenStreamFn func(ctx context.Context, req parley.StreamRequest) (parley.EventStream, error)
	HealthFn     func(ctx context.Context) error
	InitSessionFn func(ctx context.Context) (parley.SessionInfo, error)
}

// OpenStream delegates to OpenStreamFn.
func (b *Backend) OpenStream(ctx context.Context, req parley.StreamRequest) (parley.EventStream, error) {
	return b.OpenStreamFn(ctx, req)
}

// Health delegates to HealthFn. Reports healthy when HealthFn is not set.
func (b *Backend) Health(ctx context.Context) error {
	if b.HealthFn == nil {
		return nil
	}
	return b.HealthFn(ctx)
}

// InitSession delegates to InitSessionFn. Returns a zero session when
// InitSessionFn is not set.
func (b *Backend) InitSession(ctx context.Context) (parley.SessionInfo, error) {
	if b.InitSessionFn == nil {
		return parley.SessionInfo{}, nil
	}
	return b.InitSessionFn(ctx)
}

// EventStream is a test double for parley.EventStream.
// NextFn panics when nil to catch missing setup. CloseFn is nil-safe
// because test code commonly calls defer stream.Close() without caring
// about the result.
type EventStream struct {
	NextFn  func() (parley.StreamEvent, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *EventStream) Next() (parley.StreamEvent, error) {
	return s.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *EventStream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
