package parley

import "context"

// EventStream uses a pull-based iterator pattern. Next returns io.EOF at
// normal end of stream; a server error event is yielded first and the
// following Next reports the failure. Cancellation flows through the
// context passed to Backend.OpenStream. One instance per stream attempt;
// not restartable.
type EventStream interface {
	Next() (StreamEvent, error)
	Close() error
}

// Backend is the remote chat endpoint collaborator.
//
// OpenStream posts a message and returns the decoded event stream.
// Health and InitSession are the pre-stream handshake calls; each carries
// its own timeout, distinct from the chat-stream timeout.
type Backend interface {
	OpenStream(ctx context.Context, req StreamRequest) (EventStream, error)
	Health(ctx context.Context) error
	InitSession(ctx context.Context) (SessionInfo, error)
}

// StreamRequest carries one conversation turn to the backend.
type StreamRequest struct {
	Message        string
	Mode           Mode
	ConversationID string
}

// SessionInfo is the result of the session-init handshake.
type SessionInfo struct {
	ConversationID string
	Greeting       string
}
