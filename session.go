package parley

import (
	"context"
	"time"
)

// SessionKind identifies what a streaming session is producing.
type SessionKind string

const (
	SessionResponse   SessionKind = "response"
	SessionThinking   SessionKind = "thinking"
	SessionConnection SessionKind = "connection"
)

// StreamingSession is the manager-side record of one in-flight stream. It is
// owned exclusively by the session manager while active; the transcript-side
// view lives in State.Active. Cancel is the session's cancellation handle
// and is only ever invoked by the manager. At most one session exists per
// transcript entry.
type StreamingSession struct {
	ID        string
	Kind      SessionKind
	EntryID   string
	StartTime time.Time
	Cancel    context.CancelCauseFunc
}
