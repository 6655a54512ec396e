package parley

// StreamEvent is a sealed interface representing a decoded streaming event.
// Events are purely semantic. Transport/protocol errors come from the
// decoder's error return, not from events.
// The unexported marker method prevents external implementations.
type StreamEvent interface {
	streamEvent()
}

// TextEvent carries an incremental piece of response text.
type TextEvent struct {
	Text string
}

func (TextEvent) streamEvent() {}

// StatusEvent carries transient progress text (handshakes, server notices).
type StatusEvent struct {
	Message string
}

func (StatusEvent) streamEvent() {}

// CompleteEvent signals successful end of a response. FullText, when
// non-empty, is the server's authoritative copy of the whole response.
type CompleteEvent struct {
	FullText string
}

func (CompleteEvent) streamEvent() {}

// ErrorEvent carries a server-reported failure. The decoder yields it as an
// event first so listeners can observe the message, then fails on the
// following read.
type ErrorEvent struct {
	Message string
}

func (ErrorEvent) streamEvent() {}

// Interface compliance checks.
var (
	_ StreamEvent = TextEvent{}
	_ StreamEvent = StatusEvent{}
	_ StreamEvent = CompleteEvent{}
	_ StreamEvent = ErrorEvent{}
)
