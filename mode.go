package parley

// Mode selects how user input is sent to the backend. Only chat and
// thinking modes stream responses; the others are explicit scope
// boundaries and produce a "not implemented" notice when selected.
type Mode string

const (
	ModeChat     Mode = "chat"
	ModeThinking Mode = "thinking"
	ModeVoice    Mode = "voice"
	ModeFiles    Mode = "files"
)

// SupportsStreaming reports whether the mode opens a streaming session.
func (m Mode) SupportsStreaming() bool {
	return m == ModeChat || m == ModeThinking
}

// SessionKind maps a streaming-capable mode to its session kind.
// Non-streaming modes map to SessionResponse as a neutral default.
func (m Mode) SessionKind() SessionKind {
	if m == ModeThinking {
		return SessionThinking
	}
	return SessionResponse
}
