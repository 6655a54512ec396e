package parley

// ConnectionStatus reflects the most recent connection transition across all
// sessions. It is a single process-wide value, not per-session.
type ConnectionStatus int

const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusStreaming
	StatusStopped
	StatusError
)

// String returns the lowercase name of the status.
func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusStreaming:
		return "streaming"
	case StatusStopped:
		return "stopped"
	case StatusError:
		return "error"
	default:
		return "disconnected"
	}
}
