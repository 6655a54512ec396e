package parley

// Action is a sealed interface over the closed vocabulary of state
// transitions. No action performs I/O; service calls live in the session
// manager, which dispatches actions only after I/O completes or progresses.
// The unexported marker method prevents external implementations and keeps
// the reducer's type switch exhaustive.
type Action interface {
	action()
}

// SetMode switches the input mode.
type SetMode struct {
	Mode Mode
}

func (SetMode) action() {}

// SetInput replaces the pending input line.
type SetInput struct {
	Text string
}

func (SetInput) action() {}

// AppendEntry pushes an entry onto the transcript, then truncates to the
// most recent MaxEntries.
type AppendEntry struct {
	Entry TranscriptEntry
}

func (AppendEntry) action() {}

// ClearHistory drops the whole transcript. Active sessions stay registered;
// their entries are gone, so further content updates no-op.
type ClearHistory struct{}

func (ClearHistory) action() {}

// StartStreaming appends the session's streaming entry and registers the
// session in the active set.
type StartStreaming struct {
	SessionID string
	Entry     StreamingEntry
}

func (StartStreaming) action() {}

// UpdateStreamingContent replaces the entry's partial content with the full
// accumulated string. A no-op when the entry is missing or already
// finalized.
type UpdateStreamingContent struct {
	EntryID string
	Content string
}

func (UpdateStreamingContent) action() {}

// CompleteStreaming finalizes the entry with its final content and removes
// the session from the active set. Natural completion; mutually exclusive
// with StopStreaming.
type CompleteStreaming struct {
	SessionID    string
	EntryID      string
	FinalContent string
}

func (CompleteStreaming) action() {}

// StopStreaming finalizes the entry with an annotation (user stop, timeout,
// terminal failure) and removes the session from the active set.
type StopStreaming struct {
	SessionID string
	EntryID   string
	Note      string
}

func (StopStreaming) action() {}

// RemoveStreamingEntries deletes the sessions' entries outright, as opposed
// to StopStreaming which retains a visible annotated entry.
type RemoveStreamingEntries struct {
	SessionIDs []string
}

func (RemoveStreamingEntries) action() {}

// SetConnectionStatus records the most recent connection transition.
type SetConnectionStatus struct {
	Status ConnectionStatus
}

func (SetConnectionStatus) action() {}

// SetAuthStatus records an authentication lifecycle transition.
type SetAuthStatus struct {
	Auth AuthStatus
}

func (SetAuthStatus) action() {}

// Interface compliance checks.
var (
	_ Action = SetMode{}
	_ Action = SetInput{}
	_ Action = AppendEntry{}
	_ Action = ClearHistory{}
	_ Action = StartStreaming{}
	_ Action = UpdateStreamingContent{}
	_ Action = CompleteStreaming{}
	_ Action = StopStreaming{}
	_ Action = RemoveStreamingEntries{}
	_ Action = SetConnectionStatus{}
	_ Action = SetAuthStatus{}
)
