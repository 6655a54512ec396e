package parley

import "time"

// TranscriptEntry is a sealed interface over the transcript record variants.
// All variants are immutable once appended except StreamingEntry, which is
// replaced in place by reducer actions until IsComplete is set.
// The unexported marker method prevents external implementations.
type TranscriptEntry interface {
	transcriptEntry()
	ID() string
}

// UserEntry records a message typed by the user.
type UserEntry struct {
	EntryID   string
	Text      string
	Timestamp time.Time
}

func (UserEntry) transcriptEntry() {}

// ID returns the entry's identifier.
func (e UserEntry) ID() string { return e.EntryID }

// SystemEntry records a system notice. IsError marks failure reports so the
// render layer can style them distinctly.
type SystemEntry struct {
	EntryID   string
	Text      string
	IsError   bool
	Timestamp time.Time
}

func (SystemEntry) transcriptEntry() {}

// ID returns the entry's identifier.
func (e SystemEntry) ID() string { return e.EntryID }

// ActionEntry records a local action taken by the client (mode switches,
// command feedback).
type ActionEntry struct {
	EntryID   string
	Text      string
	Timestamp time.Time
}

func (ActionEntry) transcriptEntry() {}

// ID returns the entry's identifier.
func (e ActionEntry) ID() string { return e.EntryID }

// AuthEntry records an authentication lifecycle transition.
type AuthEntry struct {
	EntryID       string
	Text          string
	Authenticated bool
	Timestamp     time.Time
}

func (AuthEntry) transcriptEntry() {}

// ID returns the entry's identifier.
func (e AuthEntry) ID() string { return e.EntryID }

// StreamingEntry is the live record of an in-flight response. Content is
// replaced wholesale on every update. IsComplete=true is terminal: no
// further content mutation happens after that point. Note annotates how the
// entry ended ("stopped by user", timeout text) and is empty for natural
// completion.
type StreamingEntry struct {
	EntryID    string
	Kind       SessionKind
	Content    string
	IsComplete bool
	CanStop    bool
	Note       string
	Timestamp  time.Time
}

func (StreamingEntry) transcriptEntry() {}

// ID returns the entry's identifier.
func (e StreamingEntry) ID() string { return e.EntryID }

// Interface compliance checks.
var (
	_ TranscriptEntry = UserEntry{}
	_ TranscriptEntry = SystemEntry{}
	_ TranscriptEntry = ActionEntry{}
	_ TranscriptEntry = AuthEntry{}
	_ TranscriptEntry = StreamingEntry{}
)
