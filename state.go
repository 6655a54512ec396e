package parley

// MaxEntries bounds the transcript to a trailing window; the oldest entries
// are evicted first. Truncation does not special-case entries whose session
// is still active: an evicted in-flight entry leaves its session registered
// with no visible surface, and later content updates silently no-op. That
// gap is inherited behavior, kept deliberately and covered by tests.
const MaxEntries = 100

// State is the transcript and session-registry snapshot. It is a value;
// Reduce never mutates its input, so snapshots handed to the render layer
// stay stable while new transitions land.
type State struct {
	Entries []TranscriptEntry
	// Active maps session ID to transcript entry ID for in-flight streams.
	Active    map[string]string
	Status    ConnectionStatus
	Mode      Mode
	Input     string
	Auth      AuthStatus
	CanCancel bool
}

// NewState returns an empty initial state.
func NewState() State {
	return State{
		Active: map[string]string{},
		Status: StatusDisconnected,
		Mode:   ModeChat,
	}
}

// Reduce applies an action and returns the next state. It is the only
// mutation path for the transcript and the active-session registry.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetMode:
		s.Mode = a.Mode
		return s

	case SetInput:
		s.Input = a.Text
		return s

	case AppendEntry:
		s.Entries = appendEntry(s.Entries, a.Entry)
		return s

	case ClearHistory:
		s.Entries = nil
		return s

	case StartStreaming:
		s.Entries = appendEntry(s.Entries, a.Entry)
		s.Active = cloneActive(s.Active)
		s.Active[a.SessionID] = a.Entry.EntryID
		s.CanCancel = true
		return s

	case UpdateStreamingContent:
		s.Entries = replaceStreaming(s.Entries, a.EntryID, func(e StreamingEntry) StreamingEntry {
			e.Content = a.Content
			return e
		})
		return s

	case CompleteStreaming:
		s.Entries = replaceStreaming(s.Entries, a.EntryID, func(e StreamingEntry) StreamingEntry {
			if a.FinalContent != "" {
				e.Content = a.FinalContent
			}
			e.IsComplete = true
			e.CanStop = false
			return e
		})
		s.Active = deleteActive(s.Active, a.SessionID)
		s.CanCancel = len(s.Active) > 0
		return s

	case StopStreaming:
		s.Entries = replaceStreaming(s.Entries, a.EntryID, func(e StreamingEntry) StreamingEntry {
			e.IsComplete = true
			e.CanStop = false
			e.Note = a.Note
			return e
		})
		s.Active = deleteActive(s.Active, a.SessionID)
		s.CanCancel = len(s.Active) > 0
		return s

	case RemoveStreamingEntries:
		remove := map[string]bool{}
		active := cloneActive(s.Active)
		for _, sid := range a.SessionIDs {
			if eid, ok := active[sid]; ok {
				remove[eid] = true
				delete(active, sid)
			}
		}
		if len(remove) > 0 {
			kept := make([]TranscriptEntry, 0, len(s.Entries))
			for _, e := range s.Entries {
				if !remove[e.ID()] {
					kept = append(kept, e)
				}
			}
			s.Entries = kept
		}
		s.Active = active
		s.CanCancel = len(s.Active) > 0
		return s

	case SetConnectionStatus:
		s.Status = a.Status
		return s

	case SetAuthStatus:
		s.Auth = a.Auth
		return s

	default:
		return s
	}
}

// appendEntry copies, appends and truncates to the MaxEntries trailing
// window, preserving relative order.
func appendEntry(entries []TranscriptEntry, e TranscriptEntry) []TranscriptEntry {
	next := make([]TranscriptEntry, len(entries), len(entries)+1)
	copy(next, entries)
	next = append(next, e)
	if len(next) > MaxEntries {
		next = next[len(next)-MaxEntries:]
	}
	return next
}

// replaceStreaming applies fn to the StreamingEntry with the given ID. The
// transition is a no-op when the entry is absent, a different variant, or
// already finalized — this is what makes duplicate or stale dispatch safe.
func replaceStreaming(entries []TranscriptEntry, entryID string, fn func(StreamingEntry) StreamingEntry) []TranscriptEntry {
	for i, e := range entries {
		se, ok := e.(StreamingEntry)
		if !ok || se.EntryID != entryID || se.IsComplete {
			continue
		}
		next := make([]TranscriptEntry, len(entries))
		copy(next, entries)
		next[i] = fn(se)
		return next
	}
	return entries
}

func cloneActive(m map[string]string) map[string]string {
	next := make(map[string]string, len(m))
	for k, v := range m {
		next[k] = v
	}
	return next
}

func deleteActive(m map[string]string, sessionID string) map[string]string {
	next := cloneActive(m)
	delete(next, sessionID)
	return next
}
