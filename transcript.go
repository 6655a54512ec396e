package parley

import "time"

// Transcript is a saved conversation: the visible entries plus enough
// metadata to identify it later. In-flight streaming entries are finalized
// before saving, so a loaded transcript never resumes a session.
type Transcript struct {
	ID      string
	Mode    Mode
	SavedAt time.Time
	Entries []TranscriptEntry
}
