// Package json persists transcripts as versioned JSON files.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/parleyhq/parley"
)

// envelope is the v1 wire format for a persisted transcript.
type envelope struct {
	Version int        `json:"version"`
	ID      string     `json:"id"`
	Mode    string     `json:"mode"`
	SavedAt time.Time  `json:"saved_at"`
	Entries []entryDTO `json:"entries"`
}

// MarshalTranscript serializes a Transcript to JSON in v1 envelope format.
func MarshalTranscript(tr parley.Transcript) ([]byte, error) {
	env := envelope{
		Version: 1,
		ID:      tr.ID,
		Mode:    string(tr.Mode),
		SavedAt: tr.SavedAt,
		Entries: make([]entryDTO, len(tr.Entries)),
	}
	for i, e := range tr.Entries {
		dto, err := marshalEntry(e)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		env.Entries[i] = dto
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalTranscript deserializes a Transcript from JSON in v1 envelope
// format.
func UnmarshalTranscript(data []byte) (parley.Transcript, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return parley.Transcript{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return parley.Transcript{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	entries := make([]parley.TranscriptEntry, len(env.Entries))
	for i, dto := range env.Entries {
		e, err := unmarshalEntry(dto)
		if err != nil {
			return parley.Transcript{}, fmt.Errorf("entry %d: %w", i, err)
		}
		entries[i] = e
	}
	return parley.Transcript{
		ID:      env.ID,
		Mode:    parley.Mode(env.Mode),
		SavedAt: env.SavedAt,
		Entries: entries,
	}, nil
}

// Save writes a Transcript to a JSON file, creating parent directories as
// needed. The write is atomic: temp file then rename.
func Save(path string, tr parley.Transcript) error {
	data, err := MarshalTranscript(tr)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Transcript from a JSON file.
func Load(path string) (parley.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return parley.Transcript{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalTranscript(data)
}

// List returns the transcript files under dir, relative to dir, sorted
// lexically. Nested directories are included.
func List(dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.json")
	if err != nil {
		return nil, fmt.Errorf("glob transcripts: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}
