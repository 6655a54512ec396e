package json

import (
	"fmt"
	"time"

	"github.com/parleyhq/parley"
)

// entryDTO is the JSON representation of a TranscriptEntry with a type
// discriminator.
type entryDTO struct {
	Type          string    `json:"type"`
	ID            string    `json:"id"`
	Text          *string   `json:"text,omitempty"`
	IsError       *bool     `json:"is_error,omitempty"`
	Authenticated *bool     `json:"authenticated,omitempty"`
	Kind          *string   `json:"kind,omitempty"`
	Content       *string   `json:"content,omitempty"`
	Note          *string   `json:"note,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func marshalEntry(e parley.TranscriptEntry) (entryDTO, error) {
	switch v := e.(type) {
	case parley.UserEntry:
		return entryDTO{
			Type:      "user",
			ID:        v.EntryID,
			Text:      &v.Text,
			Timestamp: v.Timestamp,
		}, nil
	case parley.SystemEntry:
		return entryDTO{
			Type:      "system",
			ID:        v.EntryID,
			Text:      &v.Text,
			IsError:   &v.IsError,
			Timestamp: v.Timestamp,
		}, nil
	case parley.ActionEntry:
		return entryDTO{
			Type:      "action",
			ID:        v.EntryID,
			Text:      &v.Text,
			Timestamp: v.Timestamp,
		}, nil
	case parley.AuthEntry:
		return entryDTO{
			Type:          "auth",
			ID:            v.EntryID,
			Text:          &v.Text,
			Authenticated: &v.Authenticated,
			Timestamp:     v.Timestamp,
		}, nil
	case parley.StreamingEntry:
		kind := string(v.Kind)
		return entryDTO{
			Type:      "streaming",
			ID:        v.EntryID,
			Kind:      &kind,
			Content:   &v.Content,
			Note:      &v.Note,
			Timestamp: v.Timestamp,
		}, nil
	default:
		return entryDTO{}, fmt.Errorf("unknown entry type: %T", e)
	}
}

func unmarshalEntry(dto entryDTO) (parley.TranscriptEntry, error) {
	text := func() string {
		if dto.Text != nil {
			return *dto.Text
		}
		return ""
	}

	switch dto.Type {
	case "user":
		return parley.UserEntry{
			EntryID:   dto.ID,
			Text:      text(),
			Timestamp: dto.Timestamp,
		}, nil
	case "system":
		var isErr bool
		if dto.IsError != nil {
			isErr = *dto.IsError
		}
		return parley.SystemEntry{
			EntryID:   dto.ID,
			Text:      text(),
			IsError:   isErr,
			Timestamp: dto.Timestamp,
		}, nil
	case "action":
		return parley.ActionEntry{
			EntryID:   dto.ID,
			Text:      text(),
			Timestamp: dto.Timestamp,
		}, nil
	case "auth":
		var authed bool
		if dto.Authenticated != nil {
			authed = *dto.Authenticated
		}
		return parley.AuthEntry{
			EntryID:       dto.ID,
			Text:          text(),
			Authenticated: authed,
			Timestamp:     dto.Timestamp,
		}, nil
	case "streaming":
		var kind, content, note string
		if dto.Kind != nil {
			kind = *dto.Kind
		}
		if dto.Content != nil {
			content = *dto.Content
		}
		if dto.Note != nil {
			note = *dto.Note
		}
		// A persisted streaming entry is always finalized.
		return parley.StreamingEntry{
			EntryID:    dto.ID,
			Kind:       parley.SessionKind(kind),
			Content:    content,
			IsComplete: true,
			Note:       note,
			Timestamp:  dto.Timestamp,
		}, nil
	default:
		return nil, fmt.Errorf("unknown entry type: %q", dto.Type)
	}
}
