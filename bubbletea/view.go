package bubbletea

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/markdown"
)

func (m Model) renderTranscript() string {
	if len(m.state.Entries) == 0 {
		return m.styles.Muted.Render("No messages yet. Type below to start.")
	}
	var b strings.Builder
	for i, e := range m.state.Entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderEntry(e))
	}
	return b.String()
}

func (m Model) renderEntry(e parley.TranscriptEntry) string {
	width := m.Viewport.Width
	if width <= 0 {
		width = 80
	}

	switch e := e.(type) {
	case parley.UserEntry:
		return m.styles.UserMsg.Render("> ") + e.Text

	case parley.SystemEntry:
		if e.IsError {
			return m.styles.Error.Render("✗ " + e.Text)
		}
		return m.styles.Muted.Render(e.Text)

	case parley.ActionEntry:
		return m.styles.Muted.Render("· " + e.Text)

	case parley.AuthEntry:
		if e.Authenticated {
			return m.styles.Success.Render("● " + e.Text)
		}
		return m.styles.Muted.Render("● " + e.Text)

	case parley.StreamingEntry:
		return m.renderStreaming(e, width)

	default:
		return ""
	}
}

func (m Model) renderStreaming(e parley.StreamingEntry, width int) string {
	var body string
	switch {
	case e.Kind == parley.SessionThinking:
		body = m.styles.Thinking.Render(e.Content)
	case e.Kind == parley.SessionConnection:
		body = m.styles.Muted.Render(e.Content)
	case e.IsComplete && e.Note == "":
		// Finished responses get full markdown; partial content is shown
		// raw because half a code fence reflows on every delta.
		body = markdown.Render(e.Content, width, m.theme)
	default:
		body = m.styles.Streaming.Render(e.Content)
	}

	if !e.IsComplete {
		if body == "" {
			return m.Spinner.View()
		}
		return body + " " + m.Spinner.View()
	}
	if e.Note != "" {
		return body + m.styles.Muted.Render(" ("+e.Note+")")
	}
	return body
}

// statusLine renders one line of connection, mode and key-hint info, fitted
// to the viewport width.
func (m Model) statusLine() string {
	parts := []string{m.statusIndicator(), string(m.state.Mode)}

	if m.state.Auth.Authenticated && m.state.Auth.User != "" {
		parts = append(parts, m.state.Auth.User)
	}
	if m.state.CanCancel {
		if preview := m.streamPreview(); preview != "" {
			parts = append(parts, preview)
		}
		parts = append(parts, "Esc to stop")
	} else {
		parts = append(parts, "Enter to send, Ctrl+C to quit")
	}

	line := strings.Join(parts, " · ")
	width := m.Viewport.Width
	if width > 0 {
		line = runewidth.Truncate(line, width, "…")
	}
	return m.styles.Muted.Render(line)
}

func (m Model) statusIndicator() string {
	label := m.state.Status.String()
	switch m.state.Status {
	case parley.StatusConnected:
		return m.styles.Success.Render("●") + " " + label
	case parley.StatusStreaming:
		return m.Spinner.View() + " " + label
	case parley.StatusError:
		return m.styles.Error.Render("●") + " " + label
	default:
		return m.styles.Muted.Render("●") + " " + label
	}
}

// streamPreview returns the tail of the newest in-flight entry, clipped to
// a handful of grapheme clusters so combining marks and emoji never split.
func (m Model) streamPreview() string {
	for i := len(m.state.Entries) - 1; i >= 0; i-- {
		se, ok := m.state.Entries[i].(parley.StreamingEntry)
		if !ok || se.IsComplete || se.Content == "" {
			continue
		}
		return clipGraphemes(strings.ReplaceAll(se.Content, "\n", " "), 24)
	}
	return ""
}

// clipGraphemes returns at most max grapheme clusters from the end of s.
func clipGraphemes(s string, max int) string {
	if uniseg.GraphemeClusterCount(s) <= max {
		return s
	}
	g := uniseg.NewGraphemes(s)
	var clusters []string
	for g.Next() {
		clusters = append(clusters, g.Str())
	}
	return fmt.Sprintf("…%s", strings.Join(clusters[len(clusters)-max:], ""))
}
