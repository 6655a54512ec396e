package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/parleyhq/parley"
)

// stream implements [parley.EventStream] by decoding blank-line-framed
// events from an HTTP response body. Incoming bytes are buffered and split
// on the blank-line separator, so event boundaries that straddle
// network-chunk boundaries decode correctly. One instance per attempt;
// not restartable.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	ctx     context.Context
	log     *slog.Logger
	done    bool
	err     error // terminal error, if any
	pending error // reported one read after an ErrorEvent
}

// Interface compliance check.
var _ parley.EventStream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser, log *slog.Logger) *stream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(scanBlocks)
	return &stream{body: body, scanner: sc, ctx: ctx, log: log}
}

// scanBlocks is a bufio.SplitFunc yielding blank-line-delimited blocks. A
// trailing partial block is held until more bytes arrive or EOF.
func scanBlocks(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		return i + 2, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Next reads the next semantic event. Returns io.EOF when the stream
// completes normally. After a server error event is yielded, the following
// call reports the failure.
func (s *stream) Next() (parley.StreamEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.pending != nil {
		s.err = s.pending
		s.pending = nil
		return nil, s.err
	}
	if s.done {
		return nil, io.EOF
	}

	for {
		// Cooperative cancellation: checked between chunks.
		if s.ctx.Err() != nil {
			s.err = context.Cause(s.ctx)
			return nil, s.err
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				s.err = fmt.Errorf("backend: %w", err)
				return nil, s.err
			}
			s.done = true
			return nil, io.EOF
		}

		evt := s.decodeBlock(s.scanner.Text())
		if evt != nil {
			return evt, nil
		}
		if s.done {
			// [DONE] terminates immediately, buffered bytes or not.
			return nil, io.EOF
		}
		// Heartbeat or dropped block, keep reading.
	}
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	return s.body.Close()
}

// decodeBlock parses one framed block into a semantic event. Returns nil
// for heartbeats, unrecognized tags and malformed payloads; a corrupt
// event never aborts the stream.
func (s *stream) decodeBlock(block string) parley.StreamEvent {
	var tag string
	var dataBuf strings.Builder

	for line := range strings.Lines(block) {
		line = strings.TrimRight(line, "\r\n")
		if v, ok := strings.CutPrefix(line, "data: "); ok {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(v)
		} else if v, ok := strings.CutPrefix(line, "event: "); ok {
			tag = v
		}
		// Comments and unknown fields are ignored.
	}

	data := dataBuf.String()
	switch data {
	case "", "keep-alive":
		// Transport heartbeat, silently consumed.
		return nil
	case "[DONE]":
		s.done = true
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		s.log.Warn("backend: dropping malformed event payload", "error", err)
		return nil
	}

	if tag == "" {
		// No explicit tag: fall back to the payload's type property.
		tag, _ = payload["type"].(string)
	}

	switch tag {
	case "text":
		return parley.TextEvent{Text: firstString(payload, "data", "content", "text")}

	case "status":
		return parley.StatusEvent{Message: firstString(payload, "message", "status")}

	case "complete":
		s.done = true
		full, _ := payload["fullText"].(string)
		return parley.CompleteEvent{FullText: full}

	case "error":
		msg, _ := payload["message"].(string)
		s.pending = fmt.Errorf("backend: stream error: %s", msg)
		return parley.ErrorEvent{Message: msg}

	default:
		// Unrecognized event types are dropped for forward compatibility.
		return nil
	}
}

// firstString returns the first of the named payload fields that holds a
// string value.
func firstString(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := payload[k].(string); ok {
			return v
		}
	}
	return ""
}
