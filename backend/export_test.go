package backend

import (
	"context"
	"io"
	"log/slog"

	"github.com/parleyhq/parley"
)

// NewStream exposes the event-stream decoder for tests.
func NewStream(ctx context.Context, body io.ReadCloser, log *slog.Logger) parley.EventStream {
	return newStream(ctx, body, log)
}
