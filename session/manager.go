// Package session orchestrates streaming conversation turns: opening
// backend streams, folding decoded events into the transcript store,
// cancellation, timeouts, and recovery via the retry policy.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/retry"
)

const defaultStreamTimeout = 30 * time.Second

// Manager owns the lifecycle of in-flight streams. It is the only holder
// of cancellation handles; all transcript mutation flows through the store.
type Manager struct {
	store   *parley.Store
	backend parley.Backend
	auth    parley.Authenticator
	policy  *retry.Policy
	log     *slog.Logger

	streamTimeout time.Duration

	mu             sync.Mutex
	sessions       map[string]parley.StreamingSession
	ctxs           map[string]context.Context
	conversationID string

	wg sync.WaitGroup
}

// Option configures a [Manager].
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithPolicy sets the recovery policy.
func WithPolicy(p *retry.Policy) Option {
	return func(m *Manager) { m.policy = p }
}

// WithStreamTimeout overrides the per-attempt stream timeout.
func WithStreamTimeout(d time.Duration) Option {
	return func(m *Manager) { m.streamTimeout = d }
}

// New creates a Manager wired to the given store, backend and
// authenticator.
func New(store *parley.Store, backend parley.Backend, auth parley.Authenticator, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		backend:       backend,
		auth:          auth,
		policy:        retry.NewPolicy(),
		log:           slog.Default(),
		streamTimeout: defaultStreamTimeout,
		sessions:      map[string]parley.StreamingSession{},
		ctxs:          map[string]context.Context{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// StartStream begins a streaming turn for the message and returns the new
// session ID. It requires a usable credential and a streaming-capable mode;
// both refusals surface as transcript entries, not silent no-ops.
func (m *Manager) StartStream(ctx context.Context, message string, mode parley.Mode) (string, error) {
	if !mode.SupportsStreaming() {
		m.store.Dispatch(parley.AppendEntry{Entry: parley.ActionEntry{
			EntryID:   uuid.NewString(),
			Text:      fmt.Sprintf("%s mode is not implemented yet", mode),
			Timestamp: time.Now(),
		}})
		return "", parley.ErrModeNotSupported
	}

	if _, err := m.auth.Token(ctx); err != nil {
		m.store.Dispatch(parley.AppendEntry{Entry: parley.AuthEntry{
			EntryID:   uuid.NewString(),
			Text:      "Sign in required before chatting. Run: parley login",
			Timestamp: time.Now(),
		}})
		return "", parley.ErrNotAuthenticated
	}

	m.store.Dispatch(parley.AppendEntry{Entry: parley.UserEntry{
		EntryID:   uuid.NewString(),
		Text:      message,
		Timestamp: time.Now(),
	}})

	sess := m.register(ctx, mode.SessionKind())
	m.store.Dispatch(parley.StartStreaming{SessionID: sess.ID, Entry: parley.StreamingEntry{
		EntryID:   sess.EntryID,
		Kind:      sess.Kind,
		CanStop:   true,
		Timestamp: sess.StartTime,
	}})
	m.store.Dispatch(parley.SetConnectionStatus{Status: parley.StatusStreaming})

	m.wg.Add(1)
	go m.run(sess, message, mode)

	return sess.ID, nil
}

// StopStream cancels one session and finalizes its entry as user-stopped.
// Distinct from natural completion and from timeout: never retried, never
// reported as an error.
func (m *Manager) StopStream(sessionID string) error {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return parley.ErrSessionNotFound
	}

	sess.Cancel(parley.ErrStoppedByUser)
	m.store.Dispatch(parley.StopStreaming{
		SessionID: sess.ID,
		EntryID:   sess.EntryID,
		Note:      "stopped by user",
	})
	m.store.Dispatch(parley.SetConnectionStatus{Status: parley.StatusConnected})
	return nil
}

// StopAllStreams cancels every registered session. Wired to the global
// interrupt key; honored immediately regardless of retry or backoff state,
// because backoff sleeps select on the session context.
func (m *Manager) StopAllStreams() {
	for _, sess := range m.snapshot() {
		_ = m.StopStream(sess.ID)
	}
}

// RemoveStreams cancels the named sessions and deletes their transcript
// entries outright rather than finalizing them.
func (m *Manager) RemoveStreams(sessionIDs ...string) {
	for _, sid := range sessionIDs {
		m.mu.Lock()
		sess, ok := m.sessions[sid]
		m.mu.Unlock()
		if ok {
			sess.Cancel(parley.ErrStoppedByUser)
		}
	}
	m.store.Dispatch(parley.RemoveStreamingEntries{SessionIDs: sessionIDs})
	m.store.Dispatch(parley.SetConnectionStatus{Status: parley.StatusConnected})
}

// Connect performs the pre-chat handshake as a connection-kind session:
// health probe, then session init, with incremental status text through
// the same streaming-entry mechanism. Failure here is terminal for
// readiness and is not retried automatically.
func (m *Manager) Connect(ctx context.Context) {
	sess := m.register(ctx, parley.SessionConnection)
	m.store.Dispatch(parley.StartStreaming{SessionID: sess.ID, Entry: parley.StreamingEntry{
		EntryID:   sess.EntryID,
		Kind:      sess.Kind,
		Content:   "Connecting...",
		CanStop:   true,
		Timestamp: sess.StartTime,
	}})
	m.store.Dispatch(parley.SetConnectionStatus{Status: parley.StatusConnecting})

	m.wg.Add(1)
	go m.handshake(sess)
}

// Close cancels all sessions and waits for their goroutines to drain.
func (m *Manager) Close() {
	for _, sess := range m.snapshot() {
		sess.Cancel(context.Canceled)
	}
	m.wg.Wait()
}

// register allocates a session with its cancellation handle. The manager
// is the only party that ever invokes the handle.
func (m *Manager) register(ctx context.Context, kind parley.SessionKind) parley.StreamingSession {
	sctx, cancel := context.WithCancelCause(ctx)
	sess := parley.StreamingSession{
		ID:        uuid.NewString(),
		Kind:      kind,
		EntryID:   uuid.NewString(),
		StartTime: time.Now(),
		Cancel:    cancel,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.ctxs[sess.ID] = sctx
	m.mu.Unlock()
	return sess
}

func (m *Manager) sessionContext(sessionID string) context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx, ok := m.ctxs[sessionID]; ok {
		return ctx
	}
	return context.Background()
}

// run drives one chat turn under the retry policy and folds the terminal
// outcome into the transcript.
func (m *Manager) run(sess parley.StreamingSession, message string, mode parley.Mode) {
	defer m.wg.Done()
	defer m.release(sess.ID)

	ctx := m.sessionContext(sess.ID)
	key := "stream:" + string(sess.Kind)

	attempts := 0
	err := m.policy.Do(ctx, key, func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			// Transient status only; replaced by content on the next delta.
			m.store.Dispatch(parley.UpdateStreamingContent{
				EntryID: sess.EntryID,
				Content: fmt.Sprintf("Retrying (attempt %d)...", attempts),
			})
		}
		actx, cancel := context.WithTimeout(ctx, m.streamTimeout)
		defer cancel()
		return m.attempt(actx, sess, message, mode)
	})

	m.finish(sess, err)
}

// attempt opens the stream and consumes events until a terminal condition.
// The accumulated content is rebuilt per attempt; updates always carry the
// full string so duplicate dispatch stays idempotent.
func (m *Manager) attempt(ctx context.Context, sess parley.StreamingSession, message string, mode parley.Mode) error {
	stream, err := m.backend.OpenStream(ctx, parley.StreamRequest{
		Message:        message,
		Mode:           mode,
		ConversationID: m.conversation(),
	})
	if err != nil {
		return err
	}
	defer stream.Close()

	var accumulated string
	for {
		evt, err := stream.Next()
		if err == io.EOF {
			// Stream ended without an explicit complete event.
			m.complete(sess, accumulated)
			return nil
		}
		if err != nil {
			return err
		}

		// Once cancelled, buffered events are discarded, not dispatched.
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}

		switch e := evt.(type) {
		case parley.TextEvent:
			accumulated += e.Text
			m.store.Dispatch(parley.UpdateStreamingContent{
				EntryID: sess.EntryID,
				Content: accumulated,
			})

		case parley.StatusEvent:
			if accumulated == "" {
				m.store.Dispatch(parley.UpdateStreamingContent{
					EntryID: sess.EntryID,
					Content: e.Message,
				})
			}

		case parley.CompleteEvent:
			// Server-declared full text wins over local accumulation.
			final := e.FullText
			if final == "" {
				final = accumulated
			}
			m.complete(sess, final)
			return nil

		case parley.ErrorEvent:
			// Observed here; the decoder reports the failure on the next
			// read, which ends this loop.
			m.log.Warn("session: server error event", "session", sess.ID, "message", e.Message)
		}
	}
}

// handshake runs the connection-kind session: health probe then session
// init, surfacing progress through the streaming entry.
func (m *Manager) handshake(sess parley.StreamingSession) {
	defer m.wg.Done()
	defer m.release(sess.ID)

	ctx := m.sessionContext(sess.ID)

	m.store.Dispatch(parley.UpdateStreamingContent{
		EntryID: sess.EntryID,
		Content: "Checking backend health...",
	})
	if err := m.backend.Health(ctx); err != nil {
		m.fail(sess, retry.Classify(err), "backend is not reachable")
		return
	}

	m.store.Dispatch(parley.UpdateStreamingContent{
		EntryID: sess.EntryID,
		Content: "Establishing session...",
	})
	info, err := m.backend.InitSession(ctx)
	if err != nil {
		m.fail(sess, retry.Classify(err), "could not establish a session")
		return
	}
	m.setConversation(info.ConversationID)

	greeting := info.Greeting
	if greeting == "" {
		greeting = "Connected."
	}
	m.complete(sess, greeting)

	if status, err := m.auth.Status(context.WithoutCancel(ctx)); err == nil {
		m.store.Dispatch(parley.SetAuthStatus{Auth: status})
	}
}

// complete finalizes the session's entry on the natural completion path.
func (m *Manager) complete(sess parley.StreamingSession, final string) {
	m.store.Dispatch(parley.CompleteStreaming{
		SessionID:    sess.ID,
		EntryID:      sess.EntryID,
		FinalContent: final,
	})
	m.store.Dispatch(parley.SetConnectionStatus{Status: parley.StatusConnected})
}

// finish folds a terminal outcome from the retry executor into the
// transcript. nil means the attempt already completed the entry.
func (m *Manager) finish(sess parley.StreamingSession, err error) {
	if err == nil {
		return
	}
	failure := retry.Classify(err)

	switch {
	case failure.Kind == parley.ErrorCancelled:
		// User stop already finalized the entry; this also covers app
		// shutdown, where the same annotation applies.
		m.store.Dispatch(parley.StopStreaming{
			SessionID: sess.ID,
			EntryID:   sess.EntryID,
			Note:      "stopped by user",
		})
		m.store.Dispatch(parley.SetConnectionStatus{Status: parley.StatusConnected})

	case errors.Is(err, retry.ErrReauthenticate) || failure.Kind == parley.ErrorAuthentication:
		m.expireCredentials(sess)

	case errors.Is(err, retry.ErrCircuitOpen):
		m.fail(sess, failure,
			"too many failures; refusing further attempts for a short while")

	case errors.Is(err, retry.ErrFallback):
		m.fail(sess, failure,
			"the backend keeps failing; wait a moment and try again")

	default:
		m.fail(sess, failure, failure.Message)
	}
}

// fail finalizes the entry with the failure kind as its annotation and
// appends a visible error entry.
func (m *Manager) fail(sess parley.StreamingSession, failure *parley.Failure, notice string) {
	m.log.Error("session: stream failed",
		"session", sess.ID, "kind", failure.Kind.String(), "error", failure.Message)

	m.store.Dispatch(parley.StopStreaming{
		SessionID: sess.ID,
		EntryID:   sess.EntryID,
		Note:      failure.Kind.String(),
	})
	m.store.Dispatch(parley.AppendEntry{Entry: parley.SystemEntry{
		EntryID:   uuid.NewString(),
		Text:      notice,
		IsError:   true,
		Timestamp: time.Now(),
	}})
	m.store.Dispatch(parley.SetConnectionStatus{Status: parley.StatusError})
}

// expireCredentials handles a rejected credential: logout, auth-state
// reset, and a sign-in prompt. Never silently retried — the same stale
// token would be rejected again.
func (m *Manager) expireCredentials(sess parley.StreamingSession) {
	if err := m.auth.Logout(context.Background()); err != nil {
		m.log.Warn("session: logout after auth failure", "error", err)
	}
	m.store.Dispatch(parley.SetAuthStatus{Auth: parley.AuthStatus{}})
	m.store.Dispatch(parley.StopStreaming{
		SessionID: sess.ID,
		EntryID:   sess.EntryID,
		Note:      "authentication required",
	})
	m.store.Dispatch(parley.AppendEntry{Entry: parley.AuthEntry{
		EntryID:   uuid.NewString(),
		Text:      "Session expired. Run: parley login",
		Timestamp: time.Now(),
	}})
	m.store.Dispatch(parley.SetConnectionStatus{Status: parley.StatusDisconnected})
}

func (m *Manager) conversation() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversationID
}

func (m *Manager) setConversation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversationID = id
}

func (m *Manager) snapshot() []parley.StreamingSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]parley.StreamingSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// release drops the session's handle and cancels its context so timers and
// readers are freed on every exit path.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	delete(m.ctxs, sessionID)
	m.mu.Unlock()

	if ok {
		sess.Cancel(context.Canceled)
	}
}
