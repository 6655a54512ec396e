// Package backend implements the chat service HTTP client and the decoder
// for its chunked event-stream responses.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/parleyhq/parley"
)

const (
	chatPath    = "/v1/chat/stream"
	healthPath  = "/v1/health"
	sessionPath = "/v1/session"

	defaultHealthTimeout = 5 * time.Second
	defaultInitTimeout   = 10 * time.Second
)

// Interface compliance check.
var _ parley.Backend = (*Client)(nil)

// Client implements [parley.Backend] against the chat service API. Requests
// carry a bearer credential fetched from the Authenticator per call; the
// client never caches tokens.
type Client struct {
	baseURL       string
	auth          parley.Authenticator
	httpClient    *http.Client
	limiter       *rate.Limiter
	log           *slog.Logger
	healthTimeout time.Duration
	initTimeout   time.Duration
	// onUnauthorized runs before a 401/403 is surfaced, so stale
	// credentials are dropped before the error reaches the caller.
	onUnauthorized func(context.Context)
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRateLimit caps outgoing request rate so bursts of retries cannot
// self-inflict 429s.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithHandshakeTimeouts overrides the health and session-init timeouts.
func WithHandshakeTimeouts(health, init time.Duration) Option {
	return func(c *Client) {
		c.healthTimeout = health
		c.initTimeout = init
	}
}

// WithUnauthorizedHook sets a callback invoked when the server rejects the
// credential, before the authentication failure is returned.
func WithUnauthorizedHook(fn func(context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a Client for the given base URL, drawing bearer tokens from
// auth.
func New(baseURL string, auth parley.Authenticator, opts ...Option) *Client {
	c := &Client{
		baseURL:       baseURL,
		auth:          auth,
		httpClient:    http.DefaultClient,
		limiter:       rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		log:           slog.Default(),
		healthTimeout: defaultHealthTimeout,
		initTimeout:   defaultInitTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// OpenStream posts one conversation turn and returns the decoded event
// stream. The context governs both the request and all subsequent chunk
// reads.
func (c *Client) OpenStream(ctx context.Context, req parley.StreamRequest) (parley.EventStream, error) {
	body, err := json.Marshal(chatRequest{
		Message:        req.Message,
		Mode:           string(req.Mode),
		ConversationID: req.ConversationID,
	})
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, chatPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend: connection failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.statusError(ctx, resp)
	}

	return newStream(ctx, resp.Body, c.log), nil
}

// Health probes the backend with its own short timeout, distinct from the
// chat-stream timeout.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	httpReq, err := c.newRequest(ctx, http.MethodGet, healthPath, nil)
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("backend: connection failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.statusError(ctx, resp)
	}
	return nil
}

// InitSession establishes a conversation with the backend before the first
// chat turn.
func (c *Client) InitSession(ctx context.Context) (parley.SessionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.initTimeout)
	defer cancel()

	httpReq, err := c.newRequest(ctx, http.MethodPost, sessionPath, nil)
	if err != nil {
		return parley.SessionInfo{}, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return parley.SessionInfo{}, fmt.Errorf("backend: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return parley.SessionInfo{}, fmt.Errorf("backend: connection failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return parley.SessionInfo{}, c.statusError(ctx, resp)
	}

	var si sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&si); err != nil {
		return parley.SessionInfo{}, fmt.Errorf("backend: decode session response: %w", err)
	}
	return parley.SessionInfo{ConversationID: si.ConversationID, Greeting: si.Greeting}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, &parley.Failure{
			Kind:    parley.ErrorAuthentication,
			Message: "no usable credential",
			Cause:   err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// statusError maps a non-2xx response to a classified failure. 401/403
// triggers the unauthorized hook before surfacing, so the credential is
// dropped exactly once.
func (c *Client) statusError(ctx context.Context, resp *http.Response) error {
	msg := readErrorMessage(resp.Body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return &parley.Failure{
			Kind:    parley.ErrorAuthentication,
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, msg),
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		return &parley.Failure{
			Kind:       parley.ErrorRateLimit,
			Message:    fmt.Sprintf("HTTP 429: %s", msg),
			RetryAfter: retryAfterHeader(resp),
		}

	case resp.StatusCode >= 500:
		return &parley.Failure{
			Kind:    parley.ErrorServer,
			Message: fmt.Sprintf("HTTP %d: server error: %s", resp.StatusCode, msg),
		}

	default:
		return fmt.Errorf("backend: HTTP %d: %s", resp.StatusCode, msg)
	}
}

func retryAfterHeader(resp *http.Response) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// readErrorMessage extracts a human-readable message from an error body,
// tolerating both the JSON envelope and plain text.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var envelope errorResponse
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return string(bytes.TrimSpace(raw))
}
