package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/backend"
	"github.com/parleyhq/parley/mock"
)

func TestClient_OpenStream(t *testing.T) {
	t.Parallel()
	var gotReq struct {
		Message        string `json:"message"`
		Mode           string `json:"mode"`
		ConversationID string `json:"conversation_id"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/stream", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Write([]byte("data: {\"type\":\"text\",\"data\":\"hi\"}\n\ndata: [DONE]\n\n"))
	}))
	defer srv.Close()

	client := backend.New(srv.URL, &mock.Authenticator{}, backend.WithLogger(discardLogger()))
	stream, err := client.OpenStream(context.Background(), parley.StreamRequest{
		Message:        "hello",
		Mode:           parley.ModeChat,
		ConversationID: "conv-1",
	})
	require.NoError(t, err)
	defer stream.Close()

	evt, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, parley.TextEvent{Text: "hi"}, evt)

	assert.Equal(t, "hello", gotReq.Message)
	assert.Equal(t, "chat", gotReq.Mode)
	assert.Equal(t, "conv-1", gotReq.ConversationID)
}

func TestClient_OpenStream_TokenFailure(t *testing.T) {
	t.Parallel()
	auth := &mock.Authenticator{
		TokenFn: func(ctx context.Context) (string, error) {
			return "", errors.New("keyring locked")
		},
	}

	client := backend.New("http://unused.invalid", auth, backend.WithLogger(discardLogger()))
	_, err := client.OpenStream(context.Background(), parley.StreamRequest{Message: "hi", Mode: parley.ModeChat})

	var f *parley.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, parley.ErrorAuthentication, f.Kind)
}

func TestClient_OpenStream_UnauthorizedInvokesHook(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"type":"auth","message":"token expired"}}`))
	}))
	defer srv.Close()

	hooked := false
	client := backend.New(srv.URL, &mock.Authenticator{},
		backend.WithLogger(discardLogger()),
		backend.WithUnauthorizedHook(func(ctx context.Context) { hooked = true }))

	_, err := client.OpenStream(context.Background(), parley.StreamRequest{Message: "hi", Mode: parley.ModeChat})

	var f *parley.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, parley.ErrorAuthentication, f.Kind)
	assert.Contains(t, f.Message, "token expired")
	assert.True(t, hooked)
}

func TestClient_OpenStream_RateLimitCarriesRetryAfter(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit","message":"slow down"}}`))
	}))
	defer srv.Close()

	client := backend.New(srv.URL, &mock.Authenticator{}, backend.WithLogger(discardLogger()))
	_, err := client.OpenStream(context.Background(), parley.StreamRequest{Message: "hi", Mode: parley.ModeChat})

	var f *parley.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, parley.ErrorRateLimit, f.Kind)
	assert.Equal(t, 2*time.Second, f.RetryAfter)
}

func TestClient_OpenStream_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	client := backend.New(srv.URL, &mock.Authenticator{}, backend.WithLogger(discardLogger()))
	_, err := client.OpenStream(context.Background(), parley.StreamRequest{Message: "hi", Mode: parley.ModeChat})

	var f *parley.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, parley.ErrorServer, f.Kind)
	assert.Contains(t, f.Message, "upstream exploded")
}

func TestClient_Health(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := backend.New(srv.URL, &mock.Authenticator{}, backend.WithLogger(discardLogger()))
	assert.NoError(t, client.Health(context.Background()))
}

func TestClient_Health_Down(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := backend.New(srv.URL, &mock.Authenticator{}, backend.WithLogger(discardLogger()))
	err := client.Health(context.Background())

	var f *parley.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, parley.ErrorServer, f.Kind)
}

func TestClient_InitSession(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/session", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(map[string]string{
			"conversation_id": "conv-42",
			"greeting":        "Welcome back.",
		})
	}))
	defer srv.Close()

	client := backend.New(srv.URL, &mock.Authenticator{}, backend.WithLogger(discardLogger()))
	info, err := client.InitSession(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "conv-42", info.ConversationID)
	assert.Equal(t, "Welcome back.", info.Greeting)
}
