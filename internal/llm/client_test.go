package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/taskmaster/internal/apperr"
)

// chatServer mimics the OpenAI chat completions endpoint.
func chatServer(t *testing.T, reply string, delay time.Duration, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
}

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New(Config{Provider: "openai"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "mystery", APIKey: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNew_Anthropic(t *testing.T) {
	c, err := New(Config{Provider: "anthropic", APIKey: "k"})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestComplete_ReturnsModelText(t *testing.T) {
	var calls int32
	srv := chatServer(t, `{"function":"viewTasks","parameters":{}}`, 0, &calls)
	defer srv.Close()

	c, err := New(Config{Provider: "openai", APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), Request{System: "sys", User: "show my list"})
	require.NoError(t, err)
	assert.Equal(t, `{"function":"viewTasks","parameters":{}}`, out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestComplete_TimeoutIsUpstream(t *testing.T) {
	var calls int32
	srv := chatServer(t, "late", 2*time.Second, &calls)
	defer srv.Close()

	c, err := New(Config{Provider: "openai", APIKey: "test-key", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{System: "sys", User: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Contains(t, err.Error(), "model request timed out")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no retries")
}

func TestComplete_ServerErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c, err := New(Config{Provider: "openai", APIKey: "wrong", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{System: "sys", User: "hi"})
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestUnavailable(t *testing.T) {
	c := Unavailable(ErrMissingAPIKey)
	_, err := c.Complete(context.Background(), Request{User: "hi"})
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestClientFunc(t *testing.T) {
	c := ClientFunc(func(ctx context.Context, req Request) (string, error) {
		return req.System + "|" + req.User, nil
	})
	out, err := c.Complete(context.Background(), Request{System: "a", User: "b"})
	require.NoError(t, err)
	assert.Equal(t, "a|b", out)
}
