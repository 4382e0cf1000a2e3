package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestComplete_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body completeBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "model-a", body.Model)
		assert.Len(t, body.Messages, 2)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"text":  `{"classification":"ignore"}`,
			"model": "model-a",
			"usage": map[string]int{"input_tokens": 120, "output_tokens": 15},
			"cost":  0.0031,
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(Config{
		Endpoint:  srv.URL,
		APIKey:    "sk-test",
		Model:     "model-a",
		MaxTokens: 512,
		Timeout:   5 * time.Second,
	}, zap.NewNop())

	out, err := client.Complete(context.Background(), CompleteRequest{
		Messages: []ChatMessage{
			{Role: "user", Content: "a"},
			{Role: "user", Content: "b"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"classification":"ignore"}`, out.Text)
	assert.Equal(t, 120, out.InputTokens)
	assert.Equal(t, 15, out.OutputTokens)
	assert.InDelta(t, 0.0031, out.Cost, 1e-9)
}

func TestComplete_RetriesOnceThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(Config{Endpoint: srv.URL, Model: "model-a"}, zap.NewNop())

	_, err := client.Complete(context.Background(), CompleteRequest{
		Messages: []ChatMessage{{Role: "user", Content: "a"}},
	})
	assert.Error(t, err)
	// one attempt plus exactly one retry
	assert.EqualValues(t, 2, calls.Load())
}

func TestComplete_RecoversOnRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"text": "ok"})
	}))
	defer srv.Close()

	client := NewHTTPClient(Config{Endpoint: srv.URL, Model: "model-a"}, zap.NewNop())

	out, err := client.Complete(context.Background(), CompleteRequest{
		Messages: []ChatMessage{{Role: "user", Content: "a"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)
	assert.EqualValues(t, 2, calls.Load())
}

func TestComplete_TimedOutAttemptIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// stall past the per-attempt timeout, then bail when the
			// client gives up on this attempt
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"text": "ok"})
	}))
	defer srv.Close()

	client := NewHTTPClient(Config{
		Endpoint: srv.URL,
		Model:    "model-a",
		Timeout:  100 * time.Millisecond,
	}, zap.NewNop())

	out, err := client.Complete(context.Background(), CompleteRequest{
		Messages: []ChatMessage{{Role: "user", Content: "a"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)
	assert.EqualValues(t, 2, calls.Load())
}

func TestComplete_NotConfigured(t *testing.T) {
	client := NewHTTPClient(Config{}, zap.NewNop())
	_, err := client.Complete(context.Background(), CompleteRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
