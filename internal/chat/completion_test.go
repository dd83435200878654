package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionBody(contents ...string) map[string]any {
	choices := make([]map[string]any, 0, len(contents))
	for i, content := range contents {
		choices = append(choices, map[string]any{
			"index":         i,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		})
	}
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": choices,
	}
}

func fakeOpenAI(t *testing.T, status int, body any) (*httptest.Server, *[]map[string]any) {
	var requests []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		data, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var req map[string]any
		assert.NoError(t, json.Unmarshal(data, &req))
		requests = append(requests, req)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		assert.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestCompletion(url string) *OpenAICompletion {
	return NewOpenAICompletion(OpenAICompletionConfig{
		APIKey:     "test-key",
		BaseURL:    url + "/",
		Model:      "gpt-4o-mini",
		MaxRetries: 0,
	})
}

func TestOpenAICompletion(t *testing.T) {
	srv, requests := fakeOpenAI(t, http.StatusOK, completionBody("hi there"))

	answer, err := newTestCompletion(srv.URL).Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", answer)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "gpt-4o-mini", req["model"])
	messages := req["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
	assert.Equal(t, "hello", messages[0].(map[string]any)["content"])
}

func TestOpenAICompletionMalformed(t *testing.T) {
	srv, _ := fakeOpenAI(t, http.StatusOK, completionBody())
	_, err := newTestCompletion(srv.URL).Complete(context.Background(), "hello")
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, "the model returned no choices", upstreamErr.Reason)

	srv, _ = fakeOpenAI(t, http.StatusOK, completionBody("   "))
	_, err = newTestCompletion(srv.URL).Complete(context.Background(), "hello")
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, "the model returned an empty answer", upstreamErr.Reason)
}

func TestOpenAICompletionStatusErrors(t *testing.T) {
	errBody := map[string]any{"error": map[string]any{"message": "nope", "type": "invalid_request_error"}}

	for _, tc := range []struct {
		status    int
		retryable bool
	}{
		{status: http.StatusBadRequest, retryable: false},
		{status: http.StatusUnauthorized, retryable: false},
		{status: http.StatusTooManyRequests, retryable: true},
		{status: http.StatusInternalServerError, retryable: true},
	} {
		srv, _ := fakeOpenAI(t, tc.status, errBody)
		_, err := newTestCompletion(srv.URL).Complete(context.Background(), "hello")

		var upstreamErr *UpstreamError
		require.ErrorAs(t, err, &upstreamErr, "status %d", tc.status)
		assert.Equal(t, tc.retryable, upstreamErr.Retryable, "status %d", tc.status)
	}
}

func TestOpenAICompletionCancelled(t *testing.T) {
	srv, _ := fakeOpenAI(t, http.StatusOK, completionBody("hi there"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestCompletion(srv.URL).Complete(ctx, "hello")
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.True(t, errors.Is(err, context.Canceled))
}
