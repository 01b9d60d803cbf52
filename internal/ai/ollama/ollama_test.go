package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsinfi/prompt-with-friends-backend/internal/ai"
)

func TestCompleteSendsSystemPrompt(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":" meow "}}`))
	}))
	defer srv.Close()

	client := New(srv.URL+"/", "tiny")
	out, err := client.Complete(context.Background(), "draw a cat")

	require.NoError(t, err)
	assert.Equal(t, "meow", out)
	assert.Equal(t, "tiny", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, []chatMessage{{Role: "system", Content: "draw a cat"}}, got.Messages)
}

func TestCompleteNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Complete(context.Background(), "x")
	assert.Error(t, err)
}

func TestCompleteEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":""}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ai.ErrEmptyCompletion)
}

func TestNewDefaults(t *testing.T) {
	client := New("", "")
	assert.Equal(t, DefaultHost, client.host)
	assert.Equal(t, DefaultModel, client.model)
}
