package content

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(url string, attempts int, timeout time.Duration) *Client {
	c := NewClient(ClientConfig{
		URL:         url,
		APIKey:      "key",
		Model:       "test-model",
		Temperature: 0.7,
		MaxTokens:   100,
		Timeout:     timeout,
		MaxAttempts: attempts,
		BaseBackoff: time.Millisecond,
	}, discard())
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
}

func TestCompleteSendsChatRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		assert.Equal(t, 100, body.MaxTokens)
		assert.Len(t, body.Messages, 2)

		reply(w, "hello")
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL, 3, time.Second).Complete(context.Background(), []Message{
		{Role: "system", Content: "s"},
		{Role: "user", Content: "u"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestCompleteTimesOutThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2, 30*time.Millisecond).Complete(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusBadGateway)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			reply(w, "ok")
		}
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL, 3, time.Second).Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 5, time.Second).Complete(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3, time.Second).Complete(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short", in: "abc", n: 5, want: "abc"},
		{name: "ascii", in: "abcdef", n: 3, want: "abc"},
		{name: "cut inside a rune", in: "abécd", n: 3, want: "ab"},
		{name: "cut after a rune", in: "abécd", n: 4, want: "abé"},
		{name: "wide runes", in: "你好", n: 4, want: "你"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
