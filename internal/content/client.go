package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/lib/logger/sl"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

//go:generate mockgen -destination=mocks/completer.go -package=mocks . Completer

// Completer turns a chat transcript into one assistant reply.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type ClientConfig struct {
	URL         string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	cfg   ClientConfig
	http  *http.Client
	log   *slog.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg ClientConfig, log *slog.Logger) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		log:   log,
		sleep: sleepCtx,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

var errMalformedReply = errors.New("malformed completion reply")

// statusError is a non-2xx reply.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("completion endpoint returned %d: %s", e.code, e.body)
}

func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	const op = "content.client.Complete"
	log := c.log.With(slog.String("op", op), slog.String("model", c.cfg.Model))

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		reply, err := c.do(ctx, body)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !retryable(ctx, err) || attempt == c.cfg.MaxAttempts {
			break
		}

		backoff := c.cfg.BaseBackoff << (attempt - 1)
		log.Warn("completion attempt failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			sl.Err(err),
		)
		if err := c.sleep(ctx, backoff); err != nil {
			lastErr = err
			break
		}
	}

	return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, lastErr)
}

func (c *Client) do(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &statusError{code: resp.StatusCode, body: truncate(string(raw), 200)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", errMalformedReply, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", errMalformedReply)
	}
	return parsed.Choices[0].Message.Content, nil
}

// retryable covers transport failures, timeouts, 5xx and 429.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, errMalformedReply) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// truncate keeps at most n bytes of s without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
