package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/chat-ops/chat-relay/internal/logger"
)

var (
	ErrTimeout     = errors.New("chat_platform_timeout")
	ErrUnavailable = errors.New("chat_platform_unavailable")
)

// StatusError is a non-2xx answer from the chat platform.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat platform returned %d: %s", e.StatusCode, e.Body)
}

// Client is the surface the relay consumes from the chat platform: create a
// message with a caller-supplied id, and fully replace the text of an
// existing one. The patch is a full replace, which is what makes repeated
// reconciliation idempotent.
type Client interface {
	CreateMessage(ctx context.Context, spaceID, messageID, text, threadID string) error
	PatchMessage(ctx context.Context, spaceID, messageID, text string) error
}

// HTTPClient talks to the chat platform REST API with a scoped bearer
// credential. Constructed once at startup and never mutated afterwards.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type messageBody struct {
	Text   string      `json:"text"`
	Thread *threadBody `json:"thread,omitempty"`
}

type threadBody struct {
	Name string `json:"name"`
}

// CreateMessage publishes the placeholder. messageID is the client-supplied
// identity, so platform-side retries under the same id deduplicate.
func (c *HTTPClient) CreateMessage(ctx context.Context, spaceID, messageID, text, threadID string) error {
	u := fmt.Sprintf("%s/v1/%s/messages?messageId=%s", c.baseURL, spaceID, url.QueryEscape(messageID))

	body := messageBody{Text: text}
	if threadID != "" {
		body.Thread = &threadBody{Name: threadID}
	}

	return c.do(ctx, http.MethodPost, u, body)
}

// PatchMessage replaces the entire text of spaceID/messages/messageID.
func (c *HTTPClient) PatchMessage(ctx context.Context, spaceID, messageID, text string) error {
	u := fmt.Sprintf("%s/v1/%s/messages/%s?updateMask=text", c.baseURL, spaceID, url.PathEscape(messageID))

	return c.do(ctx, http.MethodPatch, u, messageBody{Text: text})
}

func (c *HTTPClient) do(ctx context.Context, method, u string, body any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Ctx(ctx).Warn().
			Err(err).
			Str("method", method).
			Dur("duration", time.Since(start)).
			Msg("chat_request_failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	logger.Ctx(ctx).Debug().
		Str("method", method).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("chat_request_completed")
	return nil
}
