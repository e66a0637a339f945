// Package telegram wraps the Bot API with the delivery guarantees the rest of
// the process relies on: rate-limit-aware retry, a minimum gap between
// outbound calls and HTML escaping of untrusted text.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/MMN3003/telegram-commander/internal/config"
	"github.com/MMN3003/telegram-commander/internal/metrics"
)

// APIError is a non-OK response from the Bot API.
type APIError struct {
	Code        int
	Description string
	RetryAfter  time.Duration // only set on rate-limit responses
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

// RateLimited reports whether the error is a throttling response that should
// be retried after the interval the API asked for.
func (e *APIError) RateLimited() bool {
	return e.Code == http.StatusTooManyRequests
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes text for HTML parse mode so catalog names and filenames
// cannot inject formatting.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Client wraps direct Bot API HTTP calls
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger

	retryMax   uint64
	retryDelay time.Duration // fallback when a 429 carries no retry_after
	minGap     time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// NewClient creates a new Bot API client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	return &Client{
		baseURL: fmt.Sprintf("https://api.telegram.org/bot%s", cfg.BotToken),
		httpClient: &http.Client{
			// Long enough for getUpdates long polls
			Timeout: 45 * time.Second,
		},
		logger:     logger,
		retryMax:   uint64(cfg.RetryMax),
		retryDelay: cfg.RetryDelay,
		minGap:     cfg.MessageDelay,
	}, nil
}

// SendMessage sends a text message, optionally with an inline keyboard
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	return c.post(ctx, "sendMessage", req)
}

// SendPhoto sends a single photo with an optional caption
func (c *Client) SendPhoto(ctx context.Context, req SendPhotoRequest) error {
	return c.post(ctx, "sendPhoto", req)
}

// SendVideo sends a single video with an optional caption
func (c *Client) SendVideo(ctx context.Context, req SendVideoRequest) error {
	return c.post(ctx, "sendVideo", req)
}

// SendMediaGroup sends a grouped photo album
func (c *Client) SendMediaGroup(ctx context.Context, req SendMediaGroupRequest) error {
	return c.post(ctx, "sendMediaGroup", req)
}

// AnswerCallbackQuery acknowledges a callback, clearing the client-side
// loading indicator
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error {
	return c.post(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackQueryID,
	})
}

// DeleteMessage deletes a previously sent message
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return c.post(ctx, "deleteMessage", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	})
}

// retryAfterBackOff waits exactly as long as the API's last retry_after hint,
// falling back to a fixed delay when the hint was absent.
type retryAfterBackOff struct {
	next     time.Duration
	fallback time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	if b.next > 0 {
		return b.next
	}
	return b.fallback
}

func (b *retryAfterBackOff) Reset() {}

// post delivers one API call with pacing and bounded rate-limit retry. Any
// error other than a throttling response is surfaced immediately.
func (c *Client) post(ctx context.Context, method string, payload any) error {
	bo := &retryAfterBackOff{fallback: c.retryDelay}

	operation := func() error {
		c.pace()

		_, err := c.call(ctx, method, payload)
		if err == nil {
			metrics.DeliveriesTotal.WithLabelValues(method).Inc()
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RateLimited() {
			bo.next = apiErr.RetryAfter
			metrics.DeliveryRetries.Inc()
			c.logger.WithFields(logrus.Fields{
				"method":      method,
				"retry_after": apiErr.RetryAfter,
			}).Warn("Rate limited by Telegram")
			return err
		}

		return backoff.Permanent(err)
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, c.retryMax), ctx))
}

// pace enforces the minimum gap between outbound calls. The lock is held
// across the sleep so concurrent senders queue behind the gap instead of
// stampeding the API.
func (c *Client) pace() {
	if c.minGap <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if wait := c.minGap - time.Since(c.lastCall); wait > 0 {
		time.Sleep(wait)
	}
	c.lastCall = time.Now()
}

// call performs one HTTP round trip and decodes the Bot API envelope.
func (c *Client) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var envelope struct {
		OK          bool            `json:"ok"`
		Result      json.RawMessage `json:"result"`
		ErrorCode   int             `json:"error_code"`
		Description string          `json:"description"`
		Parameters  *struct {
			RetryAfter int `json:"retry_after"`
		} `json:"parameters"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", method, err)
	}

	if envelope.OK {
		return envelope.Result, nil
	}

	apiErr := &APIError{
		Code:        envelope.ErrorCode,
		Description: envelope.Description,
	}
	if envelope.Parameters != nil {
		apiErr.RetryAfter = time.Duration(envelope.Parameters.RetryAfter) * time.Second
	}
	return nil, apiErr
}
