package telegram

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// UpdateHandler consumes inbound updates. Each update is handled on its own
// goroutine; handlers isolate their own failures.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd Update)
}

// Poller drives the bot through getUpdates long polling, for deployments
// without a public webhook URL.
type Poller struct {
	client  *Client
	handler UpdateHandler
	logger  *logrus.Logger
}

// NewPoller creates a new long-poll loop around the client
func NewPoller(client *Client, handler UpdateHandler, logger *logrus.Logger) *Poller {
	return &Poller{
		client:  client,
		handler: handler,
		logger:  logger,
	}
}

// DeleteWebhook removes any configured webhook so getUpdates can take over
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.post(ctx, "deleteWebhook", map[string]any{})
}

// GetUpdates fetches pending updates, long polling up to timeout seconds
func (c *Client) GetUpdates(ctx context.Context, offset, timeout int) ([]Update, error) {
	result, err := c.call(ctx, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         timeout,
		"allowed_updates": []string{"message", "callback_query"},
	})
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// Run polls until the context is cancelled
func (p *Poller) Run(ctx context.Context) error {
	if err := p.client.DeleteWebhook(ctx); err != nil {
		p.logger.WithError(err).Warn("Failed to delete webhook before polling")
	}

	p.logger.Info("Polling for updates")

	offset := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := p.client.GetUpdates(ctx, offset, 30)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.WithError(err).Warn("Polling failed, retrying")
			time.Sleep(2 * time.Second)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			go p.handler.HandleUpdate(context.Background(), upd)
		}
	}
}
