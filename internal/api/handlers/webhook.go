package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/MMN3003/telegram-commander/internal/services/telegram"
)

// WebhookHandler handles Telegram webhook callbacks
type WebhookHandler struct {
	bot    telegram.UpdateHandler
	logger *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(bot telegram.UpdateHandler, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		bot:    bot,
		logger: logger,
	}
}

// ServeHTTP handles the webhook endpoint. Telegram only needs a prompt 200,
// the update itself is handled off the request goroutine.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var upd telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.logger.WithError(err).Error("Failed to decode webhook update")
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	go h.bot.HandleUpdate(context.Background(), upd)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
