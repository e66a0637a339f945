// Package bot implements the browse state machine: each inbound command or
// callback token becomes exactly one menu render or media dispatch. There is
// no server-held session, the token alone addresses the next screen.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MMN3003/telegram-commander/internal/config"
	"github.com/MMN3003/telegram-commander/internal/metrics"
	"github.com/MMN3003/telegram-commander/internal/models"
	"github.com/MMN3003/telegram-commander/internal/services/telegram"
	"github.com/MMN3003/telegram-commander/internal/utils"
)

const (
	searchPrompt = "Send /search <i>name</i> to look up a title."
	helpText     = "This bot browses the media catalog.\n\n" +
		"/start — main menu\n" +
		"/search <i>name</i> — find titles by name\n" +
		"/help — this message\n\n" +
		"Tap a title, then a season, then an episode to receive its media."
	failureText        = "Something went wrong, please try again."
	unknownCommandText = "Unknown command."
)

// Sender is the outbound surface the state machine needs from the transport.
type Sender interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) error
	SendPhoto(ctx context.Context, req telegram.SendPhotoRequest) error
	SendVideo(ctx context.Context, req telegram.SendVideoRequest) error
	SendMediaGroup(ctx context.Context, req telegram.SendMediaGroupRequest) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error
}

// Handler drives the browse state machine
type Handler struct {
	db     *models.Database
	client Sender
	logger *logrus.Logger
	delay  time.Duration // gap between sequential video sends
}

// NewHandler creates a new browse handler
func NewHandler(db *models.Database, client Sender, cfg *config.Config, logger *logrus.Logger) *Handler {
	return &Handler{
		db:     db,
		client: client,
		logger: logger,
		delay:  cfg.MessageDelay,
	}
}

// HandleUpdate routes one inbound update. Failures are logged and isolated,
// never propagated to the caller.
func (h *Handler) HandleUpdate(ctx context.Context, upd telegram.Update) {
	switch {
	case upd.Message != nil:
		metrics.UpdatesTotal.WithLabelValues("message").Inc()
		h.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		metrics.UpdatesTotal.WithLabelValues("callback_query").Inc()
		h.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *telegram.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch {
	case text == "/start":
		h.send(ctx, chatID, "Welcome! What would you like to do?", mainMenuKeyboard())
	case text == "/help":
		h.send(ctx, chatID, helpText, nil)
	case strings.HasPrefix(text, "/search"):
		h.handleSearch(ctx, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/search")))
	default:
		h.send(ctx, chatID, searchPrompt, nil)
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	// Acknowledge first so the client-side loading indicator clears even if
	// rendering fails below. An ack failure only logs.
	if err := h.client.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		h.logger.WithError(err).WithField("callback_id", cb.ID).Warn("Failed to acknowledge callback")
	}

	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	decoded, err := ParseCallback(cb.Data)
	if err != nil {
		h.logger.WithField("data", cb.Data).Debug("Unknown callback token")
		h.send(ctx, chatID, unknownCommandText, nil)
		return
	}

	switch c := decoded.(type) {
	case OpenEntry:
		h.renderSeasons(ctx, chatID, c.EntryID)
	case BackToEntry:
		h.renderSeasons(ctx, chatID, c.EntryID)
	case OpenSeason:
		h.renderEpisodes(ctx, chatID, c.EntryID, c.Season)
	case OpenEpisode:
		h.dispatchMedia(ctx, chatID, c)
	case BackToSearch:
		h.send(ctx, chatID, searchPrompt, nil)
	case ShowHelp:
		h.send(ctx, chatID, helpText, nil)
	case PromptSearch:
		h.send(ctx, chatID, searchPrompt, nil)
	}
}

func (h *Handler) handleSearch(ctx context.Context, chatID int64, query string) {
	if query == "" {
		h.send(ctx, chatID, searchPrompt, nil)
		return
	}

	entries, err := h.db.SearchEntries(query)
	if err != nil {
		h.storeFailure(ctx, chatID, err, "search")
		return
	}

	if len(entries) == 0 {
		text := fmt.Sprintf("No results for <b>%s</b>.", telegram.EscapeHTML(query))
		if names, err := h.db.EntryNames(); err == nil {
			if suggestion, ok := utils.ClosestMatch(query, names); ok {
				text += fmt.Sprintf("\nDid you mean <b>%s</b>?", telegram.EscapeHTML(suggestion))
			}
		}
		h.send(ctx, chatID, text, nil)
		return
	}

	h.send(ctx, chatID, "Select a title:", entryKeyboard(entries))
}

func (h *Handler) renderSeasons(ctx context.Context, chatID int64, entryID uint) {
	entry, err := h.db.GetEntry(entryID)
	if err != nil {
		h.storeFailure(ctx, chatID, err, "entry lookup")
		return
	}

	seasons, err := h.db.DistinctSeasons(entryID)
	if err != nil {
		h.storeFailure(ctx, chatID, err, "season listing")
		return
	}

	text := fmt.Sprintf("<b>%s</b>\nSelect a season:", telegram.EscapeHTML(entry.Name))
	h.send(ctx, chatID, text, seasonKeyboard(entryID, seasons))
}

func (h *Handler) renderEpisodes(ctx context.Context, chatID int64, entryID uint, season string) {
	entry, err := h.db.GetEntry(entryID)
	if err != nil {
		h.storeFailure(ctx, chatID, err, "entry lookup")
		return
	}

	episodes, err := h.db.DistinctEpisodes(entryID, season)
	if err != nil {
		h.storeFailure(ctx, chatID, err, "episode listing")
		return
	}

	text := fmt.Sprintf("<b>%s</b> — %s\nSelect an episode:",
		telegram.EscapeHTML(entry.Name), telegram.EscapeHTML(seasonLabel(season)))
	h.send(ctx, chatID, text, episodeKeyboard(entryID, season, episodes))
}

// dispatchMedia is the terminal state: images go out as one grouped album,
// videos sequentially with the caption on the first send only. Each delivery
// is awaited before the next, so one callback's media arrives in row order.
func (h *Handler) dispatchMedia(ctx context.Context, chatID int64, c OpenEpisode) {
	entry, err := h.db.GetEntry(c.EntryID)
	if err != nil {
		h.storeFailure(ctx, chatID, err, "entry lookup")
		return
	}

	items, err := h.db.MediaFor(c.EntryID, c.Season, c.Episode)
	if err != nil {
		h.storeFailure(ctx, chatID, err, "media query")
		return
	}

	if len(items) == 0 {
		h.send(ctx, chatID, "No media found for this episode.", nil)
		return
	}

	var images, videos []models.MediaItem
	for _, item := range items {
		switch item.Kind {
		case models.KindImage:
			images = append(images, item)
		case models.KindVideo:
			videos = append(videos, item)
		}
	}

	var delivered []uint

	if len(images) > 0 {
		// Telegram caps albums at 10 photos
		for start := 0; start < len(images); start += 10 {
			end := start + 10
			if end > len(images) {
				end = len(images)
			}
			media := make([]telegram.InputMediaPhoto, 0, end-start)
			for _, img := range images[start:end] {
				media = append(media, telegram.InputMediaPhoto{Type: "photo", Media: img.URL})
			}
			if err := h.client.SendMediaGroup(ctx, telegram.SendMediaGroupRequest{ChatID: chatID, Media: media}); err != nil {
				h.logger.WithError(err).Error("Failed to send photo group")
				h.send(ctx, chatID, failureText, nil)
				return
			}
			for _, img := range images[start:end] {
				delivered = append(delivered, img.ID)
			}
		}
	}

	caption := fmt.Sprintf("<b>%s</b>\n%s %s",
		telegram.EscapeHTML(entry.Name),
		telegram.EscapeHTML(seasonLabel(c.Season)),
		telegram.EscapeHTML(episodeLabel(c.Episode)))

	for i, video := range videos {
		if i > 0 {
			time.Sleep(h.delay)
		}
		req := telegram.SendVideoRequest{ChatID: chatID, Video: video.URL}
		if i == 0 {
			req.Caption = caption
			req.ParseMode = "HTML"
		}
		if err := h.client.SendVideo(ctx, req); err != nil {
			h.logger.WithError(err).WithField("url", video.URL).Error("Failed to send video")
			h.send(ctx, chatID, failureText, nil)
			return
		}
		delivered = append(delivered, video.ID)
	}

	// Advisory only, nothing reads this back
	if err := h.db.MarkDelivered(delivered); err != nil {
		h.logger.WithError(err).Warn("Failed to mark media delivered")
	}
}

func (h *Handler) send(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboardMarkup) {
	err := h.client.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   "HTML",
		ReplyMarkup: keyboard,
	})
	if err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

// storeFailure converts a store error into a generic user-facing message and
// aborts the transition for this chat only.
func (h *Handler) storeFailure(ctx context.Context, chatID int64, err error, op string) {
	h.logger.WithError(err).WithField("op", op).Error("Catalog store query failed")
	h.send(ctx, chatID, failureText, nil)
}
