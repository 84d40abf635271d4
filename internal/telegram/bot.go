// Package telegram runs the bot: voice transactions, account linking and
// the daily reminder.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/kassa-bot/kassa/internal/engine"
	"github.com/kassa-bot/kassa/internal/service"
)

// Config holds the bot settings.
type Config struct {
	Token string
	Debug bool
}

// Bot wraps the Telegram API and routes updates into the voice engine.
type Bot struct {
	api         *bot.Bot
	store       service.Storage
	engine      *engine.Engine
	transcriber service.Transcriber
	httpClient  *http.Client
}

// New creates a Telegram bot instance.
func New(cfg Config, store service.Storage, eng *engine.Engine, transcriber service.Transcriber) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is required")
	}

	b := &Bot{
		store:       store,
		engine:      eng,
		transcriber: transcriber,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(b.handleMessage),
	}
	if cfg.Debug {
		opts = append(opts, bot.WithDebug())
	}

	api, err := bot.New(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	b.api = api
	b.registerHandlers()

	return b, nil
}

// Start runs the bot with long polling until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	me, err := b.api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot info: %w", err)
	}

	slog.Info("telegram bot started", "username", me.Username, "id", me.ID)
	b.api.Start(ctx)
	return nil
}

func (b *Bot) registerHandlers() {
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleStart)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, b.handleHelp)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "/balance", bot.MatchTypeExact, b.handleBalance)

	b.api.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackCategoryPrefix, bot.MatchTypePrefix, b.handleCategoryCallback)
	b.api.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackConfirmPrefix, bot.MatchTypePrefix, b.handleConfirmCallback)
}

// sendMessage sends a message and logs failures instead of returning them:
// a lost notification must not break update processing.
func (b *Bot) sendMessage(ctx context.Context, params *bot.SendMessageParams) *models.Message {
	msg, err := b.api.SendMessage(ctx, params)
	if err != nil {
		slog.Error("failed to send telegram message", "chat_id", params.ChatID, "error", err)
		return nil
	}
	return msg
}

func (b *Bot) editMessage(ctx context.Context, chatID int64, messageID int, text string, markup models.ReplyMarkup) {
	_, err := b.api.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		slog.Error("failed to edit telegram message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) answerCallback(ctx context.Context, callbackID, text string, alert bool) {
	_, err := b.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		slog.Error("failed to answer callback query", "error", err)
	}
}
