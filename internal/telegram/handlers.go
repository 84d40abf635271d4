package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/kassa-bot/kassa/internal/common"
	"github.com/kassa-bot/kassa/internal/engine"
)

// handleStart greets the user. "/start <code>" redeems a link code issued
// by the web application and attaches the Telegram account.
func (b *Bot) handleStart(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	fields := strings.Fields(update.Message.Text)
	if len(fields) > 1 {
		code := fields[1]
		user, err := b.store.RedeemLinkCode(ctx, code, update.Message.From.ID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				b.sendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: msgLinkCodeInvalid, ParseMode: models.ParseModeHTML})
				return
			}
			slog.Error("failed to redeem link code", "error", err)
			b.sendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: msgProcessingFailed})
			return
		}

		slog.Info("telegram account linked", "user_id", user.ID, "telegram_id", user.TelegramID)
		b.sendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: msgLinked})
		return
	}

	b.sendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      msgWelcome,
		ParseMode: models.ParseModeHTML,
	})
}

func (b *Bot) handleHelp(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.sendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      msgHelp,
		ParseMode: models.ParseModeHTML,
	})
}

func (b *Bot) handleBalance(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, err := b.store.GetUserByTelegramID(ctx, update.Message.From.ID)
	if err != nil {
		b.sendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: msgNotLinked})
		return
	}

	b.sendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      balanceMessage(user.Balance.String()),
		ParseMode: models.ParseModeHTML,
	})
}

// handleMessage is the default handler: voice and video notes feed the
// transaction pipeline, anything else gets a usage hint.
func (b *Bot) handleMessage(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	if update.Message.Voice != nil || update.Message.VideoNote != nil {
		b.handleVoice(ctx, update)
		return
	}

	b.sendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      msgHelp,
		ParseMode: models.ParseModeHTML,
	})
}

func (b *Bot) handleVoice(ctx context.Context, update *models.Update) {
	chatID := update.Message.Chat.ID
	telegramID := update.Message.From.ID

	user, err := b.store.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		b.sendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: msgNotLinked})
		return
	}

	var fileID string
	if update.Message.Voice != nil {
		fileID = update.Message.Voice.FileID
	} else {
		fileID = update.Message.VideoNote.FileID
	}

	processing := b.sendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: msgProcessing})
	if processing == nil {
		return
	}

	audioPath, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.reportVoiceFailure(ctx, chatID, processing.ID, user.ID,
			common.NewUserError(msgDownloadFailed, err))
		return
	}
	defer func() { _ = os.Remove(audioPath) }()

	transcript, err := b.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		b.reportVoiceFailure(ctx, chatID, processing.ID, user.ID,
			common.NewUserError(msgTranscribeFailed, err))
		return
	}

	result, err := b.engine.HandleTranscript(ctx, user.ID, transcript)
	if err != nil {
		b.renderTranscriptError(ctx, chatID, processing.ID, transcript, err)
		return
	}

	switch result.State {
	case engine.StateSelectingCategory:
		b.editMessage(ctx, chatID, processing.ID,
			selectionMessage(result.Candidates, result.TotalMatches),
			categorySelectionKeyboard(result.Candidates))
	case engine.StateConfirmingTransaction:
		b.editMessage(ctx, chatID, processing.ID,
			confirmationMessage(result.Parsed.Kind, result.Parsed.Amount.String(), result.Category.Name),
			confirmKeyboard())
	}
}

// reportVoiceFailure logs the cause and shows the user-facing half of the
// error in place of the processing notice.
func (b *Bot) reportVoiceFailure(ctx context.Context, chatID int64, messageID int, userID int64, err error) {
	common.LogError(err, "voice pipeline failed", common.Fields{
		"chat_id": chatID,
		"user_id": userID,
	})
	b.editMessage(ctx, chatID, messageID, voiceFailureMessage(err), nil)
}

func (b *Bot) renderTranscriptError(ctx context.Context, chatID int64, messageID int, transcript string, err error) {
	var noMatch *engine.NoMatchError

	switch {
	case common.IsParseFailure(err):
		b.editMessage(ctx, chatID, messageID, parseFailureMessage(transcript), nil)
	case errors.As(err, &noMatch):
		b.editMessage(ctx, chatID, messageID, noCategoryMessage(noMatch.CategoryText), nil)
	default:
		slog.Error("voice pipeline failed", "error", err)
		b.editMessage(ctx, chatID, messageID, msgProcessingFailed, nil)
	}
}

// handleCategoryCallback resolves a tap on one of the category buttons.
func (b *Bot) handleCategoryCallback(ctx context.Context, _ *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}
	msg := callback.Message.Message
	if msg == nil {
		b.answerCallback(ctx, callback.ID, "", false)
		return
	}
	chatID := msg.Chat.ID

	user, err := b.store.GetUserByTelegramID(ctx, callback.From.ID)
	if err != nil {
		b.answerCallback(ctx, callback.ID, msgNotLinked, true)
		return
	}

	categoryID, err := strconv.ParseInt(strings.TrimPrefix(callback.Data, callbackCategoryPrefix), 10, 64)
	if err != nil {
		b.answerCallback(ctx, callback.ID, "", false)
		return
	}

	result, err := b.engine.HandleCategoryChoice(ctx, user.ID, categoryID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidSelection):
			b.answerCallback(ctx, callback.ID, "Ошибка: категория не найдена", true)
			b.editMessage(ctx, chatID, msg.ID, msgCancelled, nil)
		case errors.Is(err, engine.ErrNoSession):
			b.answerCallback(ctx, callback.ID, msgNoSession, true)
		default:
			slog.Error("category choice failed", "error", err)
			b.answerCallback(ctx, callback.ID, "", false)
			b.editMessage(ctx, chatID, msg.ID, msgProcessingFailed, nil)
		}
		return
	}

	b.editMessage(ctx, chatID, msg.ID,
		confirmationMessage(result.Parsed.Kind, result.Parsed.Amount.String(), result.Category.Name),
		confirmKeyboard())
	b.answerCallback(ctx, callback.ID, "", false)
}

// handleConfirmCallback finishes the dialogue on a yes/no tap.
func (b *Bot) handleConfirmCallback(ctx context.Context, _ *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}
	msg := callback.Message.Message
	if msg == nil {
		b.answerCallback(ctx, callback.ID, "", false)
		return
	}
	chatID := msg.Chat.ID

	user, err := b.store.GetUserByTelegramID(ctx, callback.From.ID)
	if err != nil {
		b.answerCallback(ctx, callback.ID, msgNotLinked, true)
		return
	}

	confirmed := callback.Data == callbackConfirmYes

	result, err := b.engine.HandleConfirmation(ctx, user.ID, confirmed)
	if err != nil {
		if errors.Is(err, engine.ErrNoSession) {
			b.answerCallback(ctx, callback.ID, msgNoSession, true)
			return
		}
		slog.Error("failed to commit voice transaction", "error", err, "user_id", user.ID)
		b.answerCallback(ctx, callback.ID, "Ошибка", true)
		b.editMessage(ctx, chatID, msg.ID, msgCommitFailed, nil)
		return
	}

	if result.Transaction == nil {
		b.editMessage(ctx, chatID, msg.ID, msgCancelled, nil)
		b.answerCallback(ctx, callback.ID, "Транзакция отменена", false)
		return
	}

	b.editMessage(ctx, chatID, msg.ID,
		committedMessage(result.Transaction.Kind,
			result.Transaction.Amount.String(),
			result.Category.Name,
			result.Balance.String()),
		nil)
	b.answerCallback(ctx, callback.ID, "Транзакция добавлена!", false)
}

// downloadFile fetches a Telegram file into a temporary path.
func (b *Bot) downloadFile(ctx context.Context, fileID string) (string, error) {
	file, err := b.api.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("failed to get file info: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.api.FileDownloadLink(file), nil)
	if err != nil {
		return "", err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d downloading file", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "voice-*.ogg")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
