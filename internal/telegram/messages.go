package telegram

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kassa-bot/kassa/internal/common"
	"github.com/kassa-bot/kassa/internal/model"
)

// Callback data prefixes for the voice dialogue keyboards.
const (
	callbackCategoryPrefix = "voice_cat_"
	callbackConfirmPrefix  = "voice_confirm_"
	callbackConfirmYes     = "voice_confirm_yes"
	callbackConfirmNo      = "voice_confirm_no"
)

// summaryNames caps how many category names are listed in the selection
// prompt before collapsing the rest into a count.
const summaryNames = 5

const (
	msgWelcome = "💰 <b>Финансовый менеджер</b>\n\n" +
		"Управляйте своими финансами прямо в Telegram!\n\n" +
		"📊 Отслеживайте доходы и расходы\n" +
		"📈 Смотрите статистику\n" +
		"💳 Контролируйте баланс\n\n" +
		"Отправьте голосовое сообщение, чтобы добавить транзакцию.\n" +
		"Например: <i>Расход 10000 на коммунальные платежи</i>"

	msgLinked = "✅ Аккаунт успешно привязан!\n\n" +
		"Теперь вы можете добавлять транзакции голосовыми сообщениями."

	msgLinkCodeInvalid = "❌ Код привязки не найден или истёк.\n\n" +
		"Сгенерируйте новый код в приложении и отправьте /start с этим кодом."

	msgHelp = "📖 <b>Справка по боту</b>\n\n" +
		"<b>Команды:</b>\n" +
		"/start - Начать работу с ботом\n" +
		"/help - Показать эту справку\n" +
		"/balance - Показать баланс\n\n" +
		"<b>Как добавить транзакцию:</b>\n" +
		"Отправьте голосовое сообщение в формате:\n" +
		"<i>Расход/Доход [сумма] на [категория]</i>\n" +
		"Пример: <i>Расход 10000 на коммунальные платежи</i>"

	msgNotLinked = "❌ Ваш аккаунт не связан с системой.\n\n" +
		"Пожалуйста, сначала откройте приложение и свяжите ваш Telegram аккаунт."

	msgProcessing = "🎤 Обрабатываю голосовое сообщение..."

	msgDownloadFailed = "❌ Ошибка получения голосового сообщения. Попробуйте ещё раз."

	msgTranscribeFailed = "❌ Не удалось распознать речь. Попробуйте ещё раз."

	msgProcessingFailed = "❌ Произошла ошибка при обработке. Попробуйте ещё раз."

	msgCommitFailed = "❌ Ошибка при создании транзакции. Попробуйте ещё раз."

	msgCancelled = "❌ Транзакция отменена.\n\n" +
		"Попробуйте отправить голосовое сообщение ещё раз."

	msgNoSession = "Диалог уже завершён. Отправьте голосовое сообщение ещё раз."

	msgReminder = "🔔 Не забудьте записать сегодняшние расходы и доходы!\n\n" +
		"Отправьте голосовое сообщение, например:\n" +
		"<i>Расход 500 на продукты</i>"
)

func parseFailureMessage(recognizedText string) string {
	return fmt.Sprintf(
		"❌ Не удалось распознать транзакцию из текста.\n\n"+
			"Распознанный текст: <i>%s</i>\n\n"+
			"Формат: Расход/Доход [сумма] на [категория]\n"+
			"Пример: Расход 10000 на коммунальные платежи",
		recognizedText)
}

func noCategoryMessage(categoryText string) string {
	return fmt.Sprintf(
		"❌ Категория '%s' не найдена.\n\n"+
			"Пожалуйста, создайте эту категорию в приложении или попробуйте ещё раз с другой формулировкой.",
		categoryText)
}

func selectionMessage(candidates []model.Category, totalMatches int) string {
	names := make([]string, 0, summaryNames)
	for i, category := range candidates {
		if i == summaryNames {
			break
		}
		names = append(names, category.Name)
	}

	listed := strings.Join(names, ", ")
	if totalMatches > summaryNames {
		listed += fmt.Sprintf(" и ещё %d", totalMatches-summaryNames)
	}

	return fmt.Sprintf("📁 Найдено несколько категорий: %s\n\nВыберите нужную категорию:", listed)
}

func confirmationMessage(kind model.Kind, amount, categoryName string) string {
	typeEmoji, typeText := "💰", "Доход"
	if kind == model.KindExpense {
		typeEmoji, typeText = "💸", "Расход"
	}

	return fmt.Sprintf(
		"Правильно ли я понял?\n\n"+
			"%s <b>Тип:</b> %s\n"+
			"💰 <b>Сумма:</b> %s\n"+
			"📁 <b>Категория:</b> %s",
		typeEmoji, typeText, amount, categoryName)
}

func committedMessage(kind model.Kind, amount, categoryName, balance string) string {
	typeEmoji := "💰"
	if kind == model.KindExpense {
		typeEmoji = "💸"
	}

	return fmt.Sprintf(
		"%s ✅ Транзакция успешно добавлена!\n\n"+
			"💰 Сумма: %s\n"+
			"📁 Категория: %s\n"+
			"💵 Баланс: %s",
		typeEmoji, amount, categoryName, balance)
}

func balanceMessage(balance string) string {
	return fmt.Sprintf("💵 <b>Баланс:</b> %s", balance)
}

// voiceFailureMessage picks the user-facing half of a pipeline error.
func voiceFailureMessage(err error) string {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return msgProcessingFailed
}
