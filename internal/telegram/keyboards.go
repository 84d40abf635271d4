package telegram

import (
	"fmt"

	"github.com/go-telegram/bot/models"

	"github.com/kassa-bot/kassa/internal/model"
)

// categorySelectionKeyboard builds one button per offered category. The
// engine already caps the list at MaxCategoryButtons.
func categorySelectionKeyboard(candidates []model.Category) models.ReplyMarkup {
	buttons := make([][]models.InlineKeyboardButton, 0, len(candidates))
	for _, category := range candidates {
		buttons = append(buttons, []models.InlineKeyboardButton{
			{
				Text:         category.Name,
				CallbackData: fmt.Sprintf("%s%d", callbackCategoryPrefix, category.ID),
			},
		})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: buttons}
}

// confirmKeyboard returns the yes/no confirmation keyboard.
func confirmKeyboard() models.ReplyMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Да", CallbackData: callbackConfirmYes},
				{Text: "❌ Нет", CallbackData: callbackConfirmNo},
			},
		},
	}
}
