package parser

import (
	"strings"

	"github.com/kassa-bot/kassa/internal/model"
)

// Keyword sets covering the inflected forms users actually say. Expense
// keywords are checked first: if both kinds appear in one phrase, the
// phrase is an expense.
var expenseKeywords = []string{
	"расход", "расходы", "расх", "расходов",
	"трата", "траты", "трат",
	"потратил", "потрачено", "потратить", "потратила",
}

var incomeKeywords = []string{
	"доход", "доходы", "дох", "доходов",
	"зарплата", "зарплату", "зарплаты",
	"получил", "получила", "получено", "получить",
}

// Classify maps transcript text to a transaction kind by keyword
// membership. The input must already be lowercased and trimmed. If no
// keyword from either set appears, ok is false and the caller must treat
// the phrase as unparseable, not default to either kind.
func Classify(text string) (model.Kind, bool) {
	for _, kw := range expenseKeywords {
		if strings.Contains(text, kw) {
			return model.KindExpense, true
		}
	}
	for _, kw := range incomeKeywords {
		if strings.Contains(text, kw) {
			return model.KindIncome, true
		}
	}
	return "", false
}
