// Package parser turns a Russian speech transcript into a structured
// transaction: kind, amount and a free-text category fragment. Parsing is
// rule-based and pure: no I/O, no state, deterministic for a given input.
package parser

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kassa-bot/kassa/internal/common"
	"github.com/kassa-bot/kassa/internal/model"
)

// ParsedTransaction is the result of a successful parse. It is immutable
// once created; the conversation engine folds it into session state.
type ParsedTransaction struct {
	CategoryText string
	Kind         model.Kind
	Amount       decimal.Decimal
}

// Parse normalizes the raw transcript and runs the three extraction
// stages in sequence: kind, amount, category text. Any stage failing
// aborts the whole parse; no partial results are surfaced.
//
// Expected input looks like "Расход 10000 на коммунальные платежи".
func Parse(raw string) (*ParsedTransaction, error) {
	text := strings.ToLower(strings.TrimSpace(raw))

	kind, ok := Classify(text)
	if !ok {
		return nil, common.ErrUnclassifiableType
	}

	amount, ok := ExtractAmount(text)
	if !ok || !amount.IsPositive() {
		return nil, common.ErrAmountNotFound
	}

	categoryText, ok := ExtractCategoryText(text)
	if !ok {
		return nil, common.ErrCategoryTextNotFound
	}

	return &ParsedTransaction{
		Kind:         kind,
		Amount:       amount,
		CategoryText: categoryText,
	}, nil
}
