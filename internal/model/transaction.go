// Package model defines the domain types shared across the application.
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind indicates the direction of a transaction: money in or money out.
type Kind string

const (
	// KindIncome represents money coming in.
	KindIncome Kind = "income"
	// KindExpense represents money going out.
	KindExpense Kind = "expense"
)

// Valid reports whether the kind is one of the known values.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Transaction represents a committed ledger entry.
type Transaction struct {
	CreatedAt    time.Time       `json:"created_at"`
	Kind         Kind            `json:"kind"`
	Description  string          `json:"description,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	CategoryID   int64           `json:"category_id"`
}

// Validate ensures the transaction has valid data before it reaches storage.
func (t *Transaction) Validate() error {
	if !t.Kind.Valid() {
		return fmt.Errorf("invalid transaction kind %q", t.Kind)
	}
	if t.UserID <= 0 {
		return fmt.Errorf("transaction requires a user")
	}
	if t.CategoryID <= 0 {
		return fmt.Errorf("transaction requires a category")
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("transaction amount must be positive, got %s", t.Amount)
	}
	return nil
}

// BalanceDelta returns the signed effect of this transaction on the owner's
// balance: +amount for income, -amount for expense.
func (t *Transaction) BalanceDelta() decimal.Decimal {
	if t.Kind == KindExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}
