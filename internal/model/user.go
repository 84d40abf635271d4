package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a registered account. Balance is maintained by the ledger:
// every committed transaction adjusts it atomically with the insert.
type User struct {
	CreatedAt    time.Time       `json:"created_at"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Balance      decimal.Decimal `json:"balance"`
	ID           int64           `json:"id"`
	TelegramID   int64           `json:"telegram_id,omitempty"`
	IsAdmin      bool            `json:"is_admin"`
}

// Linked reports whether the user has a Telegram account attached.
func (u *User) Linked() bool {
	return u.TelegramID != 0
}
