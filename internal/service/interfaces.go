// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kassa-bot/kassa/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// PeriodGroup selects the bucketing granularity for period statistics.
type PeriodGroup string

const (
	// GroupByDay buckets statistics per calendar day.
	GroupByDay PeriodGroup = "day"
	// GroupByMonth buckets statistics per calendar month.
	GroupByMonth PeriodGroup = "month"
	// GroupByYear buckets statistics per calendar year.
	GroupByYear PeriodGroup = "year"
)

// Valid reports whether the group is a known granularity.
func (g PeriodGroup) Valid() bool {
	return g == GroupByDay || g == GroupByMonth || g == GroupByYear
}

// PeriodStat holds income and expense totals for one period bucket.
type PeriodStat struct {
	Period  string          `json:"period"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetUsers(ctx context.Context, limit, offset int) ([]model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id int64) error
	GetLinkedUsers(ctx context.Context) ([]model.User, error)

	// Telegram account linking
	CreateLinkCode(ctx context.Context, userID int64) (string, error)
	RedeemLinkCode(ctx context.Context, code string, telegramID int64) (*model.User, error)

	// Category operations
	CreateCategory(ctx context.Context, category *model.Category) (*model.Category, error)
	GetCategories(ctx context.Context, userID int64) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, userID, id int64) (*model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, userID, id int64) error

	// Ledger operations. CreateTransaction adjusts the owner's balance
	// atomically with the insert; update and delete reverse and reapply
	// the balance delta.
	CreateTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	GetTransactions(ctx context.Context, userID int64, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, userID, id int64) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id int64) error
	GetPeriodStats(ctx context.Context, userID int64, from, to time.Time, group PeriodGroup) ([]PeriodStat, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Transcriber converts a voice recording into text. Implementations are
// constructed explicitly and injected; failures abort the voice pipeline
// before parsing runs.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
