package engine

import (
	"context"

	"github.com/kassa-bot/kassa/internal/model"
)

// Ledger is the slice of the storage layer the conversation engine needs:
// a read-only category snapshot, the commit operation, and the owner's
// balance after a commit. service.Storage satisfies it.
type Ledger interface {
	GetCategories(ctx context.Context, userID int64) ([]model.Category, error)
	CreateTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}
