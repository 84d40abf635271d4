package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kassa-bot/kassa/internal/common"
	"github.com/kassa-bot/kassa/internal/model"
	"github.com/kassa-bot/kassa/internal/service"
)

const transactionColumns = `t.id, t.user_id, t.category_id, c.name, t.amount, t.kind, t.description, t.created_at`

// CreateTransaction inserts a ledger entry and applies its delta to the
// owner's balance in the same database transaction.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, fmt.Errorf("%w: txn", ErrNilParameter)
	}
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, execErr := tx.ExecContext(ctx, `
			INSERT INTO transactions (user_id, category_id, amount, kind, description)
			VALUES (?, ?, ?, ?, ?)`,
			txn.UserID, txn.CategoryID, txn.Amount.String(), string(txn.Kind), txn.Description)
		if execErr != nil {
			return fmt.Errorf("failed to insert transaction: %w", execErr)
		}

		var idErr error
		id, idErr = res.LastInsertId()
		if idErr != nil {
			return fmt.Errorf("failed to get transaction id: %w", idErr)
		}

		return adjustBalanceTx(ctx, tx, txn.UserID, txn.BalanceDelta())
	})
	if err != nil {
		return nil, err
	}

	return s.GetTransactionByID(ctx, txn.UserID, id)
}

// GetTransactions returns the user's transactions, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, userID int64, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}

	conditions := []string{"t.user_id = ?"}
	args := []any{userID}

	// created_at is stored as a CURRENT_TIMESTAMP string, so bounds are
	// compared as formatted UTC strings rather than driver-encoded times.
	if filter.StartDate != nil {
		conditions = append(conditions, "t.created_at >= ?")
		args = append(args, filter.StartDate.UTC().Format(time.DateTime))
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "t.created_at <= ?")
		args = append(args, filter.EndDate.UTC().Format(time.DateTime))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE %s
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ? OFFSET ?`,
		transactionColumns, strings.Join(conditions, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}

// GetTransactionByID returns one of the user's transactions by id.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, userID, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.id = ?`, transactionColumns)

	txn, err := scanTransaction(s.db.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// UpdateTransaction replaces a ledger entry. The old delta is reversed and
// the new one applied so the owner's balance stays consistent.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if txn == nil {
		return fmt.Errorf("%w: txn", ErrNilParameter)
	}
	if err := txn.Validate(); err != nil {
		return err
	}
	if err := validateID(txn.ID, "txn.ID"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		old, err := readTransactionTx(ctx, tx, txn.UserID, txn.ID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE transactions
			SET category_id = ?, amount = ?, kind = ?, description = ?
			WHERE id = ? AND user_id = ?`,
			txn.CategoryID, txn.Amount.String(), string(txn.Kind), txn.Description,
			txn.ID, txn.UserID)
		if err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}

		delta := txn.BalanceDelta().Sub(old.BalanceDelta())
		return adjustBalanceTx(ctx, tx, txn.UserID, delta)
	})
}

// DeleteTransaction removes a ledger entry and reverses its balance delta.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, userID, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(userID, "userID"); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		old, err := readTransactionTx(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}

		return adjustBalanceTx(ctx, tx, userID, old.BalanceDelta().Neg())
	})
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on error.
func (s *SQLiteStorage) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// adjustBalanceTx applies delta to the user's stored balance.
func adjustBalanceTx(ctx context.Context, tx *sql.Tx, userID int64, delta decimal.Decimal) error {
	var raw string
	err := tx.QueryRowContext(ctx, `SELECT balance FROM users WHERE id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("user %d: %w", userID, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("corrupt balance for user %d: %w", userID, err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET balance = ? WHERE id = ?`,
		balance.Add(delta).String(), userID)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

// readTransactionTx returns the stored amount and kind of a transaction row
// inside tx.
func readTransactionTx(ctx context.Context, tx *sql.Tx, userID, id int64) (*model.Transaction, error) {
	var old model.Transaction
	var amount, kind string

	err := tx.QueryRowContext(ctx,
		`SELECT amount, kind FROM transactions WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&amount, &kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction: %w", err)
	}

	old.ID = id
	old.UserID = userID
	old.Kind = model.Kind(kind)
	old.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount for transaction %d: %w", id, err)
	}
	return &old, nil
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var amount, kind string
	var description sql.NullString

	err := row.Scan(&txn.ID, &txn.UserID, &txn.CategoryID, &txn.CategoryName,
		&amount, &kind, &description, &txn.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.Kind = model.Kind(kind)
	txn.Description = description.String
	txn.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount for transaction %d: %w", txn.ID, err)
	}
	return &txn, nil
}
