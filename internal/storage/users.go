package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kassa-bot/kassa/internal/common"
	"github.com/kassa-bot/kassa/internal/model"
)

const userColumns = `id, username, email, password_hash, balance, telegram_id, is_admin, created_at`

// CreateUser inserts a new user. Username and email must be unique.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateUser(user); err != nil {
		return nil, err
	}

	balance := user.Balance
	query := `
		INSERT INTO users (username, email, password_hash, balance, telegram_id, is_admin)
		VALUES (?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query,
		user.Username, user.Email, user.PasswordHash,
		balance.String(), user.TelegramID, user.IsAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s: %w", user.Username, common.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID returns a user by id.
func (s *SQLiteStorage) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByEmail returns a user by email.
func (s *SQLiteStorage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, `WHERE email = ?`, strings.ToLower(email))
}

// GetUserByUsername returns a user by username.
func (s *SQLiteStorage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(username, "username"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, `WHERE username = ?`, username)
}

// GetUserByTelegramID returns the user linked to a Telegram account.
func (s *SQLiteStorage) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(telegramID, "telegramID"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, `WHERE telegram_id = ?`, telegramID)
}

// GetUsers returns users ordered by id.
func (s *SQLiteStorage) GetUsers(ctx context.Context, limit, offset int) ([]model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY id LIMIT ? OFFSET ?`, userColumns)
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// GetLinkedUsers returns all users with a Telegram account attached.
func (s *SQLiteStorage) GetLinkedUsers(ctx context.Context) ([]model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE telegram_id != 0 ORDER BY id`, userColumns)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query linked users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating linked users: %w", err)
	}
	return users, nil
}

// UpdateUser persists the mutable user fields.
func (s *SQLiteStorage) UpdateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}
	if err := validateID(user.ID, "user.ID"); err != nil {
		return err
	}

	query := `
		UPDATE users
		SET username = ?, email = ?, password_hash = ?, balance = ?, telegram_id = ?, is_admin = ?
		WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query,
		user.Username, user.Email, user.PasswordHash,
		user.Balance.String(), user.TelegramID, user.IsAdmin, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", user.Username, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %d: %w", user.ID, common.ErrNotFound)
	}
	return nil
}

// DeleteUser removes a user and, through cascades, their categories and
// transactions.
func (s *SQLiteStorage) DeleteUser(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %d: %w", id, common.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStorage) getUser(ctx context.Context, where string, args ...any) (*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users %s`, userColumns, where)
	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	var balance string

	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&balance, &user.TelegramID, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance for user %d: %w", user.ID, err)
	}
	return &user, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
