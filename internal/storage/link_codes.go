package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kassa-bot/kassa/internal/common"
	"github.com/kassa-bot/kassa/internal/model"
)

// linkCodeTTL bounds how long a generated link code stays redeemable.
const linkCodeTTL = 15 * time.Minute

// CreateLinkCode issues a one-time code the user sends to the bot via
// /start to attach their Telegram account.
func (s *SQLiteStorage) CreateLinkCode(ctx context.Context, userID int64) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateID(userID, "userID"); err != nil {
		return "", err
	}

	// Issuing a new code invalidates any outstanding one.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM link_codes WHERE user_id = ?`, userID); err != nil {
		return "", fmt.Errorf("failed to clear old link codes: %w", err)
	}

	code := uuid.NewString()
	expiresAt := time.Now().UTC().Add(linkCodeTTL)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO link_codes (code, user_id, expires_at) VALUES (?, ?, ?)`,
		code, userID, expiresAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert link code: %w", err)
	}
	return code, nil
}

// RedeemLinkCode consumes a link code and attaches the Telegram account to
// its owner. Expired or unknown codes report ErrNotFound.
func (s *SQLiteStorage) RedeemLinkCode(ctx context.Context, code string, telegramID int64) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(code, "code"); err != nil {
		return nil, err
	}
	if err := validateID(telegramID, "telegramID"); err != nil {
		return nil, err
	}

	var userID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var expiresAt time.Time
		scanErr := tx.QueryRowContext(ctx,
			`SELECT user_id, expires_at FROM link_codes WHERE code = ?`, code).
			Scan(&userID, &expiresAt)
		if errors.Is(scanErr, sql.ErrNoRows) {
			return fmt.Errorf("link code: %w", common.ErrNotFound)
		}
		if scanErr != nil {
			return fmt.Errorf("failed to read link code: %w", scanErr)
		}

		if _, execErr := tx.ExecContext(ctx, `DELETE FROM link_codes WHERE code = ?`, code); execErr != nil {
			return fmt.Errorf("failed to consume link code: %w", execErr)
		}

		if time.Now().UTC().After(expiresAt) {
			return fmt.Errorf("link code expired: %w", common.ErrNotFound)
		}

		if _, execErr := tx.ExecContext(ctx,
			`UPDATE users SET telegram_id = ? WHERE id = ?`, telegramID, userID); execErr != nil {
			return fmt.Errorf("failed to link telegram account: %w", execErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetUserByID(ctx, userID)
}
