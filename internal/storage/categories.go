package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kassa-bot/kassa/internal/common"
	"github.com/kassa-bot/kassa/internal/model"
)

const categoryColumns = `id, user_id, name, kind, color, icon, created_at`

// CreateCategory inserts a new category. Names are unique per user.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO categories (user_id, name, kind, color, icon)
		VALUES (?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query,
		category.UserID, category.Name, string(category.Kind), category.Color, category.Icon)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("category %q: %w", category.Name, common.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category id: %w", err)
	}

	return s.GetCategoryByID(ctx, category.UserID, id)
}

// GetCategories returns all categories owned by a user in insertion order.
// The order is stable so prefix matching stays deterministic.
func (s *SQLiteStorage) GetCategories(ctx context.Context, userID int64) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM categories WHERE user_id = ? ORDER BY id`, categoryColumns)
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		category, scanErr := scanCategory(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		categories = append(categories, *category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetCategoryByID returns one of the user's categories by id.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, userID, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM categories WHERE user_id = ? AND id = ?`, categoryColumns)
	category, err := scanCategory(s.db.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory persists name, kind, color and icon changes.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}
	if err := validateID(category.ID, "category.ID"); err != nil {
		return err
	}

	query := `
		UPDATE categories
		SET name = ?, kind = ?, color = ?, icon = ?
		WHERE id = ? AND user_id = ?`

	res, err := s.db.ExecContext(ctx, query,
		category.Name, string(category.Kind), category.Color, category.Icon,
		category.ID, category.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %q: %w", category.Name, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("category %d: %w", category.ID, common.ErrNotFound)
	}
	return nil
}

// DeleteCategory removes a category and, through cascades, its transactions.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, userID, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(userID, "userID"); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	return nil
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var category model.Category
	var kind string
	var color, icon sql.NullString

	err := row.Scan(&category.ID, &category.UserID, &category.Name, &kind,
		&color, &icon, &category.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}

	category.Kind = model.Kind(kind)
	category.Color = color.String
	category.Icon = icon.String
	return &category, nil
}
