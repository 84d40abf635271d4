package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassa-bot/kassa/internal/common"
	"github.com/kassa-bot/kassa/internal/model"
	"github.com/kassa-bot/kassa/internal/service"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err, "failed to create storage")

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx), "failed to migrate")

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createTestUser(t *testing.T, store *SQLiteStorage) *model.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), &model.User{
		Username:     "anna",
		Email:        "anna@example.com",
		PasswordHash: "$2a$10$hash",
		Balance:      decimal.NewFromInt(50000),
	})
	require.NoError(t, err)
	return user
}

func createTestCategory(t *testing.T, store *SQLiteStorage, userID int64, name string, kind model.Kind) *model.Category {
	t.Helper()
	category, err := store.CreateCategory(context.Background(), &model.Category{
		UserID: userID,
		Name:   name,
		Kind:   kind,
	})
	require.NoError(t, err)
	return category
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := createTestStorage(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestUserCRUD(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	user := createTestUser(t, store)
	assert.Positive(t, user.ID)
	assert.Equal(t, "50000", user.Balance.String())
	assert.False(t, user.CreatedAt.IsZero())

	byEmail, err := store.GetUserByEmail(ctx, "ANNA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byUsername, err := store.GetUserByUsername(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUsername.ID)

	user.Balance = decimal.NewFromInt(40000)
	user.TelegramID = 777
	require.NoError(t, store.UpdateUser(ctx, user))

	byTelegram, err := store.GetUserByTelegramID(ctx, 777)
	require.NoError(t, err)
	assert.Equal(t, "40000", byTelegram.Balance.String())
	assert.True(t, byTelegram.Linked())

	linked, err := store.GetLinkedUsers(ctx)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, user.ID, linked[0].ID)

	require.NoError(t, store.DeleteUser(ctx, user.ID))
	_, err = store.GetUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateUserDuplicate(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	createTestUser(t, store)

	_, err := store.CreateUser(ctx, &model.User{
		Username:     "anna",
		Email:        "other@example.com",
		PasswordHash: "x",
	})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	_, err = store.CreateUser(ctx, &model.User{
		Username:     "other",
		Email:        "anna@example.com",
		PasswordHash: "x",
	})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestCategoryCRUD(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	user := createTestUser(t, store)

	first := createTestCategory(t, store, user.ID, "Продукты", model.KindExpense)
	createTestCategory(t, store, user.ID, "Проезд", model.KindExpense)
	createTestCategory(t, store, user.ID, "Зарплата", model.KindIncome)

	categories, err := store.GetCategories(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	// Insertion order, so prefix matching sees a stable sequence.
	assert.Equal(t, "Продукты", categories[0].Name)
	assert.Equal(t, "Проезд", categories[1].Name)
	assert.Equal(t, "Зарплата", categories[2].Name)

	first.Color = "#00aa55"
	first.Icon = "cart"
	require.NoError(t, store.UpdateCategory(ctx, first))

	got, err := store.GetCategoryByID(ctx, user.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "#00aa55", got.Color)
	assert.Equal(t, "cart", got.Icon)

	require.NoError(t, store.DeleteCategory(ctx, user.ID, first.ID))
	_, err = store.GetCategoryByID(ctx, user.ID, first.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCategoryUniquePerUser(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	user := createTestUser(t, store)
	createTestCategory(t, store, user.ID, "Продукты", model.KindExpense)

	_, err := store.CreateCategory(ctx, &model.Category{
		UserID: user.ID,
		Name:   "Продукты",
		Kind:   model.KindExpense,
	})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	// Another user can reuse the name.
	other, err := store.CreateUser(ctx, &model.User{
		Username:     "boris",
		Email:        "boris@example.com",
		PasswordHash: "x",
	})
	require.NoError(t, err)

	_, err = store.CreateCategory(ctx, &model.Category{
		UserID: other.ID,
		Name:   "Продукты",
		Kind:   model.KindExpense,
	})
	assert.NoError(t, err)
}

func TestCategoryIsolationBetweenUsers(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	user := createTestUser(t, store)
	other, err := store.CreateUser(ctx, &model.User{
		Username:     "boris",
		Email:        "boris@example.com",
		PasswordHash: "x",
	})
	require.NoError(t, err)

	category := createTestCategory(t, store, user.ID, "Продукты", model.KindExpense)

	_, err = store.GetCategoryByID(ctx, other.ID, category.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, store.DeleteCategory(ctx, other.ID, category.ID), common.ErrNotFound)
}

func TestCreateTransactionAdjustsBalance(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	user := createTestUser(t, store)
	expense := createTestCategory(t, store, user.ID, "Продукты", model.KindExpense)
	income := createTestCategory(t, store, user.ID, "Зарплата", model.KindIncome)

	txn, err := store.CreateTransaction(ctx, &model.Transaction{
		UserID:     user.ID,
		CategoryID: expense.ID,
		Kind:       model.KindExpense,
		Amount:     decimal.NewFromInt(10000),
	})
	require.NoError(t, err)
	assert.Equal(t, "Продукты", txn.CategoryName)

	got, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "40000", got.Balance.String())

	_, err = store.CreateTransaction(ctx, &model.Transaction{
		UserID:     user.ID,
		CategoryID: income.ID,
		Kind:       model.KindIncome,
		Amount:     decimal.RequireFromString("1500.50"),
	})
	require.NoError(t, err)

	got, err = store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "41500.5", got.Balance.String())
}

func TestCreateTransactionUnknownCategory(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	user := createTestUser(t, store)

	_, err := store.CreateTransaction(ctx, &model.Transaction{
		UserID:     user.ID,
		CategoryID: 999,
		Kind:       model.KindExpense,
		Amount:     decimal.NewFromInt(100),
	})
	require.Error(t, err)

	// The failed insert must not have touched the balance.
	got, getErr := store.GetUserByID(ctx, user.ID)
	require.NoError(t, getErr)
	assert.Equal(t, "50000", got.Balance.String())
}

func TestUpdateTransactionReappliesDelta(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	user := createTestUser(t, store)
	category := createTestCategory(t, store, user.ID, "Продукты", model.KindExpense)

	txn, err := store.CreateTransaction(ctx, &model.Transaction{
		UserID:     user.ID,
		CategoryID: category.ID,
		Kind:       model.KindExpense,
		Amount:     decimal.NewFromInt(10000),
	})
	require.NoError(t, err)

	txn.Amount = decimal.NewFromInt(2500)
	require.NoError(t, store.UpdateTransaction(ctx, txn))

	got, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "47500", got.Balance.String())
}

func TestDeleteTransactionReversesDelta(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	user := createTestUser(t, store)
	category := createTestCategory(t, store, user.ID, "Продукты", model.KindExpense)

	txn, err := store.CreateTransaction(ctx, &model.Transaction{
		UserID:     user.ID,
		CategoryID: category.ID,
		Kind:       model.KindExpense,
		Amount:     decimal.NewFromInt(10000),
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteTransaction(ctx, user.ID, txn.ID))

	got, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "50000", got.Balance.String())

	_, err = store.GetTransactionByID(ctx, user.ID, txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetTransactionsFilter(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	user := createTestUser(t, store)
	category := createTestCategory(t, store, user.ID, "Продукты", model.KindExpense)

	for i := 1; i <= 5; i++ {
		_, err := store.CreateTransaction(ctx, &model.Transaction{
			UserID:      user.ID,
			CategoryID:  category.ID,
			Kind:        model.KindExpense,
			Amount:      decimal.NewFromInt(int64(i * 100)),
			Description: "покупка",
		})
		require.NoError(t, err)
	}

	all, err := store.GetTransactions(ctx, user.ID, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "покупка", all[0].Description)
	// Newest first.
	assert.Equal(t, "500", all[0].Amount.String())

	page, err := store.GetTransactions(ctx, user.ID, service.TransactionFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "300", page[0].Amount.String())

	future := time.Now().UTC().Add(time.Hour)
	none, err := store.GetTransactions(ctx, user.ID, service.TransactionFilter{StartDate: &future})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetPeriodStats(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	user := createTestUser(t, store)
	expense := createTestCategory(t, store, user.ID, "Продукты", model.KindExpense)
	income := createTestCategory(t, store, user.ID, "Зарплата", model.KindIncome)

	for _, amount := range []int64{100, 250} {
		_, err := store.CreateTransaction(ctx, &model.Transaction{
			UserID:     user.ID,
			CategoryID: expense.ID,
			Kind:       model.KindExpense,
			Amount:     decimal.NewFromInt(amount),
		})
		require.NoError(t, err)
	}
	_, err := store.CreateTransaction(ctx, &model.Transaction{
		UserID:     user.ID,
		CategoryID: income.ID,
		Kind:       model.KindIncome,
		Amount:     decimal.NewFromInt(5000),
	})
	require.NoError(t, err)

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)

	stats, err := store.GetPeriodStats(ctx, user.ID, from, to, service.GroupByDay)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "5000", stats[0].Income.String())
	assert.Equal(t, "350", stats[0].Expense.String())

	stats, err = store.GetPeriodStats(ctx, user.ID, from, to, service.GroupByMonth)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Len(t, stats[0].Period, len("2006-01"))
}

func TestLinkCodeFlow(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	user := createTestUser(t, store)

	code, err := store.CreateLinkCode(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	// Issuing again invalidates the first code.
	second, err := store.CreateLinkCode(ctx, user.ID)
	require.NoError(t, err)

	_, err = store.RedeemLinkCode(ctx, code, 555)
	assert.ErrorIs(t, err, common.ErrNotFound)

	linked, err := store.RedeemLinkCode(ctx, second, 555)
	require.NoError(t, err)
	assert.Equal(t, int64(555), linked.TelegramID)

	// Codes are single-use.
	_, err = store.RedeemLinkCode(ctx, second, 556)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	user := createTestUser(t, store)
	category := createTestCategory(t, store, user.ID, "Продукты", model.KindExpense)

	txn, err := store.CreateTransaction(ctx, &model.Transaction{
		UserID:     user.ID,
		CategoryID: category.ID,
		Kind:       model.KindExpense,
		Amount:     decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteUser(ctx, user.ID))

	var count int
	err = store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE id = ?`, txn.ID).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}
