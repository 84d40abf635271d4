package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassa-bot/kassa/internal/common"
	"github.com/kassa-bot/kassa/internal/model"
)

const testUserID = int64(42)

func newTestEngine(t *testing.T) (*Engine, *MockLedger) {
	t.Helper()

	ledger := NewMockLedger()
	ledger.AddUser(model.User{ID: testUserID, Username: "tester", Balance: decimal.NewFromInt(50000)})
	ledger.AddCategories(testUserID,
		model.Category{ID: 1, UserID: testUserID, Name: "Коммунальные", Kind: model.KindExpense},
		model.Category{ID: 2, UserID: testUserID, Name: "Продукты", Kind: model.KindExpense},
		model.Category{ID: 3, UserID: testUserID, Name: "Проезд", Kind: model.KindExpense},
		model.Category{ID: 4, UserID: testUserID, Name: "Зарплата", Kind: model.KindIncome},
	)

	return New(ledger, NewMemorySessionStore()), ledger
}

func TestEngineSingleMatchFlow(t *testing.T) {
	ctx := context.Background()
	eng, ledger := newTestEngine(t)

	res, err := eng.HandleTranscript(ctx, testUserID, "Расход 10000 на коммунальные платежи")
	require.NoError(t, err)
	assert.Equal(t, StateConfirmingTransaction, res.State)
	require.NotNil(t, res.Category)
	assert.Equal(t, "Коммунальные", res.Category.Name)
	assert.Equal(t, model.KindExpense, res.Parsed.Kind)
	assert.Equal(t, "10000", res.Parsed.Amount.String())
	assert.Equal(t, "коммунальные платежи", res.Parsed.CategoryText)

	res, err = eng.HandleConfirmation(ctx, testUserID, true)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, res.State)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, int64(1), res.Transaction.CategoryID)
	assert.Equal(t, "40000", res.Balance.String())

	committed := ledger.Committed()
	require.Len(t, committed, 1)
	assert.Equal(t, model.KindExpense, committed[0].Kind)
	assert.Equal(t, "10000", committed[0].Amount.String())

	assert.Equal(t, StateIdle, eng.SessionState(testUserID))
}

func TestEngineMultipleMatchFlow(t *testing.T) {
	ctx := context.Background()
	eng, ledger := newTestEngine(t)

	res, err := eng.HandleTranscript(ctx, testUserID, "расход 500 на продукты")
	require.NoError(t, err)
	assert.Equal(t, StateSelectingCategory, res.State)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "Продукты", res.Candidates[0].Name)
	assert.Equal(t, "Проезд", res.Candidates[1].Name)
	assert.Equal(t, 2, res.TotalMatches)

	res, err = eng.HandleCategoryChoice(ctx, testUserID, 3)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmingTransaction, res.State)
	assert.Equal(t, "Проезд", res.Category.Name)

	res, err = eng.HandleConfirmation(ctx, testUserID, true)
	require.NoError(t, err)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, int64(3), res.Transaction.CategoryID)

	require.Len(t, ledger.Committed(), 1)
}

func TestEngineCancellation(t *testing.T) {
	ctx := context.Background()
	eng, ledger := newTestEngine(t)

	_, err := eng.HandleTranscript(ctx, testUserID, "Расход 10000 на коммунальные платежи")
	require.NoError(t, err)

	res, err := eng.HandleConfirmation(ctx, testUserID, false)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, res.State)
	assert.Nil(t, res.Transaction)

	assert.Empty(t, ledger.Committed())
	assert.Equal(t, StateIdle, eng.SessionState(testUserID))
}

func TestEngineParseFailure(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	_, err := eng.HandleTranscript(ctx, testUserID, "купил книгу")
	require.Error(t, err)
	assert.True(t, common.IsParseFailure(err))
	assert.Equal(t, StateIdle, eng.SessionState(testUserID))
}

func TestEngineNoCategoryMatch(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	_, err := eng.HandleTranscript(ctx, testUserID, "расход 100 на путешествия")
	require.ErrorIs(t, err, common.ErrNoCategoryMatch)
	assert.Equal(t, StateIdle, eng.SessionState(testUserID))
}

func TestEngineInvalidCategorySelection(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	_, err := eng.HandleTranscript(ctx, testUserID, "расход 500 на продукты")
	require.NoError(t, err)

	_, err = eng.HandleCategoryChoice(ctx, testUserID, 999)
	require.ErrorIs(t, err, common.ErrInvalidSelection)

	// The session is gone: a follow-up confirmation has nothing to act on.
	_, err = eng.HandleConfirmation(ctx, testUserID, true)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestEngineConfirmationWithoutSession(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	_, err := eng.HandleConfirmation(ctx, testUserID, true)
	require.ErrorIs(t, err, ErrNoSession)

	_, err = eng.HandleCategoryChoice(ctx, testUserID, 1)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestEngineNewTranscriptRestartsSession(t *testing.T) {
	ctx := context.Background()
	eng, ledger := newTestEngine(t)

	_, err := eng.HandleTranscript(ctx, testUserID, "расход 500 на продукты")
	require.NoError(t, err)
	assert.Equal(t, StateSelectingCategory, eng.SessionState(testUserID))

	// A new voice message abandons the old dialogue entirely.
	res, err := eng.HandleTranscript(ctx, testUserID, "Расход 10000 на коммунальные платежи")
	require.NoError(t, err)
	assert.Equal(t, StateConfirmingTransaction, res.State)

	_, err = eng.HandleConfirmation(ctx, testUserID, true)
	require.NoError(t, err)

	committed := ledger.Committed()
	require.Len(t, committed, 1)
	assert.Equal(t, int64(1), committed[0].CategoryID)
}

func TestEngineLedgerFailure(t *testing.T) {
	ctx := context.Background()
	eng, ledger := newTestEngine(t)
	ledger.FailCommits(errors.New("disk full"))

	_, err := eng.HandleTranscript(ctx, testUserID, "Расход 10000 на коммунальные платежи")
	require.NoError(t, err)

	_, err = eng.HandleConfirmation(ctx, testUserID, true)
	require.Error(t, err)
	assert.Empty(t, ledger.Committed())
	// The failure ends the dialogue; nothing is half-committed.
	assert.Equal(t, StateIdle, eng.SessionState(testUserID))
}

func TestEngineCandidateCap(t *testing.T) {
	ctx := context.Background()

	ledger := NewMockLedger()
	ledger.AddUser(model.User{ID: testUserID, Balance: decimal.Zero})
	for i := 1; i <= 12; i++ {
		ledger.AddCategories(testUserID, model.Category{
			ID:     int64(i),
			UserID: testUserID,
			Name:   fmt.Sprintf("Продукты %d", i),
			Kind:   model.KindExpense,
		})
	}
	eng := New(ledger, NewMemorySessionStore())

	res, err := eng.HandleTranscript(ctx, testUserID, "расход 100 на продукты")
	require.NoError(t, err)
	assert.Equal(t, StateSelectingCategory, res.State)
	assert.Len(t, res.Candidates, MaxCategoryButtons)
	assert.Equal(t, 12, res.TotalMatches)

	// Every stored candidate stays selectable, including those beyond
	// the presentation cap.
	chosen, err := eng.HandleCategoryChoice(ctx, testUserID, 12)
	require.NoError(t, err)
	assert.Equal(t, "Продукты 12", chosen.Category.Name)
}

func TestEngineIncomeCommitIncreasesBalance(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	_, err := eng.HandleTranscript(ctx, testUserID, "доход 3 тысячи на зарплата")
	require.NoError(t, err)

	res, err := eng.HandleConfirmation(ctx, testUserID, true)
	require.NoError(t, err)
	assert.Equal(t, "53000", res.Balance.String())
}
