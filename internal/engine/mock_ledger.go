package engine

import (
	"context"
	"sync"
	"time"

	"github.com/kassa-bot/kassa/internal/common"
	"github.com/kassa-bot/kassa/internal/model"
)

// MockLedger is a configurable in-memory Ledger implementation for tests.
type MockLedger struct {
	createErr  error
	users      map[int64]*model.User
	categories map[int64][]model.Category
	committed  []model.Transaction
	nextID     int64
	mu         sync.Mutex
}

// NewMockLedger creates an empty mock ledger.
func NewMockLedger() *MockLedger {
	return &MockLedger{
		users:      make(map[int64]*model.User),
		categories: make(map[int64][]model.Category),
	}
}

// AddUser registers a user in the mock.
func (m *MockLedger) AddUser(user model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = &user
}

// AddCategories registers categories for a user, in storage order.
func (m *MockLedger) AddCategories(userID int64, categories ...model.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[userID] = append(m.categories[userID], categories...)
}

// FailCommits makes every CreateTransaction call return err.
func (m *MockLedger) FailCommits(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr = err
}

// Committed returns a copy of all committed transactions.
func (m *MockLedger) Committed() []model.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Transaction, len(m.committed))
	copy(out, m.committed)
	return out
}

// GetCategories implements Ledger.
func (m *MockLedger) GetCategories(_ context.Context, userID int64) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Category, len(m.categories[userID]))
	copy(out, m.categories[userID])
	return out, nil
}

// CreateTransaction implements Ledger, adjusting the owner's balance the
// way the real storage does.
func (m *MockLedger) CreateTransaction(_ context.Context, txn *model.Transaction) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	user, ok := m.users[txn.UserID]
	if !ok {
		return nil, common.ErrNotFound
	}

	m.nextID++
	committed := *txn
	committed.ID = m.nextID
	committed.CreatedAt = time.Now()
	user.Balance = user.Balance.Add(committed.BalanceDelta())

	m.committed = append(m.committed, committed)
	return &committed, nil
}

// GetUserByID implements Ledger.
func (m *MockLedger) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *user
	return &copied, nil
}
