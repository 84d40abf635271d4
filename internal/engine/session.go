package engine

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/kassa-bot/kassa/internal/model"
)

// State identifies where a user's voice dialogue currently stands.
type State string

const (
	// StateIdle means no voice transaction is in progress.
	StateIdle State = "idle"
	// StateSelectingCategory means the user must pick one of several
	// matched categories.
	StateSelectingCategory State = "selecting_category"
	// StateConfirmingTransaction means the user must confirm or cancel
	// the assembled transaction.
	StateConfirmingTransaction State = "confirming_transaction"
)

// Session holds the in-progress voice transaction for one user. A session
// never reaches the confirmation state without exactly one resolved
// category consistent with its kind.
type Session struct {
	Chosen         *model.Category
	State          State
	CategoryText   string
	RecognizedText string
	Kind           model.Kind
	Candidates     []model.Category
	Amount         decimal.Decimal
}

// SessionStore keeps per-user sessions. The engine exclusively owns the
// session lifecycle; implementations only provide storage. The in-memory
// implementation below suits single-instance deployments; a multi-instance
// deployment can plug in an external store.
type SessionStore interface {
	Get(userID int64) (*Session, bool)
	Put(userID int64, session *Session)
	Clear(userID int64)
}

// MemorySessionStore is a mutex-guarded in-memory SessionStore.
type MemorySessionStore struct {
	sessions map[int64]*Session
	mu       sync.RWMutex
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[int64]*Session),
	}
}

// Get returns the session for a user, if any.
func (s *MemorySessionStore) Get(userID int64) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[userID]
	return session, ok
}

// Put stores the session for a user, replacing any previous one.
func (s *MemorySessionStore) Put(userID int64, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[userID] = session
}

// Clear removes the session for a user.
func (s *MemorySessionStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
}
