// Package engine implements the conversational state machine that turns a
// voice transcript into a committed transaction: parse, resolve the
// category, ask for disambiguation or confirmation, commit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/kassa-bot/kassa/internal/common"
	"github.com/kassa-bot/kassa/internal/model"
	"github.com/kassa-bot/kassa/internal/parser"
)

// ErrNoSession indicates an event arrived for a user with no dialogue in
// progress (for example a stray confirmation tap).
var ErrNoSession = errors.New("no active voice session")

// NoMatchError reports that none of the user's categories matched the
// spoken category text. It carries the text so the transport layer can
// echo it back.
type NoMatchError struct {
	CategoryText string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no category matched %q", e.CategoryText)
}

func (e *NoMatchError) Unwrap() error {
	return common.ErrNoCategoryMatch
}

// MaxCategoryButtons caps how many matched categories are offered for
// selection in one prompt.
const MaxCategoryButtons = 10

// Result describes the outcome of one conversation event. The transport
// layer renders it; the engine stays transport-agnostic.
type Result struct {
	Parsed       *parser.ParsedTransaction
	Category     *model.Category
	Transaction  *model.Transaction
	State        State
	Candidates   []model.Category
	Balance      decimal.Decimal
	TotalMatches int
}

// Engine drives per-user voice transaction dialogues. Events for the same
// user are serialized; different users proceed independently.
type Engine struct {
	ledger   Ledger
	sessions SessionStore
	locks    map[int64]*sync.Mutex
	mu       sync.Mutex
}

// New creates a conversation engine on top of the given ledger and
// session store.
func New(ledger Ledger, sessions SessionStore) *Engine {
	return &Engine{
		ledger:   ledger,
		sessions: sessions,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// userLock returns the per-user mutex, creating it on first use.
func (e *Engine) userLock(userID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[userID] = lock
	}
	return lock
}

// HandleTranscript processes a recognized voice message. Any session
// already open for the user is abandoned: a new voice message always
// starts a fresh dialogue. On success the session moves to category
// selection (several matches) or straight to confirmation (exactly one).
func (e *Engine) HandleTranscript(ctx context.Context, userID int64, transcript string) (*Result, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	e.sessions.Clear(userID)

	parsed, err := parser.Parse(transcript)
	if err != nil {
		slog.Debug("transcript did not parse", "user_id", userID, "error", err)
		return nil, err
	}

	categories, err := e.ledger.GetCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	matches := MatchCategories(parsed.CategoryText, categories, parsed.Kind)
	if len(matches) == 0 {
		slog.Info("no category matched",
			"user_id", userID,
			"category_text", parsed.CategoryText,
			"kind", parsed.Kind)
		return nil, &NoMatchError{CategoryText: parsed.CategoryText}
	}

	session := &Session{
		Kind:           parsed.Kind,
		Amount:         parsed.Amount,
		CategoryText:   parsed.CategoryText,
		RecognizedText: transcript,
	}

	if len(matches) == 1 {
		session.State = StateConfirmingTransaction
		session.Chosen = &matches[0]
		e.sessions.Put(userID, session)

		return &Result{
			State:        StateConfirmingTransaction,
			Parsed:       parsed,
			Category:     session.Chosen,
			TotalMatches: 1,
		}, nil
	}

	session.State = StateSelectingCategory
	session.Candidates = matches
	e.sessions.Put(userID, session)

	offered := matches
	if len(offered) > MaxCategoryButtons {
		offered = offered[:MaxCategoryButtons]
	}

	return &Result{
		State:        StateSelectingCategory,
		Parsed:       parsed,
		Candidates:   offered,
		TotalMatches: len(matches),
	}, nil
}

// HandleCategoryChoice resolves a category selection. Choosing an id that
// was never offered clears the session.
func (e *Engine) HandleCategoryChoice(ctx context.Context, userID, categoryID int64) (*Result, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	session, ok := e.sessions.Get(userID)
	if !ok || session.State != StateSelectingCategory {
		e.sessions.Clear(userID)
		return nil, ErrNoSession
	}

	var chosen *model.Category
	for i := range session.Candidates {
		if session.Candidates[i].ID == categoryID {
			chosen = &session.Candidates[i]
			break
		}
	}
	if chosen == nil {
		e.sessions.Clear(userID)
		return nil, common.ErrInvalidSelection
	}

	session.State = StateConfirmingTransaction
	session.Chosen = chosen
	e.sessions.Put(userID, session)

	return &Result{
		State:    StateConfirmingTransaction,
		Parsed:   &parser.ParsedTransaction{Kind: session.Kind, Amount: session.Amount, CategoryText: session.CategoryText},
		Category: chosen,
	}, nil
}

// HandleConfirmation finishes the dialogue. A positive confirmation
// commits the transaction to the ledger exactly once; a negative one
// cancels. Either way the session ends.
func (e *Engine) HandleConfirmation(ctx context.Context, userID int64, confirmed bool) (*Result, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	session, ok := e.sessions.Get(userID)
	if !ok || session.State != StateConfirmingTransaction || session.Chosen == nil {
		e.sessions.Clear(userID)
		return nil, ErrNoSession
	}

	e.sessions.Clear(userID)

	if !confirmed {
		slog.Info("voice transaction cancelled", "user_id", userID)
		return &Result{State: StateIdle}, nil
	}

	txn := &model.Transaction{
		UserID:     userID,
		CategoryID: session.Chosen.ID,
		Amount:     session.Amount,
		Kind:       session.Kind,
	}

	committed, err := e.ledger.CreateTransaction(ctx, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	user, err := e.ledger.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}

	slog.Info("voice transaction committed",
		"user_id", userID,
		"category", session.Chosen.Name,
		"amount", session.Amount.String(),
		"kind", session.Kind)

	return &Result{
		State:       StateIdle,
		Category:    session.Chosen,
		Transaction: committed,
		Balance:     user.Balance,
	}, nil
}

// SessionState reports the user's current dialogue state.
func (e *Engine) SessionState(userID int64) State {
	session, ok := e.sessions.Get(userID)
	if !ok {
		return StateIdle
	}
	return session.State
}
