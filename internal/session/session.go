// Package session coordinates inbound customer messages with the collection
// call state machine: it resolves the sender to a customer, loads or creates
// their conversation state, runs exactly one turn, and persists the result.
// Turns for the same phone number are serialized.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/store"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/util"
)

// unknownNumberReply is sent to callers whose number matches no account.
const unknownNumberReply = "We could not find an account associated with this number. If you believe this is an error, please contact ABC Finance customer support."

// concludedReply is sent when a customer writes into an already finished
// conversation.
const concludedReply = "This conversation has concluded. Please contact ABC Finance customer support for further assistance."

// systemErrorReply is sent when a turn panics and the session is closed out.
const systemErrorReply = "We are experiencing a technical issue. We will reach out to you again shortly. We apologize for the inconvenience."

// ErrUnknownCustomer indicates the sender's number matched no account.
var ErrUnknownCustomer = errors.New("unknown customer")

// Store is the persistence surface the manager needs. *store.InMemoryStore,
// *store.SQLiteStore and *store.PostgresStore all satisfy it.
type Store interface {
	GetCustomerByPhone(phone string) (*models.Customer, error)
	GetLoanByCustomer(customerID string) (*models.Loan, error)
	GetSession(phone string) (*models.CallState, error)
	SaveSession(phone string, st models.CallState) error
	DeleteSession(phone string) error
}

// TurnRunner advances a conversation by one turn. *flow.Engine satisfies it.
type TurnRunner interface {
	RunTurn(ctx context.Context, st models.CallState) (models.CallState, error)
}

// Manager routes messages into per-customer conversations.
type Manager struct {
	store  Store
	engine TurnRunner

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a session manager backed by the given store and engine.
func NewManager(st Store, engine TurnRunner) *Manager {
	return &Manager{
		store:  st,
		engine: engine,
		locks:  make(map[string]*sync.Mutex),
	}
}

// phoneLock returns the mutex serializing turns for a canonical phone number.
func (m *Manager) phoneLock(canonical string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[canonical]
	if !ok {
		l = &sync.Mutex{}
		m.locks[canonical] = l
	}
	return l
}

// StartConversation opens a fresh collection conversation with the customer
// behind the given phone number and returns the agent's opening messages. Any
// previous conversation state for the number is discarded.
func (m *Manager) StartConversation(ctx context.Context, phone string) ([]string, error) {
	canonical := util.NormalizePhone(phone)
	if canonical == "" {
		return nil, fmt.Errorf("invalid phone number %q", phone)
	}
	lock := m.phoneLock(canonical)
	lock.Lock()
	defer lock.Unlock()

	st, err := m.newState(phone)
	if err != nil {
		return nil, err
	}

	updated, replies, err := m.runTurn(ctx, canonical, *st)
	if err != nil {
		return nil, err
	}
	if err := m.store.SaveSession(canonical, updated); err != nil {
		slog.Error("Manager StartConversation failed to persist session", "error", err, "phone", canonical)
		return nil, fmt.Errorf("save session: %w", err)
	}
	slog.Info("Manager started conversation", "phone", canonical, "customerID", updated.CustomerID)
	return replies, nil
}

// ProcessMessage handles one inbound customer message and returns the agent
// replies to deliver, in order. An unknown sender gets a polite notice, a
// finished conversation a closing notice, and a locked conversation nothing.
func (m *Manager) ProcessMessage(ctx context.Context, from, body string) ([]string, error) {
	canonical := util.NormalizePhone(from)
	if canonical == "" {
		return nil, fmt.Errorf("invalid sender %q", from)
	}
	lock := m.phoneLock(canonical)
	lock.Lock()
	defer lock.Unlock()

	slog.Debug("Manager processing message", "from", canonical, "bodyLength", len(body))

	st, err := m.store.GetSession(canonical)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if st == nil {
		st, err = m.newState(from)
		if err != nil {
			if errors.Is(err, ErrUnknownCustomer) {
				slog.Info("Manager message from unknown number", "from", canonical)
				return []string{unknownNumberReply}, nil
			}
			return nil, err
		}
		// A first inbound message only opens the conversation; the agent
		// speaks first and the greeting asks its own question.
		body = ""
	}

	if st.SessionLocked {
		slog.Debug("Manager dropping message for locked session", "from", canonical)
		return nil, nil
	}
	if st.IsComplete {
		return []string{concludedReply}, nil
	}

	working := st.Clone()
	if body != "" {
		working.AppendUser(body)
		working.LastUserInput = body
		working.AwaitingUser = false
	}

	updated, replies, err := m.runTurn(ctx, canonical, working)
	if err != nil {
		// The pre-turn state stays persisted; the customer can retry.
		return nil, err
	}
	if err := m.store.SaveSession(canonical, updated); err != nil {
		slog.Error("Manager failed to persist session", "error", err, "phone", canonical)
		return nil, fmt.Errorf("save session: %w", err)
	}
	return replies, nil
}

// newState resolves a phone number to its customer and loan and builds the
// initial conversation state.
func (m *Manager) newState(phone string) (*models.CallState, error) {
	customer, err := m.store.GetCustomerByPhone(phone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCustomer, util.NormalizePhone(phone))
		}
		return nil, fmt.Errorf("look up customer: %w", err)
	}
	loan, err := m.store.GetLoanByCustomer(customer.ID)
	if err != nil {
		return nil, fmt.Errorf("look up loan for customer %s: %w", customer.ID, err)
	}
	st := models.NewCallState(*customer, *loan)
	return &st, nil
}

// runTurn executes one engine turn with panic isolation and returns the
// updated state plus the assistant messages the turn produced.
func (m *Manager) runTurn(ctx context.Context, canonical string, st models.CallState) (updated models.CallState, replies []string, err error) {
	before := len(st.Messages)

	defer func() {
		if r := recover(); r == nil {
			return
		} else {
			slog.Error("Manager recovered from panic during turn", "panic", r, "phone", canonical)
			// Close the conversation out rather than leaving it wedged
			// mid-turn in an unknown state.
			failed := st.Clone()
			failed.CallOutcome = models.OutcomeSystemError
			failed.IsComplete = true
			failed.AwaitingUser = false
			failed.AppendAssistant(systemErrorReply)
			updated = failed
			replies = []string{systemErrorReply}
			err = nil
		}
	}()

	updated, err = m.engine.RunTurn(ctx, st)
	if err != nil {
		slog.Error("Manager turn failed", "error", err, "phone", canonical)
		return updated, nil, fmt.Errorf("run turn: %w", err)
	}

	for _, msg := range updated.Messages[before:] {
		if msg.Role == models.RoleAssistant {
			replies = append(replies, msg.Content)
		}
	}
	return updated, replies, nil
}
