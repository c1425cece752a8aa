package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/flow"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/intent"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/store"
)

func testClock() time.Time {
	return time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
}

func newTestManager(t *testing.T) (*Manager, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	engine := flow.NewEngine(st, intent.NewClassifier(nil), flow.WithClock(testClock))
	return NewManager(st, engine), st
}

func TestStartConversationGreetsCustomer(t *testing.T) {
	m, st := newTestManager(t)

	replies, err := m.StartConversation(context.Background(), "+919876543210")
	require.NoError(t, err)
	require.NotEmpty(t, replies)
	assert.Contains(t, replies[0], "Rajesh")
	assert.Contains(t, replies[0], "ABC Finance")

	saved, err := st.GetSession("+919876543210")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.True(t, saved.AwaitingUser)
}

func TestFirstInboundMessageOpensConversation(t *testing.T) {
	m, _ := newTestManager(t)

	replies, err := m.ProcessMessage(context.Background(), "whatsapp:+919876543210", "hello?")
	require.NoError(t, err)
	require.NotEmpty(t, replies)
	// The greeting speaks first; the customer's opener is not treated as an
	// answer to a question that was never asked.
	assert.Contains(t, replies[0], "am I speaking with")
}

func TestProcessMessageAdvancesAndPersists(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()

	_, err := m.StartConversation(ctx, "+919876543210")
	require.NoError(t, err)

	replies, err := m.ProcessMessage(ctx, "+919876543210", "yes, speaking")
	require.NoError(t, err)
	require.NotEmpty(t, replies)
	assert.Contains(t, strings.ToLower(replies[0]), "date of birth")

	saved, err := st.GetSession("+919876543210")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, models.StageVerification, saved.Stage)
	assert.Equal(t, 1, saved.VerificationAttempts)
}

func TestUnknownNumberGetsPoliteNotice(t *testing.T) {
	m, st := newTestManager(t)

	replies, err := m.ProcessMessage(context.Background(), "+15550001111", "hello")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "could not find an account")

	saved, err := st.GetSession("+15550001111")
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestCompletedConversationGetsClosingNotice(t *testing.T) {
	m, st := newTestManager(t)

	done := models.NewCallState(models.Customer{ID: "CUST001", Name: "Rajesh Kumar", Phone: "+919876543210", DOB: "15-03-1985"},
		models.Loan{ID: "LN001", CustomerID: "CUST001", Type: "personal loan", Outstanding: 45000, DaysPastDue: 30})
	done.IsComplete = true
	done.CallOutcome = models.OutcomePaid
	require.NoError(t, st.SaveSession("+919876543210", done))

	replies, err := m.ProcessMessage(context.Background(), "+919876543210", "hello again")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "concluded")
}

func TestLockedConversationIsSilent(t *testing.T) {
	m, st := newTestManager(t)

	locked := models.NewCallState(models.Customer{ID: "CUST001", Name: "Rajesh Kumar", Phone: "+919876543210", DOB: "15-03-1985"},
		models.Loan{ID: "LN001", CustomerID: "CUST001", Type: "personal loan", Outstanding: 45000, DaysPastDue: 30})
	locked.IsComplete = true
	locked.CallOutcome = models.OutcomeEscalated
	locked.SessionLocked = true
	require.NoError(t, st.SaveSession("+919876543210", locked))

	replies, err := m.ProcessMessage(context.Background(), "+919876543210", "wait, I can pay")
	require.NoError(t, err)
	assert.Empty(t, replies)
}

type stubEngine struct {
	run func(ctx context.Context, st models.CallState) (models.CallState, error)
}

func (s *stubEngine) RunTurn(ctx context.Context, st models.CallState) (models.CallState, error) {
	return s.run(ctx, st)
}

func TestTurnErrorLeavesSessionUntouched(t *testing.T) {
	st := store.NewInMemoryStore()
	engine := flow.NewEngine(st, intent.NewClassifier(nil), flow.WithClock(testClock))
	m := NewManager(st, engine)
	ctx := context.Background()

	_, err := m.StartConversation(ctx, "+919876543210")
	require.NoError(t, err)
	before, err := st.GetSession("+919876543210")
	require.NoError(t, err)

	failing := &stubEngine{run: func(context.Context, models.CallState) (models.CallState, error) {
		return models.CallState{}, errors.New("backend unavailable")
	}}
	m.engine = failing

	_, err = m.ProcessMessage(ctx, "+919876543210", "yes, speaking")
	require.Error(t, err)

	after, err := st.GetSession("+919876543210")
	require.NoError(t, err)
	assert.Equal(t, before.Stage, after.Stage)
	assert.Len(t, after.Messages, len(before.Messages))
}

func TestPanicClosesConversationAsSystemError(t *testing.T) {
	st := store.NewInMemoryStore()
	m := NewManager(st, flow.NewEngine(st, intent.NewClassifier(nil), flow.WithClock(testClock)))
	ctx := context.Background()

	_, err := m.StartConversation(ctx, "+919876543210")
	require.NoError(t, err)

	m.engine = &stubEngine{run: func(context.Context, models.CallState) (models.CallState, error) {
		panic("boom")
	}}

	replies, err := m.ProcessMessage(ctx, "+919876543210", "yes")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "technical issue")

	saved, err := st.GetSession("+919876543210")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.True(t, saved.IsComplete)
	assert.Equal(t, models.OutcomeSystemError, saved.CallOutcome)
}

func TestTurnsForSamePhoneAreSerialized(t *testing.T) {
	st := store.NewInMemoryStore()
	m := NewManager(st, nil)

	var inFlight, maxInFlight int32
	m.engine = &stubEngine{run: func(_ context.Context, cs models.CallState) (models.CallState, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&maxInFlight)
			if n <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		cs.AppendAssistant("ok")
		return cs, nil
	}}

	seed := models.NewCallState(models.Customer{ID: "CUST001", Name: "Rajesh Kumar", Phone: "+919876543210", DOB: "15-03-1985"},
		models.Loan{ID: "LN001", CustomerID: "CUST001", Type: "personal loan", Outstanding: 45000, DaysPastDue: 30})
	seed.Stage = models.StageVerification
	seed.HasGreeted = true
	seed.AppendAssistant("To proceed, could you confirm your date of birth?")
	seed.AwaitingUser = true
	require.NoError(t, st.SaveSession("+919876543210", seed))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.ProcessMessage(context.Background(), "+919876543210", "15-03-1985")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight)
}
