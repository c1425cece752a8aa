package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

func TestInMemoryStoreSeedsDemoBook(t *testing.T) {
	s := NewInMemoryStore()

	c, err := s.GetCustomerByPhone("+919876543210")
	require.NoError(t, err)
	assert.Equal(t, "CUST001", c.ID)
	assert.Equal(t, "Rajesh Kumar", c.Name)

	l, err := s.GetLoanByCustomer(c.ID)
	require.NoError(t, err)
	assert.Equal(t, 45000.0, l.Outstanding)
	assert.Equal(t, 30, l.DaysPastDue)
}

func TestGetCustomerByPhoneToleratesFormatVariants(t *testing.T) {
	s := NewInMemoryStore()

	for _, phone := range []string{
		"whatsapp:+919876543210",
		"91 98765 43210",
		"9876543210",
		"+91-98765-43210",
	} {
		c, err := s.GetCustomerByPhone(phone)
		require.NoError(t, err, "phone %q", phone)
		assert.Equal(t, "CUST001", c.ID, "phone %q", phone)
	}
}

func TestGetCustomerByPhoneNotFound(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.GetCustomerByPhone("+15550001111")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSavePromiseIssuesReference(t *testing.T) {
	s := NewInMemoryStore()

	id, err := s.SavePromise(context.Background(), models.PromiseToPay{
		CustomerID: "CUST001",
		Amount:     20000,
		Date:       "15-09-2026",
		PlanName:   "Custom Arrangement",
	})
	require.NoError(t, err)
	assert.Contains(t, id, "PTP-")

	promises, err := s.ListPromises()
	require.NoError(t, err)
	require.Len(t, promises, 1)
	assert.Equal(t, id, promises[0].ID)
	assert.False(t, promises[0].CreatedAt.IsZero())
}

func TestSaveDisputeAndCallRecord(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	disputeID, err := s.SaveDispute(ctx, models.Dispute{CustomerID: "CUST003", Reason: "claims the loan is not theirs"})
	require.NoError(t, err)
	assert.Contains(t, disputeID, "DSP-")

	callID, err := s.SaveCallRecord(ctx, models.CallRecord{
		CustomerID:    "CUST003",
		Outcome:       models.OutcomeDisputed,
		PaymentStatus: models.PaymentStatusDisputed,
		Summary:       "outcome=disputed status=disputed verified=true",
	})
	require.NoError(t, err)
	assert.Contains(t, callID, "CALL-")

	disputes, err := s.ListDisputes()
	require.NoError(t, err)
	require.Len(t, disputes, 1)

	calls, err := s.ListCallRecords()
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, models.OutcomeDisputed, calls[0].Outcome)
}

func TestSessionRoundTrip(t *testing.T) {
	s := NewInMemoryStore()

	missing, err := s.GetSession("+919876543210")
	require.NoError(t, err)
	assert.Nil(t, missing)

	st := models.NewCallState(demoCustomers[0], demoLoans[0])
	st.Stage = models.StageNegotiation
	st.AppendAssistant("Which option works for you?")
	st.AwaitingUser = true
	require.NoError(t, s.SaveSession("+919876543210", st))

	// Formatting noise normalizes away, the country code does not.
	loaded, err := s.GetSession("whatsapp:+91 98765 43210")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, models.StageNegotiation, loaded.Stage)
	assert.Len(t, loaded.Messages, 1)

	require.NoError(t, s.DeleteSession("+919876543210"))
	gone, err := s.GetSession("+919876543210")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestGetCustomerByID(t *testing.T) {
	s := NewInMemoryStore()

	c, err := s.GetCustomerByID("CUST002")
	require.NoError(t, err)
	assert.Equal(t, "Priya Sharma", c.Name)

	_, err = s.GetCustomerByID("CUST999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSessions(t *testing.T) {
	s := NewInMemoryStore()

	empty, err := s.ListSessions()
	require.NoError(t, err)
	assert.Empty(t, empty)

	st := models.NewCallState(demoCustomers[0], demoLoans[0])
	st.AppendAssistant("Am I speaking with Rajesh Kumar?")
	st.AwaitingUser = true
	require.NoError(t, s.SaveSession(demoCustomers[0].Phone, st))
	require.NoError(t, s.SaveSession(demoCustomers[1].Phone, models.NewCallState(demoCustomers[1], demoLoans[1])))

	sessions, err := s.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	key := "+919876543210"
	loaded, ok := sessions[key]
	require.True(t, ok, "sessions keyed by normalized phone, got %v", sessions)
	assert.True(t, loaded.AwaitingUser)
}

func TestSessionIsolation(t *testing.T) {
	s := NewInMemoryStore()

	st := models.NewCallState(demoCustomers[0], demoLoans[0])
	require.NoError(t, s.SaveSession(demoCustomers[0].Phone, st))

	// Mutating the caller's copy must not leak into the stored session.
	st.AppendUser("later mutation")
	loaded, err := s.GetSession(demoCustomers[0].Phone)
	require.NoError(t, err)
	assert.Empty(t, loaded.Messages)
}
