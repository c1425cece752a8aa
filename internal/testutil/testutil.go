// Package testutil provides shared test doubles and fixtures for the
// collection agent's tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

// Now is the fixed instant deterministic tests run at.
var Now = time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)

// Clock returns the fixed test instant. It satisfies the clock hooks the
// flow engine and reminder service expose.
func Clock() time.Time { return Now }

// SentMessage is one delivery captured by RecordingService.
type SentMessage struct {
	To   string
	Body string
}

// RecordingService is a messaging.Service that records every delivery. A
// non-nil Err makes SendMessage fail, for exercising delivery-failure paths.
type RecordingService struct {
	mu   sync.Mutex
	Err  error
	sent []SentMessage
}

// ValidateAndCanonicalizeRecipient accepts any non-empty recipient as-is.
func (r *RecordingService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return recipient, nil
}

// SendMessage records the delivery, or fails with the configured error.
func (r *RecordingService) SendMessage(ctx context.Context, to string, body string) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, SentMessage{To: to, Body: body})
	return nil
}

// Sent returns a copy of the recorded deliveries.
func (r *RecordingService) Sent() []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SentMessage, len(r.sent))
	copy(out, r.sent)
	return out
}

// DemoCustomer returns the first demonstration customer and loan every fresh
// store is seeded with.
func DemoCustomer() (models.Customer, models.Loan) {
	c := models.Customer{ID: "CUST001", Name: "Rajesh Kumar", Phone: "+919876543210", DOB: "15-03-1985"}
	l := models.Loan{ID: "LN001", CustomerID: "CUST001", Type: "personal loan", Principal: 200000, Outstanding: 45000, EMI: 8500, DueDate: "05-08-2026", DaysPastDue: 30}
	return c, l
}

// AwaitingState builds a mid-conversation state that is waiting on the
// customer, for session and recovery tests.
func AwaitingState(prompt string) models.CallState {
	c, l := DemoCustomer()
	st := models.NewCallState(c, l)
	st.Stage = models.StageVerification
	st.HasGreeted = true
	st.AppendAssistant(prompt)
	st.AwaitingUser = true
	return st
}

// CompletedState builds a finished conversation state with the given
// outcome.
func CompletedState(outcome string) models.CallState {
	c, l := DemoCustomer()
	st := models.NewCallState(c, l)
	st.Stage = models.StageClosing
	st.HasGreeted = true
	st.IsVerified = true
	st.AppendAssistant("Goodbye.")
	st.CallOutcome = outcome
	st.IsComplete = true
	return st
}
