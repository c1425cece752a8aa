package models

import (
	"errors"
	"testing"
)

func demoState() CallState {
	c := Customer{ID: "CUST001", Name: "Rajesh Kumar", Phone: "+919876543210", DOB: "15-03-1985"}
	l := Loan{ID: "LN001", CustomerID: "CUST001", Type: "Personal Loan", Outstanding: 45000, DaysPastDue: 30}
	return NewCallState(c, l)
}

func TestNewCallStateDefaults(t *testing.T) {
	s := demoState()
	if s.Stage != StageInit {
		t.Errorf("expected stage %q, got %q", StageInit, s.Stage)
	}
	if s.PaymentStatus != PaymentStatusUnknown {
		t.Errorf("expected payment status %q, got %q", PaymentStatusUnknown, s.PaymentStatus)
	}
	if s.IsComplete || s.AwaitingUser || s.IsVerified {
		t.Error("fresh state must not be complete, awaiting, or verified")
	}
	if s.OutstandingAmount != 45000 {
		t.Errorf("expected outstanding 45000, got %v", s.OutstandingAmount)
	}
}

func TestFirstName(t *testing.T) {
	s := demoState()
	if got := s.FirstName(); got != "Rajesh" {
		t.Errorf("expected Rajesh, got %q", got)
	}
	s.CustomerName = "Priya"
	if got := s.FirstName(); got != "Priya" {
		t.Errorf("expected Priya, got %q", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := demoState()
	s.AppendAssistant("hello")
	s.OfferedPlans = []PaymentPlan{{Name: "3-Month Installment", Months: 3}}
	plan := s.OfferedPlans[0]
	s.SelectedPlan = &plan

	c := s.Clone()
	c.Messages[0].Content = "changed"
	c.OfferedPlans[0].Name = "changed"
	c.SelectedPlan.Name = "changed"

	if s.Messages[0].Content != "hello" {
		t.Error("clone shares message backing array with original")
	}
	if s.OfferedPlans[0].Name != "3-Month Installment" {
		t.Error("clone shares offered plans with original")
	}
	if s.SelectedPlan.Name != "3-Month Installment" {
		t.Error("clone shares selected plan pointer with original")
	}
}

func TestValidateInvariants(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CallState)
		wantErr error
	}{
		{
			name:   "fresh state is valid",
			mutate: func(s *CallState) {},
		},
		{
			name: "awaiting delay reason without pending amount",
			mutate: func(s *CallState) {
				s.PaymentStatus = PaymentStatusWilling
				s.AwaitingDelayReason = true
			},
			wantErr: ErrPendingAmountMissing,
		},
		{
			name: "ptp id without date",
			mutate: func(s *CallState) {
				s.PTPID = "PTP0001"
				s.PTPAmount = 45000
			},
			wantErr: ErrPartialFinalization,
		},
		{
			name: "complete without outcome",
			mutate: func(s *CallState) {
				s.IsComplete = true
			},
			wantErr: ErrMissingOutcome,
		},
		{
			name: "awaiting user with no assistant message",
			mutate: func(s *CallState) {
				s.AwaitingUser = true
			},
			wantErr: ErrAwaitingWithoutPrompt,
		},
		{
			name: "attempt counter over bound",
			mutate: func(s *CallState) {
				s.VerificationAttempts = MaxVerificationAttempts + 1
			},
			wantErr: ErrAttemptsExceeded,
		},
		{
			name: "finalized ptp with all fields",
			mutate: func(s *CallState) {
				s.PTPID = "PTP0001"
				s.PTPAmount = 15000
				s.PTPDate = "05-01-2027"
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := demoState()
			tc.mutate(&s)
			err := s.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestConsumeUserInput(t *testing.T) {
	s := demoState()
	s.LastUserInput = "yes"
	if got := s.ConsumeUserInput(); got != "yes" {
		t.Errorf("expected yes, got %q", got)
	}
	if s.LastUserInput != "" {
		t.Error("input was not cleared after consumption")
	}
}

func TestLastAssistantMessage(t *testing.T) {
	s := demoState()
	if s.LastAssistantMessage() != "" {
		t.Error("expected empty message on fresh state")
	}
	s.AppendAssistant("first")
	s.AppendUser("reply")
	s.AppendAssistant("second")
	s.AppendUser("reply two")
	if got := s.LastAssistantMessage(); got != "second" {
		t.Errorf("expected second, got %q", got)
	}
}
