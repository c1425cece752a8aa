package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

func TestRecordingServiceCapturesDeliveries(t *testing.T) {
	svc := &RecordingService{}
	if err := svc.SendMessage(context.Background(), "919876543210", "hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	sent := svc.Sent()
	if len(sent) != 1 || sent[0].To != "919876543210" || sent[0].Body != "hello" {
		t.Errorf("unexpected captured deliveries: %+v", sent)
	}
}

func TestRecordingServiceFailsWhenConfigured(t *testing.T) {
	svc := &RecordingService{Err: errors.New("boom")}
	if err := svc.SendMessage(context.Background(), "919876543210", "hello"); err == nil {
		t.Fatal("expected configured error")
	}
	if len(svc.Sent()) != 0 {
		t.Error("failed delivery must not be recorded")
	}
}

func TestAwaitingStateIsValid(t *testing.T) {
	st := AwaitingState("What is your date of birth?")
	if err := st.Validate(); err != nil {
		t.Fatalf("awaiting fixture violates invariants: %v", err)
	}
	if !st.AwaitingUser || st.IsComplete {
		t.Errorf("unexpected control fields: awaiting=%t complete=%t", st.AwaitingUser, st.IsComplete)
	}
}

func TestCompletedStateIsValid(t *testing.T) {
	st := CompletedState(models.OutcomePaid)
	if err := st.Validate(); err != nil {
		t.Fatalf("completed fixture violates invariants: %v", err)
	}
	if !st.IsComplete || st.CallOutcome != models.OutcomePaid {
		t.Errorf("unexpected outcome fields: complete=%t outcome=%q", st.IsComplete, st.CallOutcome)
	}
}
