package recovery

import (
	"context"
	"strings"
	"testing"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/store"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/testutil"
)

func TestRunRepromptsWaitingSessions(t *testing.T) {
	st := store.NewInMemoryStore()
	waiting := testutil.AwaitingState("Could you confirm your date of birth?")
	if err := st.SaveSession("919876543210", waiting); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	svc := &testutil.RecordingService{}

	stats, err := NewManager(st, svc).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Scanned != 1 || stats.Reprompted != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	sent := svc.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected one re-delivered prompt, got %d", len(sent))
	}
	if !strings.Contains(sent[0].Body, "date of birth") {
		t.Errorf("re-delivered prompt lost the question: %q", sent[0].Body)
	}
	if !strings.HasPrefix(sent[0].Body, "Resuming") {
		t.Errorf("re-delivered prompt should explain the resume: %q", sent[0].Body)
	}
}

func TestRunArchivesFinishedSessions(t *testing.T) {
	st := store.NewInMemoryStore()
	if err := st.SaveSession("919876543210", testutil.CompletedState(models.OutcomePaid)); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	svc := &testutil.RecordingService{}

	stats, err := NewManager(st, svc).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Archived != 1 {
		t.Errorf("expected 1 archived session, got %+v", stats)
	}
	loaded, err := st.GetSession("919876543210")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if loaded != nil {
		t.Error("finished session should have been removed from the store")
	}
	if len(svc.Sent()) != 0 {
		t.Error("archiving must not message the customer")
	}
}

func TestRunKeepsLockedSessions(t *testing.T) {
	st := store.NewInMemoryStore()
	locked := testutil.CompletedState(models.OutcomeEscalated)
	locked.SessionLocked = true
	if err := st.SaveSession("919876543210", locked); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	svc := &testutil.RecordingService{}

	stats, err := NewManager(st, svc).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Locked != 1 || stats.Archived != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	loaded, err := st.GetSession("919876543210")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if loaded == nil {
		t.Error("locked session must stay in the store to keep dropping messages")
	}
}

func TestRunSurvivesDeliveryFailure(t *testing.T) {
	st := store.NewInMemoryStore()
	if err := st.SaveSession("919876543210", testutil.AwaitingState("Can you pay today?")); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	svc := &testutil.RecordingService{Err: context.DeadlineExceeded}

	stats, err := NewManager(st, svc).Run(context.Background())
	if err != nil {
		t.Fatalf("Run should not fail on delivery errors: %v", err)
	}
	if stats.Reprompted != 0 {
		t.Errorf("failed delivery must not count as reprompted: %+v", stats)
	}
	loaded, err := st.GetSession("919876543210")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if loaded == nil {
		t.Error("waiting session must survive a failed re-delivery")
	}
}
