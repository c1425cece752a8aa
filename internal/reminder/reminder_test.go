package reminder

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/store"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/testutil"
)

func seedPromise(t *testing.T, st *store.InMemoryStore, date string) string {
	t.Helper()
	id, err := st.SavePromise(context.Background(), models.PromiseToPay{
		CustomerID: "CUST001",
		Amount:     15000,
		Date:       date,
		PlanName:   "Custom Arrangement",
		CreatedAt:  testutil.Now,
	})
	if err != nil {
		t.Fatalf("SavePromise failed: %v", err)
	}
	return id
}

func TestRunOnceRemindsDueTomorrow(t *testing.T) {
	st := store.NewInMemoryStore()
	id := seedPromise(t, st, "01-09-2026")
	svc := &testutil.RecordingService{}
	r := NewService(st, svc, WithClock(testutil.Clock))

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	sent := svc.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(sent))
	}
	if !strings.Contains(sent[0].Body, id) || !strings.Contains(sent[0].Body, "tomorrow") {
		t.Errorf("reminder missing reference or timing: %q", sent[0].Body)
	}
	if !strings.Contains(sent[0].Body, "₹15000") {
		t.Errorf("reminder missing amount: %q", sent[0].Body)
	}
}

func TestRunOnceRemindsDueToday(t *testing.T) {
	st := store.NewInMemoryStore()
	seedPromise(t, st, "31-08-2026")
	svc := &testutil.RecordingService{}
	r := NewService(st, svc, WithClock(testutil.Clock))

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	sent := svc.Sent()
	if len(sent) != 1 || !strings.Contains(sent[0].Body, "today") {
		t.Fatalf("expected one due-today reminder, got %+v", sent)
	}
}

func TestRunOnceSkipsFarAndPastDates(t *testing.T) {
	st := store.NewInMemoryStore()
	seedPromise(t, st, "15-09-2026") // two weeks out
	seedPromise(t, st, "20-08-2026") // already past
	svc := &testutil.RecordingService{}
	r := NewService(st, svc, WithClock(testutil.Clock))

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if sent := svc.Sent(); len(sent) != 0 {
		t.Errorf("expected no reminders, got %+v", sent)
	}
}

func TestRunOnceFollowsLocalCalendarDay(t *testing.T) {
	// 02:00 IST on 31-08 is still 30-08 in UTC; the due window must follow
	// the clock's calendar day, not the UTC one.
	ist := time.FixedZone("IST", 5*3600+1800)
	early := func() time.Time { return time.Date(2026, time.August, 31, 2, 0, 0, 0, ist) }

	st := store.NewInMemoryStore()
	seedPromise(t, st, "30-08-2026") // past in local terms
	dueID := seedPromise(t, st, "31-08-2026")
	svc := &testutil.RecordingService{}
	r := NewService(st, svc, WithClock(early))

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	sent := svc.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected only the due-today reminder, got %+v", sent)
	}
	if !strings.Contains(sent[0].Body, dueID) || !strings.Contains(sent[0].Body, "today") {
		t.Errorf("reminder should name %s as due today: %q", dueID, sent[0].Body)
	}
}

func TestRunOnceRemindsAtMostOncePerDay(t *testing.T) {
	st := store.NewInMemoryStore()
	seedPromise(t, st, "01-09-2026")
	svc := &testutil.RecordingService{}
	r := NewService(st, svc, WithClock(testutil.Clock))

	for i := 0; i < 3; i++ {
		if err := r.RunOnce(context.Background()); err != nil {
			t.Fatalf("RunOnce #%d failed: %v", i+1, err)
		}
	}
	if sent := svc.Sent(); len(sent) != 1 {
		t.Errorf("expected a single reminder across repeated sweeps, got %d", len(sent))
	}
}

func TestRunOnceRetriesAfterDeliveryFailure(t *testing.T) {
	st := store.NewInMemoryStore()
	seedPromise(t, st, "01-09-2026")
	svc := &testutil.RecordingService{Err: context.DeadlineExceeded}
	r := NewService(st, svc, WithClock(testutil.Clock))

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if len(svc.Sent()) != 0 {
		t.Fatal("delivery should have failed")
	}

	// The next sweep retries because the failed reminder was never marked
	// sent.
	svc.Err = nil
	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("retry sweep failed: %v", err)
	}
	if len(svc.Sent()) != 1 {
		t.Errorf("expected reminder on retry, got %d", len(svc.Sent()))
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	st := store.NewInMemoryStore()
	r := NewService(st, &testutil.RecordingService{}, WithSchedule("not a cron expr"))
	if err := r.Start(); err == nil {
		r.Stop()
		t.Fatal("expected error for invalid schedule")
	}
}

func TestStartAndStopWithValidSchedule(t *testing.T) {
	st := store.NewInMemoryStore()
	r := NewService(st, &testutil.RecordingService{}, WithSchedule("* * * * *"), WithClock(func() time.Time { return testutil.Now }))
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	r.Stop()
}
