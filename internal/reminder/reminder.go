// Package reminder delivers payment reminders for recorded promises to pay.
//
// A cron job scans the promise book and messages every customer whose
// committed payment date is today or tomorrow. Reminders are best-effort:
// a delivery failure is logged and retried on the next run, and a promise is
// reminded at most once per calendar day.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/messaging"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

// DefaultSchedule runs the reminder sweep every morning at 09:00.
const DefaultSchedule = "0 9 * * *"

// promiseDateLayout is the DD-MM-YYYY format promises are recorded in.
const promiseDateLayout = "02-01-2006"

// Store is the read surface the reminder sweep needs.
type Store interface {
	ListPromises() ([]models.PromiseToPay, error)
	GetCustomerByID(customerID string) (*models.Customer, error)
}

// Opts holds configuration options for the reminder service.
type Opts struct {
	Schedule string
	Clock    func() time.Time
}

// Option defines a configuration option for the reminder service.
type Option func(*Opts)

// WithSchedule overrides the cron expression for the reminder sweep.
func WithSchedule(expr string) Option {
	return func(o *Opts) { o.Schedule = expr }
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Opts) { o.Clock = clock }
}

// Service runs the scheduled reminder sweeps.
type Service struct {
	store    Store
	msg      messaging.Service
	schedule string
	clock    func() time.Time
	cron     *cron.Cron

	mu   sync.Mutex
	sent map[string]bool // "{promiseID}:{day}" keys already reminded
}

// NewService creates a reminder service over the promise book and delivery
// channel.
func NewService(st Store, msg messaging.Service, opts ...Option) *Service {
	cfg := Opts{Schedule: DefaultSchedule, Clock: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Service{
		store:    st,
		msg:      msg,
		schedule: cfg.Schedule,
		clock:    cfg.Clock,
		sent:     make(map[string]bool),
	}
}

// Start schedules the recurring sweep. It returns an error if the cron
// expression is invalid.
func (s *Service) Start() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := c.AddFunc(s.schedule, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			slog.Error("reminder sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	slog.Info("reminder service started", "schedule", s.schedule)
	return nil
}

// Stop stops the cron scheduler and waits for a running sweep to finish.
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunOnce performs a single sweep over the promise book. It is the body of
// the scheduled job and is exported so operators can trigger it manually.
func (s *Service) RunOnce(ctx context.Context) error {
	promises, err := s.store.ListPromises()
	if err != nil {
		return fmt.Errorf("list promises: %w", err)
	}

	// Midnight in the clock's zone, so the due window follows the local
	// calendar day rather than the UTC one.
	now := s.clock()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	reminded := 0
	for _, p := range promises {
		due, err := time.ParseInLocation(promiseDateLayout, p.Date, now.Location())
		if err != nil {
			slog.Warn("reminder skipping promise with unparseable date", "ptpID", p.ID, "date", p.Date)
			continue
		}
		days := int(due.Sub(today).Hours() / 24)
		if days < 0 || days > 1 {
			continue
		}
		key := p.ID + ":" + today.Format(promiseDateLayout)
		s.mu.Lock()
		already := s.sent[key]
		s.mu.Unlock()
		if already {
			continue
		}
		if err := s.remind(ctx, p, days == 0); err != nil {
			slog.Error("reminder delivery failed", "error", err, "ptpID", p.ID, "customerID", p.CustomerID)
			continue
		}
		s.mu.Lock()
		s.sent[key] = true
		s.mu.Unlock()
		reminded++
	}
	slog.Debug("reminder sweep complete", "promises", len(promises), "reminded", reminded)
	return nil
}

// remind composes and delivers one reminder message.
func (s *Service) remind(ctx context.Context, p models.PromiseToPay, dueToday bool) error {
	customer, err := s.store.GetCustomerByID(p.CustomerID)
	if err != nil {
		return fmt.Errorf("look up customer %s: %w", p.CustomerID, err)
	}

	when := fmt.Sprintf("tomorrow, %s", p.Date)
	if dueToday {
		when = fmt.Sprintf("today, %s", p.Date)
	}
	body := fmt.Sprintf(
		"Reminder from ABC Finance: your payment of ₹%.0f under reference %s is due %s. Paying on time stops further late charges on your account.",
		p.Amount, p.ID, when)

	to, err := s.msg.ValidateAndCanonicalizeRecipient(customer.Phone)
	if err != nil {
		return fmt.Errorf("invalid recipient for %s: %w", p.CustomerID, err)
	}
	if err := s.msg.SendMessage(ctx, to, body); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	slog.Info("payment reminder sent", "ptpID", p.ID, "customerID", p.CustomerID, "dueToday", dueToday)
	return nil
}
