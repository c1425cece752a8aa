package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/util"
)

// demoCustomers is the demonstration book loaded into fresh stores so the
// agent can be exercised without a provisioning step.
var demoCustomers = []models.Customer{
	{ID: "CUST001", Name: "Rajesh Kumar", Phone: "+919876543210", DOB: "15-03-1985"},
	{ID: "CUST002", Name: "Priya Sharma", Phone: "+919812345678", DOB: "22-07-1990"},
	{ID: "CUST003", Name: "Amit Patel", Phone: "+919811112222", DOB: "05-11-1988"},
}

var demoLoans = []models.Loan{
	{ID: "LN001", CustomerID: "CUST001", Type: "personal loan", Principal: 200000, Outstanding: 45000, EMI: 8500, DueDate: "05-08-2026", DaysPastDue: 30},
	{ID: "LN002", CustomerID: "CUST002", Type: "personal loan", Principal: 300000, Outstanding: 52500, EMI: 10500, DueDate: "20-07-2026", DaysPastDue: 45},
	{ID: "LN003", CustomerID: "CUST003", Type: "business loan", Principal: 500000, Outstanding: 125000, EMI: 21000, DueDate: "15-08-2026", DaysPastDue: 20},
}

// InMemoryStore is a process-local Store used by tests and local runs. It
// is safe for concurrent use.
type InMemoryStore struct {
	mu        sync.RWMutex
	customers []models.Customer
	loans     []models.Loan
	promises  []models.PromiseToPay
	disputes  []models.Dispute
	calls     []models.CallRecord
	sessions  map[string]models.CallState
}

// NewInMemoryStore creates an in-memory store preloaded with the
// demonstration customer book.
func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{sessions: make(map[string]models.CallState)}
	s.customers = append(s.customers, demoCustomers...)
	s.loans = append(s.loans, demoLoans...)
	return s
}

// AddCustomer registers a customer and their loan.
func (s *InMemoryStore) AddCustomer(c models.Customer, l models.Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = append(s.customers, c)
	s.loans = append(s.loans, l)
}

// GetCustomerByPhone looks up a customer by normalized phone number.
func (s *InMemoryStore) GetCustomerByPhone(phone string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.customers {
		if util.SamePhone(s.customers[i].Phone, phone) {
			c := s.customers[i]
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// GetCustomerByID looks up a customer by their record ID.
func (s *InMemoryStore) GetCustomerByID(customerID string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.customers {
		if s.customers[i].ID == customerID {
			c := s.customers[i]
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// GetLoanByCustomer returns the customer's delinquent loan.
func (s *InMemoryStore) GetLoanByCustomer(customerID string) (*models.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.loans {
		if s.loans[i].CustomerID == customerID {
			l := s.loans[i]
			return &l, nil
		}
	}
	return nil, ErrNotFound
}

// SavePromise records a finalized promise to pay and issues its reference.
func (s *InMemoryStore) SavePromise(ctx context.Context, p models.PromiseToPay) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = util.GenerateReference("PTP")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.promises = append(s.promises, p)
	slog.Debug("InMemoryStore SavePromise succeeded", "id", p.ID, "customerID", p.CustomerID)
	return p.ID, nil
}

// SaveDispute records a dispute and issues its reference.
func (s *InMemoryStore) SaveDispute(ctx context.Context, d models.Dispute) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = util.GenerateReference("DSP")
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	s.disputes = append(s.disputes, d)
	slog.Debug("InMemoryStore SaveDispute succeeded", "id", d.ID, "customerID", d.CustomerID)
	return d.ID, nil
}

// SaveCallRecord records a call summary and issues its reference.
func (s *InMemoryStore) SaveCallRecord(ctx context.Context, r models.CallRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = util.GenerateReference("CALL")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.calls = append(s.calls, r)
	slog.Debug("InMemoryStore SaveCallRecord succeeded", "id", r.ID, "customerID", r.CustomerID, "outcome", r.Outcome)
	return r.ID, nil
}

// ListPromises returns all recorded promises to pay.
func (s *InMemoryStore) ListPromises() ([]models.PromiseToPay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PromiseToPay, len(s.promises))
	copy(out, s.promises)
	return out, nil
}

// ListDisputes returns all recorded disputes.
func (s *InMemoryStore) ListDisputes() ([]models.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Dispute, len(s.disputes))
	copy(out, s.disputes)
	return out, nil
}

// ListCallRecords returns all recorded call summaries.
func (s *InMemoryStore) ListCallRecords() ([]models.CallRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CallRecord, len(s.calls))
	copy(out, s.calls)
	return out, nil
}

// GetSession loads the conversation state for a phone number, or (nil, nil)
// when none exists.
func (s *InMemoryStore) GetSession(phone string) (*models.CallState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[util.NormalizePhone(phone)]
	if !ok {
		return nil, nil
	}
	clone := st.Clone()
	return &clone, nil
}

// SaveSession stores the conversation state for a phone number.
func (s *InMemoryStore) SaveSession(phone string, st models.CallState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[util.NormalizePhone(phone)] = st.Clone()
	return nil
}

// ListSessions returns every stored session keyed by phone number.
func (s *InMemoryStore) ListSessions() (map[string]models.CallState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.CallState, len(s.sessions))
	for phone, st := range s.sessions {
		out[phone] = st.Clone()
	}
	return out, nil
}

// DeleteSession removes the conversation state for a phone number.
func (s *InMemoryStore) DeleteSession(phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, util.NormalizePhone(phone))
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
