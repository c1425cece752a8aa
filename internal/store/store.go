// Package store provides storage backends for the collection agent.
//
// It persists the customer/loan book, active conversation sessions, and the
// business records the flow produces (promises to pay, disputes, call
// records). An in-memory store backs tests and local runs; SQLite and
// PostgreSQL provide durable storage.
package store

import (
	"context"
	"errors"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// Store is the persistence contract consumed by the session manager, the
// flow engine, and the API layer.
type Store interface {
	// Customer/loan book.
	GetCustomerByPhone(phone string) (*models.Customer, error)
	GetCustomerByID(customerID string) (*models.Customer, error)
	GetLoanByCustomer(customerID string) (*models.Loan, error)

	// Business records. Save methods return the issued record reference.
	SavePromise(ctx context.Context, p models.PromiseToPay) (string, error)
	SaveDispute(ctx context.Context, d models.Dispute) (string, error)
	SaveCallRecord(ctx context.Context, r models.CallRecord) (string, error)
	ListPromises() ([]models.PromiseToPay, error)
	ListDisputes() ([]models.Dispute, error)
	ListCallRecords() ([]models.CallRecord, error)

	// Conversation sessions, keyed by normalized phone number. GetSession
	// returns (nil, nil) when no session exists.
	GetSession(phone string) (*models.CallState, error)
	SaveSession(phone string, st models.CallState) error
	DeleteSession(phone string) error
	// ListSessions returns every stored session keyed by phone number,
	// used by the startup recovery pass.
	ListSessions() (map[string]models.CallState, error)

	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	// DSN is the backend connection string: a file path for SQLite, a
	// postgres:// URL for PostgreSQL.
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithDSN sets the backend connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}
