package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/util"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is a Store backed by PostgreSQL, selected when the DSN is a
// postgres:// URL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to PostgreSQL at the DSN and applies
// migrations.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// GetCustomerByPhone looks up a customer by phone. Matching tolerates
// missing country codes by comparing the trailing national digits.
func (s *PostgresStore) GetCustomerByPhone(phone string) (*models.Customer, error) {
	rows, err := s.db.Query(`SELECT id, name, phone, dob FROM customers`)
	if err != nil {
		slog.Error("PostgresStore GetCustomerByPhone query failed", "error", err)
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.DOB); err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		if util.SamePhone(c.Phone, phone) {
			return &c, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customer rows: %w", err)
	}
	return nil, ErrNotFound
}

// GetCustomerByID looks up a customer by their record ID.
func (s *PostgresStore) GetCustomerByID(customerID string) (*models.Customer, error) {
	row := s.db.QueryRow(`SELECT id, name, phone, dob FROM customers WHERE id = $1`, customerID)
	var c models.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.DOB)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		slog.Error("PostgresStore GetCustomerByID failed", "error", err, "customerID", customerID)
		return nil, fmt.Errorf("failed to query customer %s: %w", customerID, err)
	}
	return &c, nil
}

// GetLoanByCustomer returns the customer's delinquent loan.
func (s *PostgresStore) GetLoanByCustomer(customerID string) (*models.Loan, error) {
	row := s.db.QueryRow(`SELECT id, customer_id, type, principal, outstanding, emi, due_date, days_past_due FROM loans WHERE customer_id = $1`, customerID)
	var l models.Loan
	err := row.Scan(&l.ID, &l.CustomerID, &l.Type, &l.Principal, &l.Outstanding, &l.EMI, &l.DueDate, &l.DaysPastDue)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		slog.Error("PostgresStore GetLoanByCustomer failed", "error", err, "customerID", customerID)
		return nil, fmt.Errorf("failed to query loan for %s: %w", customerID, err)
	}
	return &l, nil
}

// SavePromise records a finalized promise to pay and issues its reference.
func (s *PostgresStore) SavePromise(ctx context.Context, p models.PromiseToPay) (string, error) {
	if p.ID == "" {
		p.ID = util.GenerateReference("PTP")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO promises (id, customer_id, amount, date, plan_name, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.CustomerID, p.Amount, p.Date, p.PlanName, p.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SavePromise failed", "error", err, "customerID", p.CustomerID)
		return "", fmt.Errorf("failed to insert promise for %s: %w", p.CustomerID, err)
	}
	slog.Debug("PostgresStore SavePromise succeeded", "id", p.ID, "customerID", p.CustomerID)
	return p.ID, nil
}

// SaveDispute records a dispute and issues its reference.
func (s *PostgresStore) SaveDispute(ctx context.Context, d models.Dispute) (string, error) {
	if d.ID == "" {
		d.ID = util.GenerateReference("DSP")
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO disputes (id, customer_id, reason, created_at) VALUES ($1, $2, $3, $4)`,
		d.ID, d.CustomerID, d.Reason, d.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveDispute failed", "error", err, "customerID", d.CustomerID)
		return "", fmt.Errorf("failed to insert dispute for %s: %w", d.CustomerID, err)
	}
	return d.ID, nil
}

// SaveCallRecord records a call summary and issues its reference.
func (s *PostgresStore) SaveCallRecord(ctx context.Context, r models.CallRecord) (string, error) {
	if r.ID == "" {
		r.ID = util.GenerateReference("CALL")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO call_records (id, customer_id, outcome, payment_status, summary, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.CustomerID, r.Outcome, string(r.PaymentStatus), r.Summary, r.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveCallRecord failed", "error", err, "customerID", r.CustomerID)
		return "", fmt.Errorf("failed to insert call record for %s: %w", r.CustomerID, err)
	}
	return r.ID, nil
}

// ListPromises returns all recorded promises to pay.
func (s *PostgresStore) ListPromises() ([]models.PromiseToPay, error) {
	rows, err := s.db.Query(`SELECT id, customer_id, amount, date, plan_name, created_at FROM promises ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query promises: %w", err)
	}
	defer rows.Close()

	var out []models.PromiseToPay
	for rows.Next() {
		var p models.PromiseToPay
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.Amount, &p.Date, &p.PlanName, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan promise row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListDisputes returns all recorded disputes.
func (s *PostgresStore) ListDisputes() ([]models.Dispute, error) {
	rows, err := s.db.Query(`SELECT id, customer_id, reason, created_at FROM disputes ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query disputes: %w", err)
	}
	defer rows.Close()

	var out []models.Dispute
	for rows.Next() {
		var d models.Dispute
		if err := rows.Scan(&d.ID, &d.CustomerID, &d.Reason, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dispute row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListCallRecords returns all recorded call summaries.
func (s *PostgresStore) ListCallRecords() ([]models.CallRecord, error) {
	rows, err := s.db.Query(`SELECT id, customer_id, outcome, payment_status, summary, created_at FROM call_records ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query call records: %w", err)
	}
	defer rows.Close()

	var out []models.CallRecord
	for rows.Next() {
		var r models.CallRecord
		var status string
		if err := rows.Scan(&r.ID, &r.CustomerID, &r.Outcome, &status, &r.Summary, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan call record row: %w", err)
		}
		r.PaymentStatus = models.PaymentStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetSession loads the conversation state for a phone number, or (nil, nil)
// when none exists.
func (s *PostgresStore) GetSession(phone string) (*models.CallState, error) {
	row := s.db.QueryRow(`SELECT state FROM sessions WHERE phone = $1`, util.NormalizePhone(phone))
	var raw []byte
	err := row.Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err)
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	var st models.CallState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("failed to decode session state: %w", err)
	}
	return &st, nil
}

// SaveSession stores the conversation state for a phone number.
func (s *PostgresStore) SaveSession(phone string, st models.CallState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO sessions (phone, state, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (phone) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		util.NormalizePhone(phone), raw, time.Now())
	if err != nil {
		slog.Error("PostgresStore SaveSession failed", "error", err)
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// ListSessions returns every stored session keyed by phone number.
func (s *PostgresStore) ListSessions() (map[string]models.CallState, error) {
	rows, err := s.db.Query(`SELECT phone, state FROM sessions`)
	if err != nil {
		slog.Error("PostgresStore ListSessions query failed", "error", err)
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.CallState)
	for rows.Next() {
		var phone string
		var raw []byte
		if err := rows.Scan(&phone, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		var st models.CallState
		if err := json.Unmarshal(raw, &st); err != nil {
			return nil, fmt.Errorf("failed to decode session state for %s: %w", phone, err)
		}
		out[phone] = st
	}
	return out, rows.Err()
}

// DeleteSession removes the conversation state for a phone number.
func (s *PostgresStore) DeleteSession(phone string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE phone = $1`, util.NormalizePhone(phone)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
