package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/util"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is a Store backed by a local SQLite file. Sessions are stored
// as JSON documents, business records as rows.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the SQLite database at the DSN
// path and applies migrations.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// GetCustomerByPhone looks up a customer by phone. Matching tolerates
// missing country codes by comparing the trailing national digits.
func (s *SQLiteStore) GetCustomerByPhone(phone string) (*models.Customer, error) {
	rows, err := s.db.Query(`SELECT id, name, phone, dob FROM customers`)
	if err != nil {
		slog.Error("SQLiteStore GetCustomerByPhone query failed", "error", err)
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
func (s *SQLiteStore) GetCustomerByID(customerID string) (*models.Customer, error) {
	row := s.db.QueryRow(`SELECT id, name, phone, dob FROM customers WHERE id = ?`, customerID)
	var c models.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.DOB)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore GetCustomerByID failed", "error", err, "customerID", customerID)
		return nil, fmt.Errorf("failed to query customer %s: %w", customerID, err)
	}
	return &c, nil
}

// GetLoanByCustomer returns the customer's delinquent loan.
func (s *SQLiteStore) GetLoanByCustomer(customerID string) (*models.Loan, error) {
	row := s.db.QueryRow(`SELECT id, customer_id, type, principal, outstanding, emi, due_date, days_past_due FROM loans WHERE customer_id = ?`, customerID)
	var l models.Loan
	err := row.Scan(&l.ID, &l.CustomerID, &l.Type, &l.Principal, &l.Outstanding, &l.EMI, &l.DueDate, &l.DaysPastDue)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore GetLoanByCustomer failed", "error", err, "customerID", customerID)
		return nil, fmt.Errorf("failed to query loan for %s: %w", customerID, err)
	}
	return &l, nil
}

// SavePromise records a finalized promise to pay and issues its reference.
func (s *SQLiteStore) SavePromise(ctx context.Context, p models.PromiseToPay) (string, error) {
	if p.ID == "" {
		p.ID = util.GenerateReference("PTP")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO promises (id, customer_id, amount, date, plan_name, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.CustomerID, p.Amount, p.Date, p.PlanName, p.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SavePromise failed", "error", err, "customerID", p.CustomerID)
		return "", fmt.Errorf("failed to insert promise for %s: %w", p.CustomerID, err)
	}
	slog.Debug("SQLiteStore SavePromise succeeded", "id", p.ID, "customerID", p.CustomerID)
	return p.ID, nil
}

// SaveDispute records a dispute and issues its reference.
func (s *SQLiteStore) SaveDispute(ctx context.Context, d models.Dispute) (string, error) {
	if d.ID == "" {
		d.ID = util.GenerateReference("DSP")
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO disputes (id, customer_id, reason, created_at) VALUES (?, ?, ?, ?)`,
		d.ID, d.CustomerID, d.Reason, d.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveDispute failed", "error", err, "customerID", d.CustomerID)
		return "", fmt.Errorf("failed to insert dispute for %s: %w", d.CustomerID, err)
	}
	return d.ID, nil
}

// SaveCallRecord records a call summary and issues its reference.
func (s *SQLiteStore) SaveCallRecord(ctx context.Context, r models.CallRecord) (string, error) {
	if r.ID == "" {
		r.ID = util.GenerateReference("CALL")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO call_records (id, customer_id, outcome, payment_status, summary, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.CustomerID, r.Outcome, string(r.PaymentStatus), r.Summary, r.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveCallRecord failed", "error", err, "customerID", r.CustomerID)
		return "", fmt.Errorf("failed to insert call record for %s: %w", r.CustomerID, err)
	}
	return r.ID, nil
}

// ListPromises returns all recorded promises to pay.
func (s *SQLiteStore) ListPromises() ([]models.PromiseToPay, error) {
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
func (s *SQLiteStore) ListDisputes() ([]models.Dispute, error) {
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
func (s *SQLiteStore) ListCallRecords() ([]models.CallRecord, error) {
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
func (s *SQLiteStore) GetSession(phone string) (*models.CallState, error) {
	row := s.db.QueryRow(`SELECT state FROM sessions WHERE phone = ?`, util.NormalizePhone(phone))
	var raw string
	err := row.Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err)
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	var st models.CallState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("failed to decode session state: %w", err)
	}
	return &st, nil
}

// SaveSession stores the conversation state for a phone number.
func (s *SQLiteStore) SaveSession(phone string, st models.CallState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO sessions (phone, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(phone) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		util.NormalizePhone(phone), string(raw), time.Now())
	if err != nil {
		slog.Error("SQLiteStore SaveSession failed", "error", err)
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// ListSessions returns every stored session keyed by phone number.
func (s *SQLiteStore) ListSessions() (map[string]models.CallState, error) {
	rows, err := s.db.Query(`SELECT phone, state FROM sessions`)
	if err != nil {
		slog.Error("SQLiteStore ListSessions query failed", "error", err)
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.CallState)
	for rows.Next() {
		var phone, raw string
		if err := rows.Scan(&phone, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		var st models.CallState
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return nil, fmt.Errorf("failed to decode session state for %s: %w", phone, err)
		}
		out[phone] = st
	}
	return out, rows.Err()
}

// DeleteSession removes the conversation state for a phone number.
func (s *SQLiteStore) DeleteSession(phone string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE phone = ?`, util.NormalizePhone(phone)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
