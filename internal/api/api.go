// Package api exposes the HTTP surface of the collection agent: the inbound
// message webhook, conversation management, record listings, and health.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/messaging"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/session"
)

// RecordStore is the read side the API serves record listings from.
type RecordStore interface {
	ListPromises() ([]models.PromiseToPay, error)
	ListDisputes() ([]models.Dispute, error)
	ListCallRecords() ([]models.CallRecord, error)
}

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address (e.g. ":8080").
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Server wires the session manager, record store and delivery channel into
// HTTP handlers.
type Server struct {
	sessions   *session.Manager
	st         RecordStore
	msgService messaging.Service
	httpServer *http.Server
}

// NewServer creates an API server.
func NewServer(sessions *session.Manager, st RecordStore, msgService messaging.Service, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	s := &Server{sessions: sessions, st: st, msgService: msgService}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// routes builds the request multiplexer.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.webhookHandler)
	mux.HandleFunc("/conversations/start", s.startConversationHandler)
	mux.HandleFunc("/records/promises", s.listPromisesHandler)
	mux.HandleFunc("/records/disputes", s.listDisputesHandler)
	mux.HandleFunc("/records/calls", s.listCallRecordsHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Start begins serving HTTP requests. It blocks until the server stops.
func (s *Server) Start() error {
	slog.Info("API server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("API server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("healthy", nil))
}
