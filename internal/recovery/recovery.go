// Package recovery restores conversational service after a process restart.
//
// Conversation sessions survive restarts in the store, but the customer on
// the other end does not know the agent is back. The startup pass scans the
// stored sessions, archives conversations that finished before the previous
// process could clean them up, and re-delivers the open question to every
// customer the agent was waiting on so the dialogue can resume.
package recovery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/messaging"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

// resumePrefix is prepended to a re-delivered question so the customer
// understands why they are seeing it again.
const resumePrefix = "Resuming our earlier conversation. "

// Store is the session surface the recovery pass needs.
type Store interface {
	ListSessions() (map[string]models.CallState, error)
	DeleteSession(phone string) error
}

// Stats summarizes one recovery pass.
type Stats struct {
	Scanned    int
	Archived   int
	Reprompted int
	Locked     int
}

// Manager performs the startup recovery pass.
type Manager struct {
	store Store
	msg   messaging.Service
}

// NewManager creates a recovery manager over the session store and delivery
// channel.
func NewManager(st Store, msg messaging.Service) *Manager {
	return &Manager{store: st, msg: msg}
}

// Run executes one recovery pass. Delivery failures are logged and skipped;
// the affected customer simply has to write in first. Only a store failure
// aborts the pass.
func (m *Manager) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	sessions, err := m.store.ListSessions()
	if err != nil {
		return stats, fmt.Errorf("list sessions: %w", err)
	}
	stats.Scanned = len(sessions)
	slog.Info("recovery pass starting", "sessions", stats.Scanned)

	for phone, st := range sessions {
		switch {
		case st.IsComplete && !st.SessionLocked:
			// Finished before the previous process could archive it.
			if err := m.store.DeleteSession(phone); err != nil {
				return stats, fmt.Errorf("archive session %s: %w", phone, err)
			}
			stats.Archived++
			slog.Debug("recovery archived finished session", "phone", phone, "outcome", st.CallOutcome)

		case st.SessionLocked:
			// Locked sessions stay in the store so inbound messages keep
			// being dropped.
			stats.Locked++

		case st.AwaitingUser:
			if m.resendPrompt(ctx, phone, st) {
				stats.Reprompted++
			}
		}
	}

	slog.Info("recovery pass complete",
		"scanned", stats.Scanned,
		"archived", stats.Archived,
		"reprompted", stats.Reprompted,
		"locked", stats.Locked)
	return stats, nil
}

// resendPrompt re-delivers the open question of a waiting session. It
// reports whether delivery succeeded.
func (m *Manager) resendPrompt(ctx context.Context, phone string, st models.CallState) bool {
	prompt := st.LastAssistantMessage()
	if prompt == "" {
		slog.Warn("recovery found waiting session without a prompt", "phone", phone)
		return false
	}
	to, err := m.msg.ValidateAndCanonicalizeRecipient(phone)
	if err != nil {
		slog.Warn("recovery skipping session with invalid recipient", "error", err, "phone", phone)
		return false
	}
	if err := m.msg.SendMessage(ctx, to, resumePrefix+prompt); err != nil {
		slog.Error("recovery failed to re-deliver prompt", "error", err, "phone", phone)
		return false
	}
	slog.Debug("recovery re-delivered open prompt", "phone", phone, "stage", st.Stage)
	return true
}
