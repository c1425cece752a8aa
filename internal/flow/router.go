package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

// Next decides which stage handler runs next for the given state. The second
// return is false when the turn is over: the session is locked, the
// conversation is complete, or the flow is waiting for the customer.
//
// Hard stops are checked first, then a fixed adjacency table keyed on the
// current stage. Branch stages (payment check, paid verification,
// negotiation) rewrite the stage field themselves when they transition, so
// their table entries dispatch back to the same handler until they do.
func Next(st models.CallState) (models.Stage, bool) {
	if st.SessionLocked || st.IsComplete || st.AwaitingUser {
		return "", false
	}

	switch st.Stage {
	case models.StageInit:
		return models.StageGreeting, true
	case models.StageGreeting:
		if !st.HasGreeted {
			return models.StageGreeting, true
		}
		return models.StageVerification, true
	case models.StageVerification:
		if !st.IsVerified {
			return models.StageVerification, true
		}
		return models.StageDisclosure, true
	case models.StageDisclosure:
		if !st.HasDisclosed {
			return models.StageDisclosure, true
		}
		return models.StagePaymentCheck, true
	case models.StagePaymentCheck:
		switch st.PaymentStatus {
		case models.PaymentStatusUnknown:
			return models.StagePaymentCheck, true
		case models.PaymentStatusPaid:
			return models.StagePaidVerification, true
		case models.PaymentStatusDisputed:
			return models.StageClosing, true
		default: // willing, unable, callback
			return models.StageNegotiation, true
		}
	case models.StagePaidVerification:
		return models.StagePaidVerification, true
	case models.StageNegotiation:
		return models.StageNegotiation, true
	case models.StageClosing:
		return models.StageClosing, true
	}
	return "", false
}

// RunTurn drives the state machine for one inbound turn: it repeatedly
// selects and applies stage handlers until the state reaches a
// wait-for-input or complete boundary. The loop is bounded; exceeding the
// bound indicates a routing defect and fails the turn loudly. The state's
// structural invariants are validated after every handler application.
func (e *Engine) RunTurn(ctx context.Context, st models.CallState) (models.CallState, error) {
	slog.Debug("flow.RunTurn: starting turn", "customerID", st.CustomerID, "stage", st.Stage, "turn", st.TurnCount)
	st.TurnCount++

	for hops := 0; ; hops++ {
		next, ok := Next(st)
		if !ok {
			slog.Debug("flow.RunTurn: turn boundary reached", "customerID", st.CustomerID, "stage", st.Stage, "complete", st.IsComplete, "awaiting", st.AwaitingUser)
			return st, nil
		}
		if hops >= e.cfg.MaxTurnHops {
			err := fmt.Errorf("turn exceeded %d stage applications without reaching a boundary (stage %s)", e.cfg.MaxTurnHops, st.Stage)
			slog.Error("flow.RunTurn: hop bound exceeded", "error", err, "customerID", st.CustomerID)
			return st, err
		}
		st.Stage = next

		updated, err := e.apply(ctx, st)
		if err != nil {
			slog.Error("flow.RunTurn: stage handler failed", "error", err, "customerID", st.CustomerID, "stage", next)
			return st, fmt.Errorf("stage %s: %w", next, err)
		}
		if err := updated.Validate(); err != nil {
			slog.Error("flow.RunTurn: invariant violation after stage handler", "error", err, "customerID", st.CustomerID, "stage", next)
			return st, fmt.Errorf("invariant violation after stage %s: %w", next, err)
		}
		st = updated
	}
}

// apply dispatches to the handler for the state's current stage.
func (e *Engine) apply(ctx context.Context, st models.CallState) (models.CallState, error) {
	switch st.Stage {
	case models.StageGreeting:
		return e.handleGreeting(st)
	case models.StageVerification:
		return e.handleVerification(st)
	case models.StageDisclosure:
		return e.handleDisclosure(st)
	case models.StagePaymentCheck:
		return e.handlePaymentCheck(ctx, st)
	case models.StagePaidVerification:
		return e.handlePaidVerification(ctx, st)
	case models.StageNegotiation:
		return e.handleNegotiation(ctx, st)
	case models.StageClosing:
		return e.handleClosing(ctx, st)
	}
	return st, fmt.Errorf("no handler for stage %s", st.Stage)
}
