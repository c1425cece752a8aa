package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

// handleClosing resolves the terminal outcome, composes the outcome-
// dependent final message, persists the dispute and call-summary records,
// and marks the conversation complete. It never finalizes while a question
// of its own is still open: the disputed path defers once if no reason has
// been collected yet.
func (e *Engine) handleClosing(ctx context.Context, st models.CallState) (models.CallState, error) {
	if st.IsComplete {
		return st, nil
	}

	if st.CallOutcome == "" {
		st.CallOutcome = outcomeForStatus(st.PaymentStatus)
	}

	switch st.CallOutcome {
	case models.OutcomeDisputed:
		if st.DisputeReason == "" {
			if input := st.ConsumeUserInput(); input != "" {
				st.DisputeReason = input
			} else if last := lastUserMessage(st); last != "" {
				st.DisputeReason = last
			} else {
				st.AppendAssistant("I understand you're disputing this. Could you briefly tell me why you believe this debt is not yours?")
				st.AwaitingUser = true
				return st, nil
			}
		}
		if st.DisputeID == "" {
			id, err := e.recorder.SaveDispute(ctx, models.Dispute{
				CustomerID: st.CustomerID,
				Reason:     st.DisputeReason,
				CreatedAt:  e.clock(),
			})
			if err != nil {
				return st, fmt.Errorf("save dispute: %w", err)
			}
			st.DisputeID = id
			slog.Info("flow.handleClosing: dispute recorded", "customerID", st.CustomerID, "disputeID", id)
		}
		st.AppendAssistant(fmt.Sprintf(
			"I have registered your dispute under reference %s. Our review team will investigate and contact you within 7 business days. No collection action will be taken on this account while the dispute is open.", st.DisputeID))

	case models.OutcomePaid:
		st.AppendAssistant("Thank you for your time. Once the payment is reconciled your account will reflect it. Have a good day.")

	case models.OutcomeCallback:
		st.AppendAssistant("Noted, we will call you back as requested. Please keep in mind that late charges continue to accrue until the account is settled. Goodbye.")

	case models.OutcomePTPConfirmed:
		st.AppendAssistant(fmt.Sprintf(
			"Thank you for confirming. We look forward to your payment of ₹%.0f on %s. Reference %s. Have a good day.",
			st.PTPAmount, st.PTPDate, st.PTPID))

	case models.OutcomePTPRecorded:
		st.AppendAssistant(fmt.Sprintf(
			"Your arrangement for ₹%.0f on %s stands recorded under reference %s. Please use the payment link shared earlier. Goodbye.",
			st.PTPAmount, st.PTPDate, st.PTPID))

	case models.OutcomeEscalated:
		// The escalation notice was already delivered; lock the session.
		st.SessionLocked = true

	case models.OutcomeVerificationFailed:
		// The apology was already delivered by the verification stage.

	default:
		st.AppendAssistant("Thank you for your time. Our team will follow up regarding the outstanding amount. Goodbye.")
	}

	st.CallSummary = buildCallSummary(st)
	if _, err := e.recorder.SaveCallRecord(ctx, models.CallRecord{
		CustomerID:    st.CustomerID,
		Outcome:       st.CallOutcome,
		PaymentStatus: st.PaymentStatus,
		Summary:       st.CallSummary,
		CreatedAt:     e.clock(),
	}); err != nil {
		return st, fmt.Errorf("save call record: %w", err)
	}

	st.IsComplete = true
	slog.Info("flow.handleClosing: conversation complete", "customerID", st.CustomerID, "outcome", st.CallOutcome, "status", st.PaymentStatus)
	return st, nil
}

// outcomeForStatus maps a payment status to its terminal outcome when no
// earlier stage resolved one.
func outcomeForStatus(status models.PaymentStatus) string {
	switch status {
	case models.PaymentStatusPaid:
		return models.OutcomePaid
	case models.PaymentStatusDisputed:
		return models.OutcomeDisputed
	case models.PaymentStatusCallback:
		return models.OutcomeCallback
	case models.PaymentStatusUnable:
		return models.OutcomeUnable
	default:
		return models.OutcomeWilling
	}
}

// buildCallSummary renders the one-line summary persisted with the call
// record.
func buildCallSummary(st models.CallState) string {
	parts := []string{
		fmt.Sprintf("outcome=%s", st.CallOutcome),
		fmt.Sprintf("status=%s", st.PaymentStatus),
		fmt.Sprintf("verified=%t", st.IsVerified),
	}
	if st.PTPID != "" {
		parts = append(parts, fmt.Sprintf("ptp=%s amount=%.0f date=%s", st.PTPID, st.PTPAmount, st.PTPDate))
	}
	if st.DisputeID != "" {
		parts = append(parts, fmt.Sprintf("dispute=%s", st.DisputeID))
	}
	if st.RefusalCount > 0 {
		parts = append(parts, fmt.Sprintf("refusals=%d", st.RefusalCount))
	}
	return strings.Join(parts, " ")
}

// lastUserMessage returns the most recent user message in the log, or "".
func lastUserMessage(st models.CallState) string {
	for i := len(st.Messages) - 1; i >= 0; i-- {
		if st.Messages[i].Role == models.RoleUser {
			return st.Messages[i].Content
		}
	}
	return ""
}
