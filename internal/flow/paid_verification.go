package flow

import (
	"context"
	"log/slog"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/intent"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

// handlePaidVerification verifies an "already paid" claim. It asks for a
// transaction reference once, then maps the proof verdict: proof provided
// closes the call as paid, a missing or unauthorized payment draws a firm
// warning and re-routes into negotiation, and an unclear reply is re-asked
// without counting against the customer.
func (e *Engine) handlePaidVerification(ctx context.Context, st models.CallState) (models.CallState, error) {
	if !st.ProofAsked {
		st.AppendAssistant("I see. Could you share the transaction reference number, UTR, or the date and mode of that payment so I can verify it?")
		st.ProofAsked = true
		st.AwaitingUser = true
		return st, nil
	}

	input := st.ConsumeUserInput()
	verdict := e.classifier.VerifyProof(ctx, input)
	slog.Debug("flow.handlePaidVerification: proof verdict", "customerID", st.CustomerID, "verdict", verdict)

	switch verdict {
	case intent.ProofProvided:
		st.AppendAssistant("Thank you. I have noted the payment details and our team will reconcile them against your account within 2 business days. If anything is pending you will hear from us.")
		st.PaymentStatus = models.PaymentStatusPaid
		st.Stage = models.StageClosing
	case intent.ProofMissing, intent.ProofUnauthorized:
		st.AppendAssistant("Our records show no such payment against this account. Please note that payments are valid only through official ABC Finance channels, and the outstanding amount remains due. Let us arrange the payment now — how would you like to proceed?")
		st.PaymentStatus = models.PaymentStatusWilling
		st.NegotiationPhase = models.PhaseNotStarted
		st.Stage = models.StageNegotiation
		st.AwaitingUser = true
	default: // unclear: ask again, no counter involved
		st.AppendAssistant("I didn't catch that. Could you share the transaction reference number or UTR of the payment?")
		st.AwaitingUser = true
	}
	return st, nil
}
