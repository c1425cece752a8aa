package flow

import (
	"context"
	"log/slog"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/intent"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

// handlePaymentCheck is the sole consumer of the intent classifier. It maps
// the customer's reply to the disclosure question onto a payment status and
// primes the follow-on stage.
func (e *Engine) handlePaymentCheck(ctx context.Context, st models.CallState) (models.CallState, error) {
	question := st.LastAssistantMessage()
	input := st.ConsumeUserInput()
	if input == "" {
		st.AppendAssistant("Are you able to pay the full outstanding amount today?")
		st.AwaitingUser = true
		return st, nil
	}

	label := e.classifier.Classify(ctx, input, question)
	slog.Debug("flow.handlePaymentCheck: classified intent", "customerID", st.CustomerID, "label", label)

	switch label {
	case intent.LabelImmediate:
		// Paying in full today: skip straight to the delay-reason
		// collection with the full amount pending for today.
		st.PaymentStatus = models.PaymentStatusWilling
		st.PendingAmount = st.OutstandingAmount
		st.PendingDate = e.today()
		st.NegotiationPhase = models.PhaseReasonCollection
	case intent.LabelPaid:
		st.PaymentStatus = models.PaymentStatusPaid
	case intent.LabelDisputed:
		st.PaymentStatus = models.PaymentStatusDisputed
		st.DisputeReason = input
	case intent.LabelCallback:
		// Attempt a partial payment before accepting the callback.
		st.PaymentStatus = models.PaymentStatusCallback
		st.CallbackMode = true
	case intent.LabelUnable:
		st.PaymentStatus = models.PaymentStatusUnable
		// The utterance may carry negotiable details; leave it for the
		// negotiation stage to mine.
		st.LastUserInput = input
	default:
		st.PaymentStatus = models.PaymentStatusWilling
		st.LastUserInput = input
	}
	return st, nil
}
