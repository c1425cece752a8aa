package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/extract"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/tone"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/util"
)

// handleNegotiation drives the negotiation sub-state machine. Transitions
// are evaluated in a fixed priority order on every entry with a new
// customer utterance; entry without one delivers the opening move for the
// current sub-state.
func (e *Engine) handleNegotiation(ctx context.Context, st models.CallState) (models.CallState, error) {
	input := st.ConsumeUserInput()
	if input == "" {
		return e.openNegotiation(st), nil
	}

	// Listing consumption is one-shot: bare acceptance binds to a plan
	// only on the reply immediately following the listing.
	planJustListed := st.PlansJustOffered
	st.PlansJustOffered = false

	// 1. Termination phrases escalate immediately.
	if extract.IsTermination(input) {
		slog.Info("flow.handleNegotiation: termination phrase, escalating", "customerID", st.CustomerID)
		return e.escalate(st,
			"Please note that ending this conversation does not stop the recovery process. Your account will now be flagged for escalated collection action, which may include legal proceedings and credit bureau reporting."), nil
	}

	// 2. Confirmation of delivered commitment details.
	if st.AwaitingConfirmation {
		return e.resolveConfirmation(st, input), nil
	}

	// 3. Callback deferral sub-flow.
	if st.AwaitingCallbackWhen {
		return e.acceptCallback(st), nil
	}
	if st.CallbackMode {
		return e.handleCallbackReply(st, input), nil
	}

	// 4. Multiple future payments are redirected to one structured plan
	// rather than silently anchoring on one of them.
	if extract.MentionsMultipleInstallments(input) {
		st = e.ensurePlans(st)
		st.AppendAssistant("I can only register a single structured arrangement, not multiple separate payments. Please pick one of these plans:\n" + formatPlanList(st.OfferedPlans))
		st.PlansJustOffered = true
		st.AwaitingUser = true
		return st, nil
	}

	// 5. Partial payment offers re-anchor the pending commitment.
	if amount, ok := extract.PartialPayment(input, st.OutstandingAmount); ok {
		return e.recordPartial(st, input, amount), nil
	}

	// 6./7. Delay-reason collection: a non-answer is re-prompted, a
	// substantive reply finalizes the commitment.
	if st.AwaitingDelayReason {
		if extract.IsNonAnswer(input) {
			st.AppendAssistant("I do need the actual reason for the delay to record this arrangement. What has held up the payment?")
			st.AwaitingUser = true
			return st, nil
		}
		return e.finalizePromise(ctx, st, input)
	}

	// 8. Extract a commitment from the utterance.
	if next, handled := e.extractCommitment(st, input, planJustListed); handled {
		return next, nil
	}

	// 9. Refusals advance the escalation ladder.
	if extract.IsRefusal(input) {
		return e.advanceLadder(st), nil
	}

	// 10. Default: a firm contextual re-prompt for a concrete amount and
	// date, phrased by the generation collaborator when available.
	return e.defaultReply(ctx, st, input), nil
}

// openNegotiation delivers the first message for the sub-state the
// conversation arrived in.
func (e *Engine) openNegotiation(st models.CallState) models.CallState {
	switch {
	case st.CallbackMode && !st.PartialAttempted:
		slog.Debug("flow.openNegotiation: attempting partial before callback", "customerID", st.CustomerID)
		st.PartialAttempted = true
		st.NegotiationPhase = models.PhasePartialPayment
		st.AppendAssistant(fmt.Sprintf(
			"I understand you'd prefer we talk later. Before we schedule that, late charges on your account grow daily — could you make even a partial payment of the ₹%.0f today to reduce them?",
			st.OutstandingAmount))
	case st.NegotiationPhase == models.PhaseReasonCollection && !st.AwaitingDelayReason:
		st.AwaitingDelayReason = true
		st.AppendAssistant("That's good to hear. For our records, may I know the reason the payment was delayed?")
	default:
		st = e.ensurePlans(st)
		intro := "Let's work out a payment arrangement that closes this quickly."
		if st.PaymentStatus == models.PaymentStatusUnable {
			intro = "I understand the situation is difficult, but the amount remains due and late charges grow daily. These options can make it manageable:"
		}
		st.NegotiationPhase = models.PhasePartialPayment
		st.AppendAssistant(intro + "\n" + formatPlanList(st.OfferedPlans) + "\nWhich option works for you?")
		st.PlansJustOffered = true
	}
	st.AwaitingUser = true
	return st
}

// resolveConfirmation handles the reply to the delivered commitment
// details. The promise record already exists at this point; a denial does
// not unwind it, it only downgrades the outcome.
func (e *Engine) resolveConfirmation(st models.CallState, input string) models.CallState {
	if extract.IsAffirmative(input) {
		slog.Info("flow.handleNegotiation: commitment confirmed", "customerID", st.CustomerID, "ptpID", st.PTPID)
		st.AwaitingConfirmation = false
		st.NegotiationPhase = models.PhaseClosed
		st.CallOutcome = models.OutcomePTPConfirmed
		st.Stage = models.StageClosing
		return st
	}
	if extract.IsNonAnswer(input) {
		st.AppendAssistant(fmt.Sprintf("Please reply YES to confirm the payment of ₹%.0f on %s.", st.PTPAmount, st.PTPDate))
		st.AwaitingUser = true
		return st
	}
	slog.Info("flow.handleNegotiation: commitment left unconfirmed", "customerID", st.CustomerID, "ptpID", st.PTPID)
	st.AwaitingConfirmation = false
	st.NegotiationPhase = models.PhaseClosed
	st.CallOutcome = models.OutcomePTPRecorded
	st.Stage = models.StageClosing
	return st
}

// handleCallbackReply processes the answer to the partial-before-callback
// ask: an amount switches to the partial path, anything else schedules the
// callback.
func (e *Engine) handleCallbackReply(st models.CallState, input string) models.CallState {
	if amount, ok := extract.PartialPayment(input, st.OutstandingAmount); ok {
		st.CallbackMode = false
		return e.recordPartial(st, input, amount)
	}
	if amount, ok := extract.Amount(input, st.OutstandingAmount); ok && amount > 0 && amount < st.OutstandingAmount {
		st.CallbackMode = false
		return e.recordPartial(st, input, amount)
	}
	st.AwaitingCallbackWhen = true
	st.AppendAssistant("Alright. When should we call you back? Please note that late charges continue to accrue until the account is settled.")
	st.AwaitingUser = true
	return st
}

// acceptCallback records the customer's callback preference and closes.
func (e *Engine) acceptCallback(st models.CallState) models.CallState {
	st.AwaitingCallbackWhen = false
	st.CallbackMode = false
	st.NegotiationPhase = models.PhaseClosed
	st.CallOutcome = models.OutcomeCallback
	st.Stage = models.StageClosing
	return st
}

// recordPartial anchors a partial amount as the pending commitment and
// moves to date collection, or straight to reason collection when the same
// utterance carried a date.
func (e *Engine) recordPartial(st models.CallState, input string, amount float64) models.CallState {
	slog.Debug("flow.handleNegotiation: partial payment offered", "customerID", st.CustomerID, "amount", amount)
	st.PendingAmount = amount
	st.SelectedPlan = nil
	st.PaymentStatus = models.PaymentStatusWilling
	st.AwaitingDelayReason = false
	st.NegotiationPhase = models.PhasePartialPayment

	if d, ok := extract.Date(input, e.clock()); ok {
		st.PendingDate = d.Value
		return e.askDelayReason(st, d.FromRange)
	}
	st.AppendAssistant(fmt.Sprintf("₹%.0f now would help reduce the charges. On which exact date will you make this payment?", amount))
	st.AwaitingUser = true
	return st
}

// extractCommitment pulls a plan selection, amount, and date out of the
// utterance and advances accordingly. The second return is false when
// nothing usable was found.
func (e *Engine) extractCommitment(st models.CallState, input string, planJustListed bool) (models.CallState, bool) {
	plan, planOK := extract.Plan(input, st.OfferedPlans, planJustListed)
	date, dateOK := extract.Date(input, e.clock())
	amount, amountOK := extract.Amount(input, st.OutstandingAmount)

	if !planOK && !dateOK && !amountOK {
		return st, false
	}

	if planOK {
		slog.Debug("flow.handleNegotiation: plan selected", "customerID", st.CustomerID, "plan", plan.Name)
		st.SelectedPlan = plan
		st.PendingAmount = planCommitmentAmount(*plan)
	} else if amountOK {
		st.PendingAmount = amount
	}
	if dateOK {
		st.PendingDate = date.Value
	}

	switch {
	case st.PendingAmount > 0 && st.PendingDate != "":
		st.PaymentStatus = models.PaymentStatusWilling
		return e.askDelayReason(st, dateOK && date.FromRange), true
	case st.PendingAmount > 0:
		what := fmt.Sprintf("the ₹%.0f", st.PendingAmount)
		if st.SelectedPlan != nil {
			what = fmt.Sprintf("the first payment under the %s", st.SelectedPlan.Name)
		}
		st.AppendAssistant(fmt.Sprintf("Noted. On which exact date will you make %s?", what))
		st.AwaitingUser = true
		return st, true
	default: // date only
		st.AppendAssistant(fmt.Sprintf("Understood, %s it is. How much of the ₹%.0f outstanding will you pay on that date?", st.PendingDate, st.OutstandingAmount))
		st.AwaitingUser = true
		return st, true
	}
}

// askDelayReason moves to reason collection. A commitment is never
// finalized without first collecting the delay reason.
func (e *Engine) askDelayReason(st models.CallState, fromRange bool) models.CallState {
	st.NegotiationPhase = models.PhaseReasonCollection
	st.AwaitingDelayReason = true
	msg := fmt.Sprintf("So that's ₹%.0f on %s.", st.PendingAmount, st.PendingDate)
	if fromRange {
		msg = fmt.Sprintf("You mentioned a date range, so I've noted the earliest date: ₹%.0f on %s.", st.PendingAmount, st.PendingDate)
	}
	st.AppendAssistant(msg + " Before I record this, may I know the reason the payment was delayed?")
	st.AwaitingUser = true
	return st
}

// finalizePromise persists the promise-to-pay and delivers the
// confirmation details. A persistence failure fails the whole turn so the
// customer is never told about a record that was not saved.
func (e *Engine) finalizePromise(ctx context.Context, st models.CallState, reason string) (models.CallState, error) {
	planName := "Custom Arrangement"
	if st.SelectedPlan != nil {
		planName = st.SelectedPlan.Name
	}
	id, err := e.recorder.SavePromise(ctx, models.PromiseToPay{
		CustomerID: st.CustomerID,
		Amount:     st.PendingAmount,
		Date:       st.PendingDate,
		PlanName:   planName,
		CreatedAt:  e.clock(),
	})
	if err != nil {
		return st, fmt.Errorf("save promise to pay: %w", err)
	}
	slog.Info("flow.handleNegotiation: promise to pay recorded", "customerID", st.CustomerID, "ptpID", id, "amount", st.PendingAmount, "date", st.PendingDate)

	st.DelayReason = reason
	st.PTPID = id
	st.PTPAmount = st.PendingAmount
	st.PTPDate = st.PendingDate
	st.PTPPlanName = planName
	st.PaymentLink = util.GeneratePaymentLink(e.cfg.PaymentBaseURL, id)
	st.AwaitingDelayReason = false
	st.NegotiationPhase = models.PhaseConfirmationPending
	st.AwaitingConfirmation = true
	st.AppendAssistant(fmt.Sprintf(
		"Thank you for sharing that. To confirm the arrangement: ₹%.0f on %s under the %s. Your reference is %s and you can pay securely here: %s. Please reply YES to confirm.",
		st.PTPAmount, st.PTPDate, planName, id, st.PaymentLink))
	st.AwaitingUser = true
	return st, nil
}

// advanceLadder moves the refusal escalation ladder one step: two
// settlement pushes, then the 3-month plan, then the 6-month plan, then
// terminal escalation.
func (e *Engine) advanceLadder(st models.CallState) models.CallState {
	st = e.ensurePlans(st)
	st.RefusalCount++
	slog.Info("flow.handleNegotiation: refusal", "customerID", st.CustomerID, "refusalCount", st.RefusalCount)

	switch {
	case st.RefusalCount == 1:
		st.SettlementPushCount++
		st.AppendAssistant(fmt.Sprintf(
			"I must be clear: non-payment keeps adding daily late charges. The %s — %s — is the fastest way out. Can you commit to it?",
			st.OfferedPlans[0].Name, st.OfferedPlans[0].Description))
	case st.RefusalCount == 2:
		st.SettlementPushCount++
		st.AppendAssistant(fmt.Sprintf(
			"Continued refusal will be reported to the credit bureaus and can affect your access to credit for years. I strongly advise taking the %s today. Will you?",
			st.OfferedPlans[0].Name))
	case st.RefusalCount == 3:
		st.InstallmentTierCount++
		st.AppendAssistant(fmt.Sprintf(
			"If the full amount is not possible, the %s at %s splits it down. Shall I set that up?",
			st.OfferedPlans[1].Name, st.OfferedPlans[1].Description))
	case st.RefusalCount == 4:
		st.InstallmentTierCount++
		st.AppendAssistant(fmt.Sprintf(
			"This is the final option I can offer: the %s, %s. It is the lowest monthly amount available. Will you take it?",
			st.OfferedPlans[2].Name, st.OfferedPlans[2].Description))
	default:
		return e.escalate(st,
			"Since no payment arrangement could be reached, your account is now being escalated for legal recovery action and credit bureau reporting. You will receive formal communication from our legal team.")
	}
	st.AwaitingUser = true
	return st
}

// escalate ends the negotiation with a terminal escalation.
func (e *Engine) escalate(st models.CallState, message string) models.CallState {
	st.AppendAssistant(message)
	st.HasEscalated = true
	st.NegotiationPhase = models.PhaseEscalated
	st.CallOutcome = models.OutcomeEscalated
	st.Stage = models.StageClosing
	return st
}

// defaultReply re-prompts firmly for a concrete amount and date. The
// generation collaborator phrases it when available; otherwise a fixed
// message is used. Generation failure is logged and never surfaced.
func (e *Engine) defaultReply(ctx context.Context, st models.CallState, input string) models.CallState {
	if len(st.OfferedPlans) == 0 {
		return e.openNegotiation(st)
	}

	fallback := fmt.Sprintf(
		"The ₹%.0f outstanding must be resolved and late charges accrue daily. Please tell me the exact amount you will pay and the exact date.",
		st.OutstandingAmount)

	msg := fallback
	if e.generator != nil {
		prompt := fmt.Sprintf(
			"Outstanding: ₹%.0f, %d days past due. The customer was asked to commit to a payment amount and date and replied: %q. Write one firm reply that pushes for a concrete amount and date.",
			st.OutstandingAmount, st.DaysPastDue, input)
		if generated, err := e.generator.Generate(ctx, tone.SystemInstruction, prompt); err != nil {
			slog.Error("flow.handleNegotiation: generation failed, using fixed phrasing", "error", err, "customerID", st.CustomerID)
		} else if cleaned := tone.Enforce(generated); cleaned != "" {
			msg = cleaned
		}
	}
	st.AppendAssistant(msg)
	st.AwaitingUser = true
	return st
}

// ensurePlans builds the plan offerings once per conversation.
func (e *Engine) ensurePlans(st models.CallState) models.CallState {
	if len(st.OfferedPlans) == 0 {
		st.OfferedPlans = BuildPlans(e.cfg, st.OutstandingAmount)
	}
	return st
}
