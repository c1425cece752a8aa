package flow

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/extract"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

var wrongPersonPhrases = []string{
	"wrong number", "wrong person", "not me", "who is this",
	"don't know any", "dont know any", "no such person",
}

// handleVerification asks for the customer's date of birth and checks the
// reply with a tolerant matcher. Three consecutive mismatches end the
// conversation with a verification_failed outcome; the attempt counter is
// never reset once verification succeeds.
func (e *Engine) handleVerification(st models.CallState) (models.CallState, error) {
	input := st.ConsumeUserInput()

	// First entry: the pending input is the reply to the greeting.
	if st.VerificationAttempts == 0 {
		lower := strings.ToLower(input)
		for _, p := range wrongPersonPhrases {
			if strings.Contains(lower, p) {
				slog.Info("flow.handleVerification: wrong person reached", "customerID", st.CustomerID)
				st.AppendAssistant("I apologize for the inconvenience. We will update our records. Thank you, and have a good day.")
				st.CallOutcome = models.OutcomeVerificationFailed
				st.Stage = models.StageClosing
				return st, nil
			}
		}
		st.AppendAssistant(fmt.Sprintf(
			"Thank you, %s. Before we proceed, I need to verify your identity. Could you please tell me your date of birth?",
			st.FirstName()))
		st.VerificationAttempts = 1
		st.AwaitingUser = true
		return st, nil
	}

	if extract.MatchesDOB(input, st.CustomerDOB) {
		slog.Debug("flow.handleVerification: identity verified", "customerID", st.CustomerID, "attempts", st.VerificationAttempts)
		st.IsVerified = true
		return st, nil
	}

	st.VerificationAttempts++
	if st.VerificationAttempts >= models.MaxVerificationAttempts {
		slog.Info("flow.handleVerification: verification failed", "customerID", st.CustomerID, "attempts", st.VerificationAttempts)
		st.AppendAssistant("I'm sorry, but I was unable to verify your identity. For security reasons, I cannot discuss this account further. Please contact our support line with your documents. Goodbye.")
		st.CallOutcome = models.OutcomeVerificationFailed
		st.Stage = models.StageClosing
		return st, nil
	}

	remaining := models.MaxVerificationAttempts - st.VerificationAttempts
	st.AppendAssistant(fmt.Sprintf(
		"That does not match our records. Could you please tell me your date of birth again? You have %d more attempt(s).", remaining))
	st.AwaitingUser = true
	return st, nil
}
