package flow

import (
	"fmt"
	"log/slog"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

// handleGreeting delivers the opening identity-confirmation question. It
// runs once; re-entry after the greeting flag is set produces no duplicate
// message.
func (e *Engine) handleGreeting(st models.CallState) (models.CallState, error) {
	if st.HasGreeted {
		return st, nil
	}
	slog.Debug("flow.handleGreeting: greeting customer", "customerID", st.CustomerID)

	st.AppendAssistant(fmt.Sprintf(
		"Hello, am I speaking with %s? This is a call from ABC Finance regarding your %s account.",
		st.CustomerName, loanTypeLabel(st.LoanType)))
	st.HasGreeted = true
	st.AwaitingUser = true
	return st, nil
}

func loanTypeLabel(loanType string) string {
	if loanType == "" {
		return "loan"
	}
	return loanType
}
