package flow

import (
	"fmt"
	"log/slog"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

// handleDisclosure delivers the mandatory debt disclosure once: outstanding
// balance, days past due, the estimated accrued late charges, and a direct
// question about ability to pay today.
func (e *Engine) handleDisclosure(st models.CallState) (models.CallState, error) {
	if st.HasDisclosed {
		return st, nil
	}
	slog.Debug("flow.handleDisclosure: disclosing debt", "customerID", st.CustomerID, "outstanding", st.OutstandingAmount, "daysPastDue", st.DaysPastDue)

	lateCharges := st.OutstandingAmount * e.cfg.DailyLateFeeRate * float64(st.DaysPastDue)
	st.AppendAssistant(fmt.Sprintf(
		"Thank you for verifying. This call is regarding your %s with an outstanding amount of ₹%.0f, which is %d days past due. "+
			"Late charges of approximately ₹%.0f have accrued so far and continue to grow daily. "+
			"Are you able to pay the full amount today?",
		loanTypeLabel(st.LoanType), st.OutstandingAmount, st.DaysPastDue, lateCharges))
	st.HasDisclosed = true
	st.AwaitingUser = true
	return st, nil
}
