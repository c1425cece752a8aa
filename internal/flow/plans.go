package flow

import (
	"fmt"
	"math"
	"strings"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

// BuildPlans constructs the repayment options offered during negotiation:
// an immediate settlement with a discount inside a short window, a 3-month
// split, and a 6-month split with the lowest monthly amount.
func BuildPlans(cfg Config, outstanding float64) []models.PaymentPlan {
	settlement := math.Round(outstanding * (1 - cfg.SettlementDiscount))
	threeMonth := math.Round(outstanding / 3)
	sixMonth := math.Round(outstanding / 6)

	return []models.PaymentPlan{
		{
			Name:        "Immediate Settlement",
			Description: fmt.Sprintf("Pay ₹%.0f (%.0f%% discount) within %d days and close the account", settlement, cfg.SettlementDiscount*100, cfg.SettlementWindowDays),
			Months:      0,
			Installment: settlement,
			Total:       settlement,
		},
		{
			Name:        "3-Month Plan",
			Description: fmt.Sprintf("₹%.0f per month for 3 months", threeMonth),
			Months:      3,
			Installment: threeMonth,
			Total:       threeMonth * 3,
		},
		{
			Name:        "6-Month Plan",
			Description: fmt.Sprintf("₹%.0f per month for 6 months, the lowest monthly amount", sixMonth),
			Months:      6,
			Installment: sixMonth,
			Total:       sixMonth * 6,
		},
	}
}

// formatPlanList renders the offered plans as a numbered listing for a
// chat message.
func formatPlanList(plans []models.PaymentPlan) string {
	var b strings.Builder
	for i, p := range plans {
		fmt.Fprintf(&b, "Option %d — %s: %s\n", i+1, p.Name, p.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// planCommitmentAmount is the amount a selected plan commits the customer
// to on the pending date: the first installment for split plans, the full
// discounted total for immediate settlement.
func planCommitmentAmount(p models.PaymentPlan) float64 {
	if p.Months == 0 {
		return p.Total
	}
	return p.Installment
}
