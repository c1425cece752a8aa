package extract

import (
	"testing"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

func demoPlans() []models.PaymentPlan {
	return []models.PaymentPlan{
		{Name: "Immediate Settlement", Description: "Pay Rs.42,750 (5% discount) in full within 7 days", Months: 0, Installment: 42750, Total: 42750},
		{Name: "3-Month Installment", Description: "Pay Rs.15,000 per month for 3 months", Months: 3, Installment: 15000, Total: 45000},
		{Name: "6-Month Installment", Description: "Pay Rs.7,500 per month for 6 months", Months: 6, Installment: 7500, Total: 45000},
	}
}

func TestPlan(t *testing.T) {
	plans := demoPlans()
	tests := []struct {
		name       string
		text       string
		justListed bool
		wantName   string
		wantOK     bool
	}{
		{name: "month count", text: "I'll go with the 3 month plan", wantName: "3-Month Installment", wantOK: true},
		{name: "month count with hyphen", text: "the 6-month one", wantName: "6-Month Installment", wantOK: true},
		{name: "explicit option index", text: "option 2 please", wantName: "3-Month Installment", wantOK: true},
		{name: "ordinal word", text: "the second option", wantName: "3-Month Installment", wantOK: true},
		{name: "descriptive discount", text: "the one with a discount", wantName: "Immediate Settlement", wantOK: true},
		{name: "descriptive cheapest", text: "whichever is cheapest per month", wantName: "6-Month Installment", wantOK: true},
		{name: "acceptance after listing", text: "sounds good, that works for me", justListed: true, wantName: "3-Month Installment", wantOK: true},
		{name: "acceptance without listing", text: "sounds good", justListed: false, wantOK: false},
		{name: "negated ordinal suppressed", text: "anything except the first one", wantOK: false},
		{name: "negated preference suppressed", text: "I don't want the second option", wantOK: false},
		{name: "no selection", text: "let me think about these", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Plan(tc.text, plans, tc.justListed)
			if ok != tc.wantOK {
				t.Fatalf("Plan(%q) ok = %v, want %v", tc.text, ok, tc.wantOK)
			}
			if ok && got.Name != tc.wantName {
				t.Errorf("Plan(%q) = %q, want %q", tc.text, got.Name, tc.wantName)
			}
		})
	}
}

func TestPlanEmptyList(t *testing.T) {
	if _, ok := Plan("option 1", nil, true); ok {
		t.Error("expected no match against empty plan list")
	}
}
