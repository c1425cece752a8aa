// Package util provides small helpers shared across components: reference
// ID generation, payment link construction, phone normalization, and
// environment variable parsing.
package util

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultPaymentBaseURL is the payment portal base used when no override is
// configured.
const DefaultPaymentBaseURL = "https://pay.abcfinance.example"

// GenerateReference generates a business reference of the form
// "{prefix}-{shortid}", e.g. "PTP-9f1c2ab4" for promise-to-pay records.
func GenerateReference(prefix string) string {
	id := uuid.NewString()
	return fmt.Sprintf("%s-%s", prefix, id[:8])
}

// GeneratePaymentLink builds a customer payment-access link carrying the
// promise reference as an opaque token.
func GeneratePaymentLink(baseURL, ptpID string) string {
	if baseURL == "" {
		baseURL = DefaultPaymentBaseURL
	}
	token := strings.ToLower(strings.ReplaceAll(ptpID, "-", ""))
	return fmt.Sprintf("%s/p/%s", strings.TrimRight(baseURL, "/"), token)
}
