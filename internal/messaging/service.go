// Package messaging provides outbound message delivery for the collection
// agent: a WhatsApp channel backed by Twilio and a console channel for local
// runs, plus the formatting rules WhatsApp requires.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
)

// phoneNumberRegex strips all non-numeric characters during canonicalization.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// Service defines a pluggable message delivery abstraction.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a
	// recipient identifier. Each service implements its own rules.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a message to a recipient.
	SendMessage(ctx context.Context, to string, body string) error
}

// canonicalizePhone validates a phone number and reduces it to bare digits.
func canonicalizePhone(recipient string) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}

	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in recipient %q", recipient)
	}
	if len(canonical) < 6 {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum 6 digits required)", canonical)
	}

	if recipient != canonical {
		slog.Debug("messaging canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}
