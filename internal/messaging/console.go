package messaging

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ConsoleService implements Service by writing messages to a writer. It is
// the delivery channel for local runs without Twilio credentials.
type ConsoleService struct {
	out io.Writer
}

// NewConsoleService creates a console channel writing to stdout.
func NewConsoleService() *ConsoleService {
	return &ConsoleService{out: os.Stdout}
}

// NewConsoleServiceWithWriter creates a console channel writing to w.
func NewConsoleServiceWithWriter(w io.Writer) *ConsoleService {
	return &ConsoleService{out: w}
}

// ValidateAndCanonicalizeRecipient applies the same phone rules as the
// WhatsApp channel so behavior does not diverge between environments.
func (s *ConsoleService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizePhone(recipient)
}

// SendMessage prints the message to the configured writer.
func (s *ConsoleService) SendMessage(ctx context.Context, to string, body string) error {
	canonicalTo, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.out, "[agent → %s]\n%s\n\n", canonicalTo, body)
	return err
}
