package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioWhatsAppSender abstracts the Twilio REST call so tests can substitute
// MockClient for the live API.
type TwilioWhatsAppSender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// TwilioOpts holds configuration options for the Twilio WhatsApp client.
type TwilioOpts struct {
	AccountSID string
	AuthToken  string
	FromWhats  string
}

// TwilioOption defines a configuration option for the Twilio WhatsApp client.
type TwilioOption func(*TwilioOpts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) TwilioOption {
	return func(o *TwilioOpts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) TwilioOption {
	return func(o *TwilioOpts) { o.AuthToken = token }
}

// WithFromWhats sets the sending WhatsApp number, in
// "whatsapp:+1234567890" format.
func WithFromWhats(from string) TwilioOption {
	return func(o *TwilioOpts) { o.FromWhats = from }
}

// TwilioClient wraps the Twilio REST API for WhatsApp delivery.
type TwilioClient struct {
	client    *twilio.RestClient
	fromWhats string
}

// NewTwilioClient builds a Twilio client from options, falling back to the
// TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER environment
// variables for anything unset.
func NewTwilioClient(opts ...TwilioOption) (*TwilioClient, error) {
	var cfg TwilioOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromWhats == "" {
		cfg.FromWhats = os.Getenv("TWILIO_FROM_NUMBER")
	}

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromWhats == "" {
		return nil, fmt.Errorf("fromWhats number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioClient{client: client, fromWhats: cfg.FromWhats}, nil
}

// SendMessage sends a WhatsApp message using the Twilio API.
func (c *TwilioClient) SendMessage(ctx context.Context, to string, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:+" + to)
	params.SetFrom(c.fromWhats)
	params.SetBody(body)

	_, err := c.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("Twilio SendMessage failed", "to", to, "error", err)
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}

	slog.Debug("Twilio message sent", "to", to)
	return nil
}

// TwilioService implements Service over a TwilioWhatsAppSender, applying
// WhatsApp formatting and length splitting before delivery.
type TwilioService struct {
	client TwilioWhatsAppSender
}

// NewTwilioService creates a Service backed by the given Twilio sender.
func NewTwilioService(client TwilioWhatsAppSender) *TwilioService {
	return &TwilioService{client: client}
}

// ValidateAndCanonicalizeRecipient reduces a WhatsApp recipient to bare
// digits and validates the result.
func (s *TwilioService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizePhone(recipient)
}

// SendMessage formats the body for WhatsApp, splits it if needed, and sends
// each chunk in order.
func (s *TwilioService) SendMessage(ctx context.Context, to string, body string) error {
	canonicalTo, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("TwilioService SendMessage validation error", "error", err, "to", to)
		return err
	}

	formatted := FormatForWhatsApp(body)
	for _, chunk := range SplitMessage(formatted, MaxMessageLength) {
		if err := s.client.SendMessage(ctx, canonicalTo, chunk); err != nil {
			return err
		}
	}
	return nil
}

// MockClient records sent messages for tests.
type MockClient struct {
	SentMessages []SentMessage
	Err          error
}

// SentMessage is one recorded delivery.
type SentMessage struct {
	To   string
	Body string
}

// NewMockClient creates an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{SentMessages: []SentMessage{}}
}

// SendMessage records the message, or fails with the configured error.
func (m *MockClient) SendMessage(ctx context.Context, to string, body string) error {
	if m.Err != nil {
		return m.Err
	}
	m.SentMessages = append(m.SentMessages, SentMessage{To: to, Body: body})
	return nil
}
