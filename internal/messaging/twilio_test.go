package messaging

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestValidateAndCanonicalizeRecipient(t *testing.T) {
	svc := NewTwilioService(NewMockClient())

	cases := []struct {
		name      string
		recipient string
		want      string
		wantErr   bool
	}{
		{name: "plain number", recipient: "919876543210", want: "919876543210"},
		{name: "plus and dashes stripped", recipient: "+91-98765-43210", want: "919876543210"},
		{name: "whatsapp prefix stripped", recipient: "whatsapp:+919876543210", want: "919876543210"},
		{name: "empty rejected", recipient: "", wantErr: true},
		{name: "no digits rejected", recipient: "not-a-number", wantErr: true},
		{name: "too short rejected", recipient: "12345", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.ValidateAndCanonicalizeRecipient(tc.recipient)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got %q", tc.recipient, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.recipient, err)
			}
			if got != tc.want {
				t.Errorf("canonical = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTwilioServiceFormatsBeforeSending(t *testing.T) {
	mock := NewMockClient()
	svc := NewTwilioService(mock)

	err := svc.SendMessage(context.Background(), "whatsapp:+919876543210", "Pay the **full amount** today.")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if len(mock.SentMessages) != 1 {
		t.Fatalf("expected 1 sent message, got %d", len(mock.SentMessages))
	}
	sent := mock.SentMessages[0]
	if sent.To != "919876543210" {
		t.Errorf("sent to %q, want canonical digits", sent.To)
	}
	if sent.Body != "Pay the *full amount* today." {
		t.Errorf("body not formatted for WhatsApp: %q", sent.Body)
	}
}

func TestTwilioServiceSplitsLongMessages(t *testing.T) {
	mock := NewMockClient()
	svc := NewTwilioService(mock)

	long := strings.Repeat("The outstanding amount must be resolved. ", 150)
	if err := svc.SendMessage(context.Background(), "919876543210", long); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if len(mock.SentMessages) < 2 {
		t.Fatalf("expected the message to be split, got %d chunk(s)", len(mock.SentMessages))
	}
	for i, msg := range mock.SentMessages {
		if len(msg.Body) > MaxMessageLength {
			t.Errorf("chunk %d exceeds the length limit: %d", i, len(msg.Body))
		}
	}
}

func TestTwilioServicePropagatesSendErrors(t *testing.T) {
	mock := NewMockClient()
	mock.Err = errors.New("twilio unavailable")
	svc := NewTwilioService(mock)

	if err := svc.SendMessage(context.Background(), "919876543210", "hello"); err == nil {
		t.Error("expected send error to propagate")
	}
}

func TestNewTwilioClientRequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")

	if _, err := NewTwilioClient(); err == nil {
		t.Error("expected an error without credentials")
	}
	if _, err := NewTwilioClient(WithAccountSID("AC123"), WithAuthToken("token")); err == nil {
		t.Error("expected an error without a from number")
	}
}

func TestConsoleServiceWritesMessage(t *testing.T) {
	var buf strings.Builder
	svc := NewConsoleServiceWithWriter(&buf)

	if err := svc.SendMessage(context.Background(), "+919876543210", "Hello, am I speaking with Rajesh?"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "919876543210") || !strings.Contains(out, "Rajesh") {
		t.Errorf("console output missing recipient or body: %q", out)
	}
}
