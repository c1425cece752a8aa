package genai

import (
	"os"
	"testing"
	"time"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	orig := os.Getenv("OPENAI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	defer os.Setenv("OPENAI_API_KEY", orig)

	if _, err := NewClient(); err == nil {
		t.Fatal("expected error when OPENAI_API_KEY is unset")
	}
}

func TestNewClientWithOptions(t *testing.T) {
	c, err := NewClient(
		WithAPIKey("test-key"),
		WithModel("gpt-4o"),
		WithTimeout(5*time.Second),
		WithMaxRetries(1),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.model != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %q", c.model)
	}
	if c.timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", c.timeout)
	}
	if c.retries != 1 {
		t.Errorf("expected 1 retry, got %d", c.retries)
	}
	if c.breaker == nil {
		t.Error("expected circuit breaker to be configured")
	}
}
