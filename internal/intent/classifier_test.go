package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
)

// stubEngine implements genai.ClientInterface for tests.
type stubEngine struct {
	reply string
	err   error
	calls int
}

func (s *stubEngine) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func (s *stubEngine) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestClassifyRuleBased(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		context   string
		want      Label
	}{
		{"bare yes to pay today is immediate", "yes", "Are you able to make this payment today?", LabelImmediate},
		{"okay to pay today is immediate", "okay sure", "Can you pay today?", LabelImmediate},
		{"hedged yes is not immediate", "yes but I can't pay the full amount", "Can you pay today?", LabelWilling},
		{"pay tomorrow is willing not callback", "I will pay tomorrow", "", LabelWilling},
		{"pay tomorrow to the today question is willing", "I will pay tomorrow", "Are you able to pay the full amount today?", LabelWilling},
		{"yes next week to the today question is not immediate", "yes, I will pay next week", "Can you pay today?", LabelWilling},
		{"already paid", "I already paid last week", "", LabelPaid},
		{"dispute", "This is wrong, I never took this loan", "", LabelDisputed},
		{"callback without payment language", "call me later, busy now", "", LabelCallback},
		{"callback phrasing with plans request is willing", "busy right now but show me a plan", "", LabelWilling},
		{"hardship", "I lost my job, no money at all", "", LabelUnable},
		{"installment request", "can I pay in installments?", "", LabelWilling},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyRuleBased(tc.utterance, tc.context); got != tc.want {
				t.Errorf("classifyRuleBased(%q, %q) = %q, want %q", tc.utterance, tc.context, got, tc.want)
			}
		})
	}
}

func TestClassifyDelegatesToEngine(t *testing.T) {
	engine := &stubEngine{reply: "disputed"}
	c := NewClassifier(engine)

	got := c.Classify(context.Background(), "hmm, that sum looks odd to me", "I'm calling about your outstanding payment")
	if got != LabelDisputed {
		t.Errorf("expected disputed from engine, got %q", got)
	}
	if engine.calls != 1 {
		t.Errorf("expected exactly one engine call, got %d", engine.calls)
	}
}

func TestClassifyRulePassSkipsEngine(t *testing.T) {
	engine := &stubEngine{reply: "disputed"}
	c := NewClassifier(engine)

	got := c.Classify(context.Background(), "I already paid last week", "")
	if got != LabelPaid {
		t.Errorf("expected paid from rule pass, got %q", got)
	}
	if engine.calls != 0 {
		t.Errorf("rule pass must not invoke the engine, got %d calls", engine.calls)
	}
}

func TestClassifyEngineFailureFallsBack(t *testing.T) {
	engine := &stubEngine{err: errors.New("timeout")}
	c := NewClassifier(engine)

	got := c.Classify(context.Background(), "well, it's complicated", "")
	if got != LabelWilling {
		t.Errorf("expected safe default willing, got %q", got)
	}
}

func TestClassifySalvagesVerboseEngineReply(t *testing.T) {
	engine := &stubEngine{reply: "The classification is: callback."}
	c := NewClassifier(engine)

	got := c.Classify(context.Background(), "something ambiguous", "")
	if got != LabelCallback {
		t.Errorf("expected callback salvaged from verbose reply, got %q", got)
	}
}

func TestClassifyNilEngineDefaults(t *testing.T) {
	c := NewClassifier(nil)
	got := c.Classify(context.Background(), "something ambiguous", "")
	if got != LabelWilling {
		t.Errorf("expected willing default with nil engine, got %q", got)
	}
}

func TestVerifyProof(t *testing.T) {
	c := NewClassifier(nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		reply string
		want  ProofVerdict
	}{
		{"transaction keyword", "the transaction id is TXN88213344", ProofProvided},
		{"utr keyword", "UTR number is with my bank", ProofProvided},
		{"reference shaped token", "it was AXI9023416672", ProofProvided},
		{"no proof", "I don't have the receipt with me", ProofMissing},
		{"unauthorized payee", "some guy came to collect and I paid him cash", ProofUnauthorized},
		{"unclear without engine", "why are you asking me this", ProofUnclear},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.VerifyProof(ctx, tc.reply); got != tc.want {
				t.Errorf("VerifyProof(%q) = %q, want %q", tc.reply, got, tc.want)
			}
		})
	}
}

func TestVerifyProofEngineUnclear(t *testing.T) {
	engine := &stubEngine{reply: "no_proof"}
	c := NewClassifier(engine)

	got := c.VerifyProof(context.Background(), "why are you asking me this")
	if got != ProofMissing {
		t.Errorf("expected engine verdict no_proof, got %q", got)
	}

	failing := NewClassifier(&stubEngine{err: errors.New("boom")})
	if got := failing.VerifyProof(context.Background(), "why are you asking me this"); got != ProofUnclear {
		t.Errorf("expected unclear on engine failure, got %q", got)
	}
}
