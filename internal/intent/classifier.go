// Package intent wraps text classification for the collection dialogue: a
// fast rule-based keyword pass handles unambiguous phrasing, and only
// inconclusive utterances are delegated to the GenAI engine. Classification
// never returns an error to stage handlers; on engine failure it degrades to
// the rule verdict, then to a safe default.
package intent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/genai"
)

// Label is a payment-intent classification result.
type Label string

const (
	LabelPaid      Label = "paid"
	LabelDisputed  Label = "disputed"
	LabelCallback  Label = "callback"
	LabelUnable    Label = "unable"
	LabelWilling   Label = "willing"
	LabelImmediate Label = "immediate"
	// labelUnknown is internal: the rule pass could not decide.
	labelUnknown Label = "unknown"
)

var allowedLabels = map[Label]bool{
	LabelPaid: true, LabelDisputed: true, LabelCallback: true,
	LabelUnable: true, LabelWilling: true, LabelImmediate: true,
}

// Classifier maps customer utterances to intent labels.
type Classifier struct {
	engine genai.ClientInterface
}

// NewClassifier creates a classifier. engine may be nil, in which case only
// the rule pass runs and inconclusive utterances default to willing.
func NewClassifier(engine genai.ClientInterface) *Classifier {
	return &Classifier{engine: engine}
}

// Classify determines the payment intent of utterance. questionContext is
// the assistant question the customer was answering, which disambiguates
// bare affirmatives.
func (c *Classifier) Classify(ctx context.Context, utterance, questionContext string) Label {
	if label := classifyRuleBased(utterance, questionContext); label != labelUnknown {
		slog.Debug("intent.Classify: rule pass decided", "label", label)
		return label
	}
	if c.engine == nil {
		slog.Debug("intent.Classify: no engine configured, defaulting", "label", LabelWilling)
		return LabelWilling
	}

	label, err := c.classifyWithEngine(ctx, utterance, questionContext)
	if err != nil {
		slog.Warn("intent.Classify: engine classification failed, using default", "error", err)
		return LabelWilling
	}
	slog.Debug("intent.Classify: engine pass decided", "label", label)
	return label
}

const classifySystemPrompt = "You are a classification assistant for a debt collection chat. Return only one word."

func (c *Classifier) classifyWithEngine(ctx context.Context, utterance, questionContext string) (Label, error) {
	prompt := buildClassifyPrompt(utterance, questionContext)
	raw, err := c.engine.Generate(ctx, classifySystemPrompt, prompt)
	if err != nil {
		return "", err
	}

	verdict := Label(strings.ToLower(strings.TrimSpace(raw)))
	if allowedLabels[verdict] {
		return verdict, nil
	}
	// Salvage a valid label embedded in a longer reply.
	for label := range allowedLabels {
		if strings.Contains(string(verdict), string(label)) {
			return label, nil
		}
	}
	slog.Warn("intent.classifyWithEngine: unexpected engine verdict", "verdict", raw)
	return LabelWilling, nil
}

func buildClassifyPrompt(utterance, questionContext string) string {
	var b strings.Builder
	b.WriteString("Classify this customer response in a debt collection chat.\n\n")
	b.WriteString("Question asked: \"" + questionContext + "\"\n")
	b.WriteString("Customer response: \"" + utterance + "\"\n\n")
	b.WriteString(`Categories (choose the best match):
- immediate: customer agrees to pay the FULL amount TODAY ("yes" when asked "can you pay today", "I can pay now")
- willing: customer wants a payment plan OR commits to pay on a FUTURE date ("I'll pay tomorrow", "can't pay full", "installment")
- paid: customer claims the payment was already made
- disputed: customer denies the debt
- callback: customer wants to be contacted later WITHOUT committing to payment
- unable: customer has no means to pay at all

Rules:
- "yes/okay/sure" to "can you pay today" is immediate, unless hedged ("yes but...")
- "I will pay tomorrow" is willing, never callback
- "call me later" without payment language is callback
- sarcasm about paying is unable

Return ONE word only: immediate, paid, disputed, callback, unable, or willing

Classification:`)
	return b.String()
}
