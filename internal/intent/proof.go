package intent

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// ProofVerdict classifies a customer's response to a request for payment
// proof.
type ProofVerdict string

const (
	ProofProvided     ProofVerdict = "has_proof"
	ProofMissing      ProofVerdict = "no_proof"
	ProofUnauthorized ProofVerdict = "unauthorized_payee"
	ProofUnclear      ProofVerdict = "unclear"
)

var proofTokenPhrases = []string{
	"transaction", "txn", "ref", "reference", "utr", "receipt",
	"confirmation", "id:", "number:",
}

var noProofPhrases = []string{
	"don't have", "dont have", "not with me", "lost it",
	"can't find", "cant find", "didn't get", "didnt get",
	"no receipt", "no proof", "don't know", "dont know",
}

var unauthorizedPhrases = []string{
	"some guy", "someone called", "person called", "agent called",
	"field agent", "collection agent", "guy came", "man came",
	"cash to the agent", "paid the agent",
}

// referenceTokenRe matches transaction-reference-shaped tokens: a run of
// letters-and-digits at least 8 long containing at least one digit.
var referenceTokenRe = regexp.MustCompile(`\b[A-Za-z]*\d[A-Za-z\d]{7,}\b`)

const proofSystemPrompt = "You are a classification assistant for a debt collection chat. Return only one word."

// VerifyProof produces a payment-proof verdict for the customer's reply to
// a transaction-proof request. Rule pass first; the engine is consulted
// only for unclear replies, and engine failure yields ProofUnclear so the
// agent simply asks again.
func (c *Classifier) VerifyProof(ctx context.Context, reply string) ProofVerdict {
	if verdict, decided := proofRuleBased(reply); decided {
		slog.Debug("intent.VerifyProof: rule pass decided", "verdict", verdict)
		return verdict
	}
	if c.engine == nil {
		return ProofUnclear
	}

	prompt := "A debt collection agent asked the customer for a transaction ID or payment receipt.\n" +
		"Customer reply: \"" + reply + "\"\n\n" +
		"Classify the reply. Return ONE word only:\n" +
		"- has_proof: the reply contains a transaction reference or clearly describes valid proof\n" +
		"- no_proof: the customer admits they have no proof\n" +
		"- unauthorized_payee: the customer paid some unofficial person or agent\n" +
		"- unclear: anything else\n\nClassification:"
	raw, err := c.engine.Generate(ctx, proofSystemPrompt, prompt)
	if err != nil {
		slog.Warn("intent.VerifyProof: engine failed, treating as unclear", "error", err)
		return ProofUnclear
	}
	switch ProofVerdict(strings.ToLower(strings.TrimSpace(raw))) {
	case ProofProvided:
		return ProofProvided
	case ProofMissing:
		return ProofMissing
	case ProofUnauthorized:
		return ProofUnauthorized
	default:
		return ProofUnclear
	}
}

func proofRuleBased(reply string) (ProofVerdict, bool) {
	t := strings.ToLower(reply)

	hasToken := containsAny(t, proofTokenPhrases) || referenceTokenRe.MatchString(reply)
	noProof := containsAny(t, noProofPhrases)
	unauthorized := containsAny(t, unauthorizedPhrases)

	switch {
	case unauthorized:
		return ProofUnauthorized, true
	case hasToken && !noProof:
		return ProofProvided, true
	case noProof:
		return ProofMissing, true
	default:
		return ProofUnclear, false
	}
}
