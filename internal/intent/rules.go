package intent

import "strings"

// Keyword sets for the rule-based first pass. Only unambiguous phrasing is
// decided here; anything uncertain returns labelUnknown so the engine can
// weigh in.

var paidPhrases = []string{
	"already paid", "already made payment", "already cleared", "already settled",
	"payment done", "payment made", "payment cleared", "payment completed",
	"i paid", "i've paid", "i have paid", "i made payment", "i cleared",
	"paid last week", "paid yesterday", "paid today", "paid it", "just paid",
	"made the payment", "cleared the payment", "settled the payment",
	"transferred the amount", "sent the money", "payment was made",
	"payment is done", "cleared my dues", "paid my dues", "settled my account",
	"i thought i paid",
}

var disputePhrases = []string{
	"never took", "never borrowed", "never applied", "never had",
	"haven't taken", "havent taken", "didn't take", "didnt take",
	"not my loan", "not my account", "not my debt", "not mine",
	"don't owe", "dont owe", "do not owe",
	"this is wrong", "this is incorrect", "this is not mine", "this is not my",
	"this is fraud", "identity theft", "fraudulent", "fraud",
	"i never took", "i never borrowed", "i never signed", "i never applied",
	"doesn't seem right", "doesnt seem right", "seems wrong", "looks wrong",
	"wrong person", "not me", "someone else", "unauthorized", "not authorized",
	"don't remember taking", "amount is wrong", "only borrowed",
}

var callbackPhrases = []string{
	"call later", "call me later", "call back", "callback", "call you back",
	"call me next week", "call me next month", "call me tomorrow", "call me on",
	"call me some other time", "call back later", "call back tomorrow",
	"busy now", "busy right now", "busy at the moment", "busy currently",
	"not available", "out of town", "travelling", "traveling",
	"can't talk now", "cant talk now", "cannot talk now",
	"not a good time", "bad time", "isn't a good time", "isnt a good time",
	"please call later", "call me when convenient",
}

var hardshipPhrases = []string{
	"lost my job", "lost job", "no job", "unemployed", "jobless",
	"no money", "no funds", "no cash", "broke", "out of money",
	"can't afford", "cant afford", "cannot afford",
	"financial crisis", "financial difficulty", "financial trouble",
	"struggling", "tough times", "hard time", "tough time",
	"no income", "no salary", "no earnings",
	"medical emergency", "family emergency",
	"money out of thin air",
}

var willingPhrases = []string{
	"can't pay full", "cant pay full", "cannot pay full",
	"can't pay in full", "cant pay in full", "cannot pay in full",
	"can't pay the full", "cant pay the full", "cannot pay the full",
	"installment", "installments", "monthly payment", "payment plan",
	"repayment plan", "pay in parts", "pay in installments",
	"emi", "monthly emi",
	"work out a plan", "work out payment", "work something out",
	"partial payment", "pay partial", "pay some", "pay part",
	"pay later", "pay next month", "pay next week", "pay after",
	"want to settle", "want to clear", "want to pay", "interested in paying",
	"can manage", "can arrange", "per month", "can only afford",
	"what are my options", "show me plans", "options",
}

var paymentCommitmentPhrases = []string{
	"i will pay", "i'll pay", "ill pay", "will pay", "promise to pay",
	"can pay", "i can pay",
}

var hedgeWords = []string{
	"but", "however", "can't", "cant", "cannot", "not", "full", "partial",
	"installment", "plan", "later", "discount", "if",
	"tomorrow", "next week", "next month",
}

// classifyRuleBased runs the keyword first pass. It returns labelUnknown
// when no unambiguous signal is present.
func classifyRuleBased(utterance, questionContext string) Label {
	text := strings.ToLower(strings.TrimSpace(utterance))
	qctx := strings.ToLower(questionContext)

	// A payment commitment for tomorrow is a future commitment, never a
	// callback request and never immediate, even when the question asked
	// about paying today.
	if strings.Contains(text, "tomorrow") && containsAny(text, paymentCommitmentPhrases) {
		return LabelWilling
	}

	// Bare affirmative to "can you pay today?" means pay in full now,
	// unless hedging or future-date language follows.
	if strings.Contains(qctx, "today") || strings.Contains(qctx, "able to") {
		if startsAffirmative(text) && !containsAny(text, hedgeWords) {
			return LabelImmediate
		}
	}

	if containsAny(text, paidPhrases) {
		return LabelPaid
	}
	if containsAny(text, disputePhrases) {
		return LabelDisputed
	}

	if containsAny(text, callbackPhrases) {
		// Payment language overrides callback keywords.
		if !containsAny(text, paymentCommitmentPhrases) {
			if strings.Contains(text, "show") && strings.Contains(text, "plan") {
				return LabelWilling
			}
			return LabelCallback
		}
	}

	if containsAny(text, hardshipPhrases) {
		return LabelUnable
	}
	if containsAny(text, willingPhrases) {
		return LabelWilling
	}

	return labelUnknown
}

func startsAffirmative(text string) bool {
	for _, w := range []string{"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "alright", "fine", "i can", "i will"} {
		if text == w || strings.HasPrefix(text, w+" ") || strings.HasPrefix(text, w+",") {
			return true
		}
	}
	return false
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
