package extract

import (
	"strings"
)

var refusalPhrases = []string{
	"won't pay", "wont pay", "will not pay", "not going to pay",
	"not paying", "refuse to pay", "i refuse", "never pay", "never paying",
	"no way", "forget it", "not interested", "don't want to pay",
	"dont want to pay", "won't be paying", "wont be paying", "i won't",
	"i wont", "not gonna pay",
}

// hedgedInterestMarkers disqualify a refusal verdict: the customer is
// expressing qualified interest, not outright refusal.
var hedgedInterestMarkers = []string{
	"maybe", "i can pay", "can pay", "could pay", "%", "percent", "partial",
	"some of", "part of", "installment", "plan",
}

var terminationPhrases = []string{
	"end conversation", "end this conversation", "end the conversation",
	"goodbye", "bye bye", "stop messaging", "stop calling", "stop texting",
	"don't contact me", "dont contact me", "leave me alone",
	"nothing else", "that's all", "thats all", "no thanks bye",
}

var affirmativeWords = []string{
	"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "alright", "fine",
	"confirm", "confirmed", "correct", "right", "done", "perfect",
}

var nonAnswerWords = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "yup": true, "ok": true,
	"okay": true, "sure": true, "fine": true, "hmm": true, "hm": true,
	"k": true, "alright": true, "hi": true, "hello": true,
}

var paymentOfferPhrases = []string{
	"i can pay", "can pay", "i'll pay", "ill pay", "i will pay", "will pay",
	"i can give", "can give", "i'll give", "able to pay", "ready to pay",
	"pay you", "i can do", "can manage", "can arrange",
}

// IsRefusal reports whether text is an outright refusal to pay. Hedged
// interest ("maybe", "I can pay some", a percentage, "partial") is never
// classified as refusal.
func IsRefusal(text string) bool {
	t := strings.ToLower(text)
	if containsAny(t, hedgedInterestMarkers) {
		return false
	}
	return containsAny(t, refusalPhrases)
}

// IsTermination reports whether the customer is trying to end the
// conversation.
func IsTermination(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "stop" || t == "bye" {
		return true
	}
	return containsAny(t, terminationPhrases)
}

// IsAffirmative reports whether text is an unqualified yes. Hedging
// ("yes but...") disqualifies it.
func IsAffirmative(text string) bool {
	t := strings.ToLower(strings.TrimSpace(strings.Trim(text, ".,!")))
	if containsAny(t, []string{"but", "however", "can't", "cant", "cannot", " not ", "no "}) {
		return false
	}
	for _, w := range affirmativeWords {
		if t == w || strings.HasPrefix(t, w+" ") || strings.HasPrefix(t, w+",") {
			return true
		}
	}
	return false
}

// IsNonAnswer reports whether text is a bare acknowledgment with no
// substantive content, used when the agent asked an open question (such as
// the reason for a payment delay) and needs an actual answer.
func IsNonAnswer(text string) bool {
	fields := strings.Fields(strings.ToLower(strings.Trim(text, " .,!?")))
	if len(fields) == 0 {
		return true
	}
	if len(fields) > 2 {
		return false
	}
	for _, f := range fields {
		if !nonAnswerWords[f] {
			return false
		}
	}
	return true
}

// PartialPayment detects an offer to pay an amount smaller than the
// outstanding balance, flagged by payment-offer phrasing. It returns the
// offered amount.
func PartialPayment(text string, outstanding float64) (float64, bool) {
	t := strings.ToLower(text)
	if !containsAny(t, paymentOfferPhrases) {
		return 0, false
	}
	amount, ok := Amount(text, outstanding)
	if !ok || amount <= 0 || amount >= outstanding {
		return 0, false
	}
	return amount, true
}

// MentionsMultipleInstallments flags text that describes more than one
// future payment date/amount pair ("5k on the 5th and the rest next month"),
// so the agent can redirect toward a single structured plan.
func MentionsMultipleInstallments(text string) bool {
	t := strings.ToLower(text)

	sequencing := containsAny(t, []string{"and then", "then the", "rest ", "remaining", "balance later", "after that", "and the rest"})
	if !sequencing {
		return false
	}

	amounts := 0
	for _, loc := range numberRe.FindAllStringIndex(t, -1) {
		if !isDateComponent(t, loc[0], loc[1], t[loc[0]:loc[1]]) {
			amounts++
		}
	}
	dates := 0
	for _, re := range []string{"tomorrow", "next week", "next month"} {
		if strings.Contains(t, re) {
			dates++
		}
	}
	dates += len(numericFullRe.FindAllString(t, -1))
	dates += len(dayBeforeRe.FindAllString(t, -1))

	return amounts >= 2 || dates >= 2
}
