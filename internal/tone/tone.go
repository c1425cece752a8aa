// Package tone defines the outbound tone contract for generated collection
// messages: a single short, firm, consequence-focused message, never
// empathetic or apologetic. It provides the system instruction handed to the
// generation engine and an enforcement pass applied to whatever comes back,
// so a drifting model cannot soften the agent's register.
package tone

import (
	"strings"
	"unicode"
)

// SystemInstruction is the generation-engine system prompt for negotiation
// replies. The engine phrases messages only; it never decides control flow.
const SystemInstruction = "You are a firm debt-collection agent for ABC Finance. " +
	"Reply with a single short message of at most two sentences. Be direct and consequence-focused, never empathetic or apologetic. " +
	"Always push the customer to commit to a concrete payment amount and date. Do not offer discounts beyond what you are told. Do not make decisions; only phrase the message."

// MaxMessageRunes caps an enforced message. Anything longer than this is not
// a "single short message" no matter how it is phrased.
const MaxMessageRunes = 320

// maxSentences is the sentence cap applied after rune truncation.
const maxSentences = 2

// softeners are empathetic or apologetic openings the contract forbids. A
// leading softener clause is dropped; a message that is nothing but
// softeners is rejected entirely.
var softeners = []string{
	"i'm sorry",
	"i am sorry",
	"i'm so sorry",
	"we're sorry",
	"we are sorry",
	"i apologize",
	"we apologize",
	"unfortunately",
	"i completely understand",
	"i totally understand",
	"i understand how you feel",
	"i understand this is hard",
	"i know this is difficult",
	"i know times are tough",
	"no worries",
	"don't worry",
	"take your time",
	"whenever you're ready",
	"whenever you are ready",
}

// Enforce normalizes a generated message to the tone contract: markdown
// fences and surrounding quotes stripped, emoji removed, a leading softener
// clause dropped, then a hard cut to at most two sentences inside the rune
// cap. It returns "" when nothing compliant remains, which callers treat as
// a generation failure and replace with fixed phrasing.
func Enforce(text string) string {
	msg := strings.TrimSpace(text)
	msg = stripFences(msg)
	msg = stripEmoji(msg)
	msg = dropLeadingSoftener(msg)
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ""
	}
	msg = truncateRunes(msg, MaxMessageRunes)
	msg = firstSentences(msg, maxSentences)
	return strings.TrimSpace(msg)
}

// Compliant reports whether a message already satisfies the contract:
// within length, at most two sentences, no emoji, no softener opening.
func Compliant(text string) bool {
	return text != "" && Enforce(text) == strings.TrimSpace(text)
}

// stripFences removes a wrapping markdown code fence or quote pair.
func stripFences(msg string) string {
	msg = strings.TrimSpace(msg)
	if strings.HasPrefix(msg, "```") && strings.HasSuffix(msg, "```") && len(msg) > 6 {
		msg = strings.TrimSuffix(strings.TrimPrefix(msg, "```"), "```")
		// A language tag may follow the opening fence.
		if i := strings.IndexByte(msg, '\n'); i >= 0 && !strings.ContainsRune(msg[:i], ' ') {
			msg = msg[i+1:]
		}
	}
	msg = strings.TrimSpace(msg)
	if len(msg) >= 2 && msg[0] == '"' && msg[len(msg)-1] == '"' {
		msg = msg[1 : len(msg)-1]
	}
	return msg
}

// stripEmoji removes symbol and pictograph runes.
func stripEmoji(msg string) string {
	var b strings.Builder
	b.Grow(len(msg))
	for _, r := range msg {
		if unicode.Is(unicode.So, r) || (r >= 0x1F000 && r <= 0x1FAFF) || r == 0xFE0F {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// dropLeadingSoftener removes an empathetic opening clause. Only the first
// clause is inspected; firm content after a comma or period survives.
func dropLeadingSoftener(msg string) string {
	lower := strings.ToLower(msg)
	for _, s := range softeners {
		if !strings.HasPrefix(lower, s) {
			continue
		}
		rest := msg[len(s):]
		// Cut through the end of the softener clause.
		if i := strings.IndexAny(rest, ",.!"); i >= 0 {
			rest = rest[i+1:]
		}
		rest = strings.TrimSpace(rest)
		rest = strings.TrimPrefix(rest, "but ")
		if len(rest) > 0 {
			// Re-capitalize the surviving clause.
			runes := []rune(rest)
			runes[0] = unicode.ToUpper(runes[0])
			rest = string(runes)
		}
		return rest
	}
	return msg
}

// truncateRunes cuts msg to at most n runes on a word boundary.
func truncateRunes(msg string, n int) string {
	runes := []rune(msg)
	if len(runes) <= n {
		return msg
	}
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:") + "."
}

// firstSentences keeps at most n sentences. Decimal points and the "Rs."
// abbreviation are not sentence boundaries.
func firstSentences(msg string, n int) string {
	count := 0
	runes := []rune(msg)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
			continue
		}
		if r == '.' && i >= 2 && strings.EqualFold(string(runes[i-2:i]), "Rs") {
			continue
		}
		// Only a boundary followed by a space or end of text counts.
		if i+1 < len(runes) && runes[i+1] != ' ' {
			continue
		}
		count++
		if count == n {
			return string(runes[:i+1])
		}
	}
	return msg
}
