package messaging

import (
	"regexp"
	"strings"
)

// MaxMessageLength is the largest body WhatsApp reliably delivers in one
// message. Longer texts are split before sending.
const MaxMessageLength = 4000

var (
	boldRegex       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
)

// FormatForWhatsApp rewrites standard markdown emphasis into WhatsApp's
// single-asterisk style and collapses runs of blank lines.
func FormatForWhatsApp(text string) string {
	text = boldRegex.ReplaceAllString(text, "*$1*")
	text = blankLinesRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// SplitMessage breaks a body into chunks no longer than limit, preferring
// paragraph breaks, then line breaks, then spaces. A non-positive limit
// returns the text as a single chunk.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := -1
		for _, sep := range []string{"\n\n", "\n", " "} {
			if i := strings.LastIndex(text[:limit], sep); i > 0 {
				cut = i + len(sep)
				break
			}
		}
		if cut <= 0 {
			cut = limit
		}
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
