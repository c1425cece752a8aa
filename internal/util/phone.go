package util

import "strings"

// NormalizePhone canonicalizes a phone number for customer lookup: strips
// everything except digits and a leading "+", and tolerates WhatsApp-style
// "whatsapp:+91..." prefixes. An empty input normalizes to "".
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.TrimPrefix(phone, "whatsapp:")

	var b strings.Builder
	for i, r := range phone {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SamePhone reports whether two numbers refer to the same line, tolerating
// missing country codes by falling back to comparing the trailing national
// digits (last 10).
func SamePhone(a, b string) bool {
	na := strings.TrimPrefix(NormalizePhone(a), "+")
	nb := strings.TrimPrefix(NormalizePhone(b), "+")
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	const national = 10
	ta, tb := na, nb
	if len(ta) > national {
		ta = ta[len(ta)-national:]
	}
	if len(tb) > national {
		tb = tb[len(tb)-national:]
	}
	return ta == tb
}
