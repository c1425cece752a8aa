// Package extract provides pure, stateless extraction utilities that pull
// structured values (amounts, dates, plan selections, refusal phrasing) out
// of free-text customer messages using layered heuristics.
//
// Every extractor returns a concrete value plus an ok flag, never an error:
// ambiguity is reported as "not found" so callers ask a clarifying question
// instead of guessing.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	numberRe     = regexp.MustCompile(`\d+(?:\.\d+)?`)
	rangeKRe     = regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:-|–|to)\s*\d+(?:\.\d+)?\s*k\b`)
	betweenRe    = regexp.MustCompile(`between\s+(?:rs\.?\s*|₹\s*)?\d+(?:\.\d+)?k?\s+and\s+(?:rs\.?\s*|₹\s*)?\d+(?:\.\d+)?k?`)
	lakhCroreRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(lakhs?|lacs?|crores?)`)
	kShorthandRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*k\b`)
	percentRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:%|percent\b|per cent\b)`)
	numericDate  = regexp.MustCompile(`\d{1,2}\s*[-/.]\s*\d{1,2}\s*[-/.]\s*\d{2,4}`)
)

var paymentWords = []string{"pay", "settle", "clear", "give", "transfer", "send", "afford"}

var discountWords = []string{"discount", "interest", "rate", "charge", "charges", "fee", "off the", "waive", "reduction"}

// AmountThreshold is the floor below which bare numbers are not treated as
// payment amounts (small integers are usually days, counts, or ordinals).
const AmountThreshold = 100

// Amount extracts a committed payment amount from text. reference is the
// outstanding balance, used to resolve percentage phrasing; pass 0 to
// disable percentage resolution.
//
// Year components of dates are actively rejected (so "22nd July 2026" never
// yields 2026), and ambiguous ranges ("10-15k", "between 10k and 15k")
// yield no extraction rather than a guess.
func Amount(text string, reference float64) (float64, bool) {
	t := strings.ToLower(strings.ReplaceAll(text, ",", ""))

	// Ambiguous ranges are never resolved.
	if rangeKRe.MatchString(t) || betweenRe.MatchString(t) {
		return 0, false
	}

	// Indian numbering shorthand.
	if m := lakhCroreRe.FindStringSubmatch(t); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			if strings.HasPrefix(m[2], "crore") {
				return n * 1e7, true
			}
			return n * 1e5, true
		}
	}

	// "45k" shorthand.
	if m := kShorthandRe.FindStringSubmatch(t); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			return n * 1000, true
		}
	}

	// Percentage of the reference total, only when payment-intent language
	// is present and discount/rate language is not.
	if reference > 0 {
		if m := percentRe.FindStringSubmatch(t); m != nil {
			if containsAny(t, paymentWords) && !containsAny(t, discountWords) {
				if pct, err := strconv.ParseFloat(m[1], 64); err == nil && pct > 0 && pct <= 100 {
					return reference * pct / 100, true
				}
			}
			// A percentage mentioned in any other context never becomes
			// an amount, and its digits must not be re-read below.
			return 0, false
		}
	}

	// Plain or currency-marked numbers, skipping anything that is really
	// part of a date or a duration.
	for _, loc := range numberRe.FindAllStringIndex(t, -1) {
		token := t[loc[0]:loc[1]]
		n, err := strconv.ParseFloat(token, 64)
		if err != nil {
			continue
		}
		if n < AmountThreshold {
			continue
		}
		if isDateComponent(t, loc[0], loc[1], token) {
			continue
		}
		if isDurationComponent(t, loc[1]) {
			continue
		}
		return n, true
	}
	return 0, false
}

// isDateComponent reports whether the numeric token at [start,end) is the
// year (or other component) of a date rather than a standalone amount.
func isDateComponent(t string, start, end int, token string) bool {
	// Part of a numeric date like 15-03-1985 or 15/03/2026.
	for _, loc := range numericDate.FindAllStringIndex(t, -1) {
		if start >= loc[0] && end <= loc[1] {
			return true
		}
	}
	// A year-looking number adjacent to a month name ("22nd july 2026").
	if n, err := strconv.Atoi(token); err == nil && n >= 1900 && n <= 2100 && len(token) == 4 {
		window := t[max(0, start-18):start]
		if monthNameRe.MatchString(window) {
			return true
		}
		after := t[end:min(len(t), end+18)]
		if monthNameRe.MatchString(after) {
			return true
		}
	}
	return false
}

// isDurationComponent reports whether the token is immediately followed by a
// duration word ("3 month plan", "45 days").
func isDurationComponent(t string, end int) bool {
	rest := strings.TrimLeft(t[end:], " -")
	for _, w := range []string{"month", "months", "day", "days", "week", "weeks", "year", "years", "installment", "installments", "emi"} {
		if strings.HasPrefix(rest, w) {
			return true
		}
	}
	return false
}

func containsAny(t string, words []string) bool {
	for _, w := range words {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}
