package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var numericDOBRe = regexp.MustCompile(`(\d{1,2})\s*[-/. ]\s*(\d{1,2})(?:\s*[-/. ]\s*(\d{4}))?`)

// MatchesDOB reports whether the customer's reply matches the expected date
// of birth (stored DD-MM-YYYY). The matcher is tolerant: it accepts dash,
// slash, dot, or space separators, month-name phrasing in either day-first
// or month-first order, a partial day-month-only answer, and the US numeric
// month-first ordering.
func MatchesDOB(input, expected string) bool {
	expDay, expMonth, expYear, ok := parseExpectedDOB(expected)
	if !ok {
		return false
	}
	t := strings.ToLower(input)

	// Month-name phrasing, day before month ("15 March 1985", "15th of march").
	if m := dayBeforeRe.FindStringSubmatch(t); m != nil {
		if dobComponentsMatch(m[1], monthNumbers[m[2]], m[3], expDay, expMonth, expYear) {
			return true
		}
	}
	// Month-name phrasing, month before day ("March 15, 1985").
	if m := monthFirstRe.FindStringSubmatch(t); m != nil {
		if dobComponentsMatch(m[2], monthNumbers[m[1]], m[3], expDay, expMonth, expYear) {
			return true
		}
	}

	// Numeric forms, including partial day-month and US month-first order.
	for _, m := range numericDOBRe.FindAllStringSubmatch(t, -1) {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		year := 0
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		if year != 0 && year != expYear {
			continue
		}
		if a == expDay && b == expMonth {
			return true
		}
		// US ordering: month first.
		if a == expMonth && b == expDay {
			return true
		}
	}
	return false
}

func parseExpectedDOB(expected string) (day, month, year int, ok bool) {
	parts := strings.FieldsFunc(expected, func(r rune) bool {
		return r == '-' || r == '/' || r == ' ' || r == '.'
	})
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return 0, 0, 0, false
	}
	return day, month, year, true
}

func dobComponentsMatch(dayStr string, month int, yearStr string, expDay, expMonth, expYear int) bool {
	day, err := strconv.Atoi(dayStr)
	if err != nil || month == 0 {
		return false
	}
	if yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil || year != expYear {
			return false
		}
	}
	return day == expDay && month == expMonth
}
