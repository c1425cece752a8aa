package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateMatch is the result of date extraction. Value is formatted DD-MM-YYYY.
// FromRange is set when the text described a date range ("between 5th and
// 10th") that was resolved deterministically to the first endpoint; callers
// should confirm the exact date with the customer.
type DateMatch struct {
	Value     string
	FromRange bool
}

var monthNumbers = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

var (
	monthNameRe   = regexp.MustCompile(`\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b`)
	dayBeforeRe   = regexp.MustCompile(`(\d{1,2})(?:st|nd|rd|th)?(?:\s+of)?\s+(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)(?:\s+(\d{4}))?`)
	monthFirstRe  = regexp.MustCompile(`\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\s+(\d{1,2})(?:st|nd|rd|th)?(?:\s*,?\s*(\d{4}))?`)
	numericFullRe = regexp.MustCompile(`(\d{1,2})\s*[-/.]\s*(\d{1,2})\s*[-/.]\s*(\d{4})`)
	dayRangeRe    = regexp.MustCompile(`between\s+(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)?\s+and\s+(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)?`)
	bareOrdinalRe = regexp.MustCompile(`(?:on|by)\s+the\s+(\d{1,2})(?:st|nd|rd|th)\b`)
)

// Date extracts a calendar date from text, resolved against now. Relative
// terms ("tomorrow", "day after tomorrow") are supported. A bare small
// integer inside a plan-duration phrase ("3 month plan") is never read as a
// date unless an explicit date pattern co-occurs.
func Date(text string, now time.Time) (DateMatch, bool) {
	t := strings.ToLower(text)

	// Relative terms first: they are unambiguous.
	if strings.Contains(t, "day after tomorrow") {
		return DateMatch{Value: formatDate(now.AddDate(0, 0, 2))}, true
	}
	if strings.Contains(t, "tomorrow") {
		return DateMatch{Value: formatDate(now.AddDate(0, 0, 1))}, true
	}
	if strings.Contains(t, "today") && !strings.Contains(t, "not today") {
		return DateMatch{Value: formatDate(now)}, true
	}

	// Range phrasing resolves to the first endpoint, flagged for
	// downstream clarification.
	if m := dayRangeRe.FindStringSubmatch(t); m != nil {
		day, _ := strconv.Atoi(m[1])
		if day >= 1 && day <= 31 {
			month, year := rangeMonthYear(t, day, now)
			return DateMatch{Value: formatDMY(day, month, year), FromRange: true}, true
		}
	}

	// Numeric DD-MM-YYYY / DD/MM/YYYY.
	if m := numericFullRe.FindStringSubmatch(t); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if day >= 1 && day <= 31 && month >= 1 && month <= 12 {
			return DateMatch{Value: formatDMY(day, month, year)}, true
		}
	}

	// Natural phrasing, day before month ("22nd July 2026", "5th of January").
	if m := dayBeforeRe.FindStringSubmatch(t); m != nil {
		if dm, ok := naturalDate(m[1], m[2], m[3], now); ok {
			return dm, true
		}
	}

	// Month before day ("July 22, 2026").
	if m := monthFirstRe.FindStringSubmatch(t); m != nil {
		if dm, ok := naturalDate(m[2], m[1], m[3], now); ok {
			return dm, true
		}
	}

	// "on the 5th" resolves to the next occurrence of that day of month.
	if m := bareOrdinalRe.FindStringSubmatch(t); m != nil {
		day, _ := strconv.Atoi(m[1])
		if day >= 1 && day <= 31 {
			month, year := int(now.Month()), now.Year()
			if day <= now.Day() {
				month++
				if month > 12 {
					month = 1
					year++
				}
			}
			return DateMatch{Value: formatDMY(day, month, year)}, true
		}
	}

	// Bare integers ("3 month plan", "give me 2 weeks") carry no date
	// pattern and are never promoted to dates.
	return DateMatch{}, false
}

// naturalDate resolves a day + month-name (+ optional year) triple. A
// missing year resolves to the next future occurrence of the date.
func naturalDate(dayStr, monthName, yearStr string, now time.Time) (DateMatch, bool) {
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return DateMatch{}, false
	}
	month, ok := monthNumbers[monthName]
	if !ok {
		return DateMatch{}, false
	}
	year := now.Year()
	if yearStr != "" {
		year, _ = strconv.Atoi(yearStr)
	} else if month < int(now.Month()) || (month == int(now.Month()) && day < now.Day()) {
		year++
	}
	return DateMatch{Value: formatDMY(day, month, year)}, true
}

// rangeMonthYear picks the month/year for a day-range mention, using a
// co-occurring month name when present and the next occurrence otherwise.
func rangeMonthYear(t string, day int, now time.Time) (int, int) {
	if m := monthNameRe.FindString(t); m != "" {
		month := monthNumbers[m]
		year := now.Year()
		if month < int(now.Month()) {
			year++
		}
		return month, year
	}
	month, year := int(now.Month()), now.Year()
	if day <= now.Day() {
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return month, year
}

func formatDate(t time.Time) string {
	return fmt.Sprintf("%02d-%02d-%04d", t.Day(), int(t.Month()), t.Year())
}

func formatDMY(day, month, year int) string {
	return fmt.Sprintf("%02d-%02d-%04d", day, month, year)
}
