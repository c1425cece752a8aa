package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
)

var (
	monthCountRe = regexp.MustCompile(`(\d+)\s*[-\s]?\s*month`)
	planIndexRe  = regexp.MustCompile(`(?:plan|option|number)\s*(?:#\s*)?(\d)`)
)

var ordinalWords = []struct {
	words []string
	index int
}{
	{[]string{"first", "1st"}, 0},
	{[]string{"second", "2nd"}, 1},
	{[]string{"third", "3rd"}, 2},
}

var acceptancePhrases = []string{
	"works for me", "sounds good", "that works", "i accept", "i'll take",
	"ill take", "i agree", "let's do that", "lets do that", "go with that",
	"that one", "deal",
}

var negationMarkers = []string{
	"except", "anything but", "other than", "not the", "don't want", "dont want",
	"can't pay", "cant pay", "cannot pay",
}

// Plan matches a candidate payment plan from the offered list against the
// customer's reply. planJustListed indicates the immediately preceding
// assistant message listed the plans, which allows generic acceptance
// phrasing ("sounds good") to bind.
//
// Negated phrasing ("anything except the first") suppresses the match: the
// customer has not selected anything yet.
func Plan(text string, plans []models.PaymentPlan, planJustListed bool) (*models.PaymentPlan, bool) {
	if len(plans) == 0 {
		return nil, false
	}
	t := strings.ToLower(text)

	if containsAny(t, negationMarkers) {
		return nil, false
	}

	// Explicit month-count mention ("the 3 month one").
	if m := monthCountRe.FindStringSubmatch(t); m != nil {
		months, _ := strconv.Atoi(m[1])
		for i := range plans {
			if plans[i].Months == months && months > 0 {
				return &plans[i], true
			}
		}
	}

	// Explicit index ("option 2", "plan 1").
	if m := planIndexRe.FindStringSubmatch(t); m != nil {
		idx, _ := strconv.Atoi(m[1])
		if idx >= 1 && idx <= len(plans) {
			return &plans[idx-1], true
		}
	}

	// Ordinal words ("the second option").
	for _, ord := range ordinalWords {
		for _, w := range ord.words {
			if strings.Contains(t, w) && ord.index < len(plans) {
				return &plans[ord.index], true
			}
		}
	}

	// Descriptive features.
	if strings.Contains(t, "discount") || strings.Contains(t, "settle") || strings.Contains(t, "immediate") || strings.Contains(t, "full amount") {
		for i := range plans {
			if plans[i].Months == 0 {
				return &plans[i], true
			}
		}
	}
	if strings.Contains(t, "cheapest") || strings.Contains(t, "lowest") || strings.Contains(t, "smallest") || strings.Contains(t, "least per month") {
		best := -1
		for i := range plans {
			if plans[i].Months == 0 {
				continue
			}
			if best < 0 || plans[i].Installment < plans[best].Installment {
				best = i
			}
		}
		if best >= 0 {
			return &plans[best], true
		}
	}

	// Generic acceptance immediately after the listing. With nothing more
	// specific to go on, bind to the middle installment option the way the
	// agent has always presented it.
	if planJustListed && containsAny(t, acceptancePhrases) {
		if len(plans) > 1 {
			return &plans[1], true
		}
		return &plans[0], true
	}

	return nil, false
}
