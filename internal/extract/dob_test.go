package extract

import "testing"

func TestMatchesDOB(t *testing.T) {
	const expected = "15-03-1985"

	matches := []string{
		"15-03-1985",
		"15/03/1985",
		"15 03 1985",
		"15.03.1985",
		"it's 15-03-1985",
		"15th March 1985",
		"15 march 1985",
		"March 15, 1985",
		"march 15 1985",
		"15-03",      // partial day-month
		"15/3",       // partial, single digit month
		"03-15-1985", // US month-first numeric ordering
	}
	for _, in := range matches {
		if !MatchesDOB(in, expected) {
			t.Errorf("MatchesDOB(%q, %q) = false, want true", in, expected)
		}
	}

	mismatches := []string{
		"16-03-1985",
		"15-04-1985",
		"15-03-1986",
		"March 16, 1985",
		"wrong-dob-1",
		"",
		"some time in 1985",
	}
	for _, in := range mismatches {
		if MatchesDOB(in, expected) {
			t.Errorf("MatchesDOB(%q, %q) = true, want false", in, expected)
		}
	}
}

func TestMatchesDOBBadExpected(t *testing.T) {
	if MatchesDOB("15-03-1985", "not-a-date") {
		t.Error("malformed expected DOB must never match")
	}
}
