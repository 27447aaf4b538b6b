package schedule

import (
	"regexp"
	"strings"
)

// GroupCode is the utility's outage group as a short digit string, e.g. "41"
// for group 4.1. Two codes are equal iff their digit strings are equal.
type GroupCode string

var (
	groupWordRe = regexp.MustCompile(`(група|group)`)
	nonDigitRe  = regexp.MustCompile(`\D`)
)

// NormalizeGroupCode turns free-form input ("4.1", "4,1", "Group 4.1", "41")
// into a canonical code. Inputs that do not reduce to 1–4 digits are rejected.
func NormalizeGroupCode(raw string) (GroupCode, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return "", false
	}
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	cleaned = groupWordRe.ReplaceAllString(cleaned, "")
	digits := nonDigitRe.ReplaceAllString(cleaned, "")
	if len(digits) < 1 || len(digits) > 4 {
		return "", false
	}
	return GroupCode(digits), true
}

// Valid reports whether g is 1–4 ASCII digits and not the utility's "0"
// placeholder for addresses outside any group.
func (g GroupCode) Valid() bool {
	if len(g) < 1 || len(g) > 4 || g == "0" {
		return false
	}
	for _, r := range g {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Dotted renders the display form. Only two-digit codes map onto the
// single-dot form ("41" -> "4.1"); other lengths pass through unchanged.
func (g GroupCode) Dotted() string {
	if len(g) == 2 {
		return string(g[0]) + "." + string(g[1])
	}
	return string(g)
}

func (g GroupCode) String() string { return string(g) }
