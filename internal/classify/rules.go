// Package classify implements the temporal intent classifiers for meeting
// acceptance and do-not-contact requests, plus the ephemeral offer trackers
// they depend on.
//
// Pattern groups are tagged, ordered rule lists so each rule can be unit
// tested and reordered in isolation.
package classify

import "strings"

// Polarity tags what a rule match means for the classification.
type Polarity string

const (
	// PolarityPositive supports the classification.
	PolarityPositive Polarity = "positive"
	// PolarityNegative rejects the classification.
	PolarityNegative Polarity = "negative"
	// PolarityGuard suppresses an otherwise-matching classification and is
	// always evaluated before any positive rule.
	PolarityGuard Polarity = "guard"
)

// Rule is one named pattern group. Patterns are matched as lowercase
// substrings; the first pattern hit wins for the rule.
type Rule struct {
	Name     string
	Polarity Polarity
	Patterns []string
}

// Matches reports whether the rule hits the (already lowercased) text.
func (r Rule) Matches(lower string) bool {
	for _, p := range r.Patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// firstMatch returns the first rule in order that hits the text.
func firstMatch(rules []Rule, lower string) (Rule, bool) {
	for _, r := range rules {
		if r.Matches(lower) {
			return r, true
		}
	}
	return Rule{}, false
}

// containsAny is a plain pattern-list check used for feature extraction.
func containsAny(lower string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
