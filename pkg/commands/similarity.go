package commands

import (
	"math"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultThreshold is the similarity score separating close names from far ones.
const DefaultThreshold = 90

// Closeness selects which side of the threshold counts as a fuzzy candidate.
type Closeness int

const (
	// ClosenessBelow flags names scoring strictly below the threshold.
	ClosenessBelow Closeness = iota
	// ClosenessAtLeast flags names scoring at or above the threshold.
	ClosenessAtLeast
)

func (c Closeness) String() string {
	switch c {
	case ClosenessBelow:
		return "below"
	case ClosenessAtLeast:
		return "at_least"
	}
	return "unknown"
}

// ParseCloseness maps the configuration spelling to a Closeness.
func ParseCloseness(s string) (Closeness, bool) {
	switch s {
	case "below", "":
		return ClosenessBelow, true
	case "at_least", "above":
		return ClosenessAtLeast, true
	}
	return ClosenessBelow, false
}

func (c Closeness) close(score, threshold int) bool {
	if c == ClosenessAtLeast {
		return score >= threshold
	}
	return score < threshold
}

// Ratio scores the similarity of a and b from 0 to 100 with difflib's
// sequence matcher over runes. Identical strings score 100, and an empty
// string scores 0 against any other.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	m := difflib.NewMatcher(runes(a), runes(b))
	return int(math.RoundToEven(100 * m.Ratio()))
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
