package utils

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance is the largest edit distance still offered as a
// "did you mean" suggestion.
const maxSuggestDistance = 3

// ClosestMatch returns the candidate with the smallest case-insensitive edit
// distance to query. The second return is false when no candidate is close
// enough to be worth suggesting.
func ClosestMatch(query string, candidates []string) (string, bool) {
	queryLower := strings.ToLower(query)

	best := ""
	bestDistance := maxSuggestDistance + 1

	for _, candidate := range candidates {
		distance := levenshtein.ComputeDistance(queryLower, strings.ToLower(candidate))
		if distance < bestDistance {
			bestDistance = distance
			best = candidate
		}
	}

	if best == "" || bestDistance > maxSuggestDistance {
		return "", false
	}
	return best, true
}
