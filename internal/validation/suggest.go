package validation

import (
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
)

// suggestionThreshold is the largest edit distance still offered as a
// suggestion.
const suggestionThreshold = 3

// nameSuggestion returns the candidate closest to given, or "" if none is
// close enough. Earlier candidates win ties.
func nameSuggestion(given string, candidates []string) string {
	best, bestDist := "", suggestionThreshold
	for _, c := range candidates {
		dist := levenshtein.Distance(strings.ToLower(given), strings.ToLower(c), nil)
		if dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best
}

// didYouMean formats a suggestion suffix for an unknown name, or "".
func didYouMean(given string, candidates []string) string {
	if s := nameSuggestion(given, candidates); s != "" {
		return fmt.Sprintf(" Did you mean %q?", s)
	}
	return ""
}

func quoteAll(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}
