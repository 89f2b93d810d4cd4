package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, NormalizeName(m)) {
			return true
		}
	}
	return false
}

// MinSimilarity is the lowest Jaro-Winkler similarity BestMatch accepts.
const MinSimilarity = 0.7

// BestMatch picks the candidate closest to query. An exact match after
// normalization wins outright, then a candidate containing the query, then
// the most similar one above MinSimilarity. It returns -1 when nothing is
// close enough.
func BestMatch(query string, candidates []string) int {
	normalized := NormalizeName(query)
	if normalized == "" {
		return -1
	}

	for i, c := range candidates {
		if NormalizeName(c) == normalized {
			return i
		}
	}
	for i, c := range candidates {
		if strings.Contains(NormalizeName(c), normalized) {
			return i
		}
	}

	best := -1
	var mostSimilarity float64
	for i, c := range candidates {
		similarity := matchr.JaroWinkler(normalized, NormalizeName(c), false)
		if similarity > mostSimilarity {
			mostSimilarity = similarity
			best = i
		}
	}
	if mostSimilarity < MinSimilarity {
		return -1
	}
	return best
}
