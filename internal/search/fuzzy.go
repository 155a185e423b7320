package search

import "strings"

// DefaultFuzzyThreshold is used by candidate matching; the spelling
// corrector uses the stricter correction threshold from config.
const DefaultFuzzyThreshold = 0.7

// Similarity returns a normalized edit-distance similarity in [0, 1]:
// 1 - levenshtein(a, b) / max(len(a), len(b)). Two empty strings are
// defined as identical.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// Similar reports whether a and b are close enough under threshold. Either
// string containing the other counts as a match regardless of threshold.
func Similar(a, b string, threshold float64) bool {
	if a == b {
		return true
	}
	if a != "" && b != "" && (strings.Contains(a, b) || strings.Contains(b, a)) {
		return true
	}
	return Similarity(a, b) >= threshold
}

// levenshtein computes edit distance with the standard DP recurrence,
// keeping only two rows of the table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			insert := curr[j-1] + 1
			remove := prev[j] + 1
			replace := prev[j-1] + cost

			m := insert
			if remove < m {
				m = remove
			}
			if replace < m {
				m = replace
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
