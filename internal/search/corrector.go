package search

import (
	"strings"

	"github.com/likha-market/search-service/internal/lexicon"
)

// Corrector proposes a corrected query after a zero-result search. It is
// only consulted once per request; the engine never chains corrections.
type Corrector struct {
	dict      *lexicon.Dictionary
	threshold float64
}

// NewCorrector uses a stricter threshold than candidate matching (0.75 by
// default) to avoid over-correcting queries that were merely unusual.
func NewCorrector(dict *lexicon.Dictionary, threshold float64) *Corrector {
	if threshold <= 0 {
		threshold = 0.75
	}
	return &Corrector{dict: dict, threshold: threshold}
}

// SuggestCorrection returns a corrected full query, or "" when no token
// could be improved. An already-correct query yields "", not an identical
// copy.
func (c *Corrector) SuggestCorrection(query string) string {
	tokens := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	if len(tokens) == 0 {
		return ""
	}

	changed := false
	corrected := make([]string, len(tokens))
	for i, token := range tokens {
		corrected[i] = token

		// Exact variant membership is cheap; try it before any fuzzy scan.
		if canonical, ok := c.dict.Canonical(token); ok {
			if canonical != token {
				corrected[i] = canonical
				changed = true
			}
			continue
		}

		if best := c.bestFuzzy(token); best != "" {
			corrected[i] = best
			changed = true
		}
	}

	if !changed {
		return ""
	}
	return strings.Join(corrected, " ")
}

// bestFuzzy scans every canonical term and returns the closest one at or
// above the threshold. Plain edit-distance similarity is used here, without
// the containment shortcut, so short tokens are not "corrected" into every
// term that happens to contain them.
func (c *Corrector) bestFuzzy(token string) string {
	best := ""
	bestScore := c.threshold
	for _, canonical := range c.dict.Canonicals() {
		if canonical == token {
			continue
		}
		if sim := Similarity(token, canonical); sim >= bestScore {
			best = canonical
			bestScore = sim
		}
	}
	return best
}
