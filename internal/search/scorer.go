package search

import (
	"strings"

	"github.com/likha-market/search-service/internal/models"
)

// Weights is the named scoring table. The absolute values are tuning
// choices; the ordering constraints they must satisfy are:
//   - ExactName > PrefixName > SubstringName > TermInName
//   - OutOfStockPenalty > SubstringName + InStock, so an out-of-stock exact
//     match ranks below an in-stock partial match
type Weights struct {
	ExactName         float64
	PrefixName        float64
	SubstringName     float64
	TermInName        float64
	Category          float64
	CraftType         float64
	Artist            float64
	TagWholeQuery     float64
	TagPerTerm        float64
	DescPerTerm       float64
	Featured          float64
	RatingHigh        float64 // rating >= 4.5
	RatingGood        float64 // rating in [4.0, 4.5)
	InStock           float64
	OutOfStockPenalty float64
}

func DefaultWeights() Weights {
	return Weights{
		ExactName:         100,
		PrefixName:        80,
		SubstringName:     60,
		TermInName:        10,
		Category:          30,
		CraftType:         25,
		Artist:            20,
		TagWholeQuery:     15,
		TagPerTerm:        5,
		DescPerTerm:       2,
		Featured:          5,
		RatingHigh:        15,
		RatingGood:        8,
		InStock:           5,
		OutOfStockPenalty: 70,
	}
}

// Scorer computes the additive relevance score and match-type
// classification for one item against an expanded term set.
type Scorer struct {
	w Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Score is pure and request-scoped. Items that reached the candidate set
// without any of the name/term rules firing are classified fuzzy.
func (s *Scorer) Score(item models.CatalogItem, terms TermSet, rawQuery string) (float64, models.MatchType) {
	var score float64
	matchType := models.MatchFuzzy

	raw := strings.ToLower(strings.TrimSpace(rawQuery))
	rawTokens := strings.Fields(raw)
	name := strings.ToLower(item.Name)

	// Name rules are mutually exclusive: the strongest one wins.
	switch {
	case raw != "" && name == raw:
		score += s.w.ExactName
		matchType = models.MatchExact
	case raw != "" && strings.HasPrefix(name, raw):
		score += s.w.PrefixName
		matchType = models.MatchExact
	case raw != "" && strings.Contains(name, raw):
		score += s.w.SubstringName
		matchType = models.MatchPartial
	}

	rawToken := make(map[string]bool, len(rawTokens))
	for _, t := range rawTokens {
		rawToken[t] = true
	}

	for _, term := range terms.Terms() {
		if !strings.Contains(name, term) {
			continue
		}
		score += s.w.TermInName
		if matchType == models.MatchFuzzy {
			if rawToken[term] {
				matchType = models.MatchPartial
			} else {
				matchType = models.MatchSynonym
			}
		}
	}

	category := strings.ToLower(item.Category)
	if raw != "" && category != "" && (strings.Contains(category, raw) || strings.Contains(raw, category)) {
		score += s.w.Category
	}

	craft := strings.ToLower(item.CraftType)
	if raw != "" && craft != "" && (strings.Contains(craft, raw) || strings.Contains(raw, craft)) {
		score += s.w.CraftType
	}

	if raw != "" && strings.Contains(strings.ToLower(item.ArtistName), raw) {
		score += s.w.Artist
	}

	for _, tag := range item.Tags {
		lt := strings.ToLower(tag)
		if raw != "" && strings.Contains(lt, raw) {
			score += s.w.TagWholeQuery
		}
		for term := range terms {
			if strings.Contains(lt, term) {
				score += s.w.TagPerTerm
				break
			}
		}
	}

	desc := strings.ToLower(item.Description)
	if desc != "" {
		for term := range terms {
			if strings.Contains(desc, term) {
				score += s.w.DescPerTerm
			}
		}
	}

	if item.Featured {
		score += s.w.Featured
	}

	switch {
	case item.Rating >= 4.5:
		score += s.w.RatingHigh
	case item.Rating >= 4.0:
		score += s.w.RatingGood
	}

	if item.Available && item.StockCount > 0 {
		score += s.w.InStock
	} else {
		score -= s.w.OutOfStockPenalty
	}

	return score, matchType
}
