package search

import (
	"strings"

	"github.com/likha-market/search-service/internal/catalog"
	"github.com/likha-market/search-service/internal/models"
)

// PlanBuilder turns a search request into an execution plan: hard filters,
// a deliberately permissive OR candidate predicate (recall), the scoring
// annotation (precision), a sort policy with explicit tie-breaks, and
// capped pagination.
type PlanBuilder struct {
	scorer          *Scorer
	defaultPageSize int
	maxPageSize     int
}

func NewPlanBuilder(scorer *Scorer, defaultPageSize, maxPageSize int) *PlanBuilder {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize <= 0 || maxPageSize > 100 {
		maxPageSize = 100
	}
	return &PlanBuilder{
		scorer:          scorer,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// PageLimit normalizes pagination: page floored at 1, limit defaulted and
// capped.
func (b *PlanBuilder) PageLimit(req *models.SearchRequest) (int, int) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 {
		limit = b.defaultPageSize
	}
	if limit > b.maxPageSize {
		limit = b.maxPageSize
	}
	return page, limit
}

// BuildPlan assembles the full retrieval plan for one request. The terms
// must come from expanding req.Query so the candidate predicate and the
// scorer agree on the term set.
func (b *PlanBuilder) BuildPlan(req *models.SearchRequest, terms TermSet) catalog.Plan {
	page, limit := b.PageLimit(req)
	raw := strings.ToLower(strings.TrimSpace(req.Query))

	return catalog.Plan{
		Filter: b.buildFilter(req),
		Match:  buildMatch(raw, terms),
		Score: func(item models.CatalogItem) (float64, models.MatchType) {
			return b.scorer.Score(item, terms, req.Query)
		},
		Less:  lessFor(req.SortBy),
		Skip:  (page - 1) * limit,
		Limit: limit,
	}
}

// buildFilter ANDs the hard filters. Only active listings are searchable;
// stock level is a scoring concern, not a filter.
func (b *PlanBuilder) buildFilter(req *models.SearchRequest) func(models.CatalogItem) bool {
	return func(item models.CatalogItem) bool {
		if !item.Available {
			return false
		}
		if req.Category != "" && !strings.EqualFold(item.Category, req.Category) {
			return false
		}
		if req.CraftType != "" && !strings.EqualFold(item.CraftType, req.CraftType) {
			return false
		}
		if req.Barangay != "" && !strings.EqualFold(item.Barangay, req.Barangay) {
			return false
		}
		if req.MinPrice != nil && item.Price < *req.MinPrice {
			return false
		}
		if req.MaxPrice != nil && item.Price > *req.MaxPrice {
			return false
		}
		return true
	}
}

// buildMatch is the wide OR stage. Precision is restored by scoring, so a
// false positive here only costs a score computation.
func buildMatch(raw string, terms TermSet) func(models.CatalogItem) bool {
	return func(item models.CatalogItem) bool {
		name := strings.ToLower(item.Name)

		if raw != "" {
			if strings.Contains(name, raw) ||
				strings.Contains(strings.ToLower(item.Description), raw) ||
				strings.Contains(strings.ToLower(item.Category), raw) ||
				strings.Contains(strings.ToLower(item.ArtistName), raw) ||
				strings.Contains(strings.ToLower(item.CraftType), raw) {
				return true
			}
			for _, tag := range item.Tags {
				if strings.Contains(strings.ToLower(tag), raw) {
					return true
				}
			}
			for _, kw := range item.SearchKeywords {
				if strings.Contains(strings.ToLower(kw), raw) {
					return true
				}
			}
		}

		for term := range terms {
			if strings.Contains(name, term) {
				return true
			}
			for _, tag := range item.Tags {
				if strings.Contains(strings.ToLower(tag), term) {
					return true
				}
			}
		}

		return false
	}
}

// lessFor returns the comparator for a sort mode. Every mode ends with an
// item-id tie-break so page boundaries are stable across identical runs.
func lessFor(mode models.SortMode) func(a, b models.ScoredResult) bool {
	switch mode {
	case models.SortPriceAsc:
		return chain(
			func(a, b models.ScoredResult) int { return cmpFloat(a.Item.Price, b.Item.Price) },
			func(a, b models.ScoredResult) int { return cmpFloat(b.Score, a.Score) },
		)
	case models.SortPriceDesc:
		return chain(
			func(a, b models.ScoredResult) int { return cmpFloat(b.Item.Price, a.Item.Price) },
			func(a, b models.ScoredResult) int { return cmpFloat(b.Score, a.Score) },
		)
	case models.SortRating:
		return chain(
			func(a, b models.ScoredResult) int { return cmpFloat(b.Item.Rating, a.Item.Rating) },
			func(a, b models.ScoredResult) int { return cmpFloat(b.Score, a.Score) },
		)
	case models.SortNewest:
		return chain(
			func(a, b models.ScoredResult) int {
				if a.Item.CreatedAt.After(b.Item.CreatedAt) {
					return -1
				}
				if b.Item.CreatedAt.After(a.Item.CreatedAt) {
					return 1
				}
				return 0
			},
			func(a, b models.ScoredResult) int { return cmpFloat(b.Score, a.Score) },
		)
	case models.SortPopularity:
		return chain(
			func(a, b models.ScoredResult) int { return cmpFloat(b.Item.PopularityScore, a.Item.PopularityScore) },
			func(a, b models.ScoredResult) int { return cmpInt(b.Item.ReviewCount, a.Item.ReviewCount) },
			func(a, b models.ScoredResult) int { return cmpFloat(b.Score, a.Score) },
		)
	default: // relevance
		return chain(
			func(a, b models.ScoredResult) int { return cmpFloat(b.Score, a.Score) },
			func(a, b models.ScoredResult) int { return cmpFloat(b.Item.Rating, a.Item.Rating) },
		)
	}
}

// chain builds a lexicographic comparator with a final id tie-break.
func chain(keys ...func(a, b models.ScoredResult) int) func(a, b models.ScoredResult) bool {
	return func(a, b models.ScoredResult) bool {
		for _, key := range keys {
			if c := key(a, b); c != 0 {
				return c < 0
			}
		}
		return a.Item.ID < b.Item.ID
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
