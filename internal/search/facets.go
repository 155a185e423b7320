package search

import (
	"sort"

	"github.com/likha-market/search-service/internal/models"
)

// CountByCategory aggregates an already-fetched result set into category
// counts, largest first. Ties break alphabetically so the order is stable.
func CountByCategory(results []models.ScoredResult) []models.CategoryCount {
	counts := make(map[string]int)
	for _, r := range results {
		if r.Item.Category != "" {
			counts[r.Item.Category]++
		}
	}

	out := make([]models.CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, models.CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}
