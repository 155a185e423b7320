package search

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/likha-market/search-service/internal/catalog"
	"github.com/likha-market/search-service/internal/models"
	"github.com/likha-market/search-service/internal/observability"
)

// SuggestionEngine answers type-ahead requests. It runs on a lighter path
// than the main pipeline and never fails a request for a partial-source
// error; a broken source is logged, counted and skipped.
type SuggestionEngine struct {
	store        catalog.Store
	defaultLimit int
	perSourceCap int
	fuzzyThresh  float64
	logger       *zap.Logger
}

func NewSuggestionEngine(store catalog.Store, defaultLimit, perSourceCap int, fuzzyThreshold float64, logger *zap.Logger) *SuggestionEngine {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if perSourceCap <= 0 {
		perSourceCap = 5
	}
	if fuzzyThreshold <= 0 {
		fuzzyThreshold = DefaultFuzzyThreshold
	}
	return &SuggestionEngine{
		store:        store,
		defaultLimit: defaultLimit,
		perSourceCap: perSourceCap,
		fuzzyThresh:  fuzzyThreshold,
		logger:       logger,
	}
}

// Suggest returns at most limit deduplicated suggestions. Queries shorter
// than two characters fall through to the personalized/trending mode.
func (e *SuggestionEngine) Suggest(ctx context.Context, query string, p models.Personalization, limit int) []models.Suggestion {
	if limit <= 0 {
		limit = e.defaultLimit
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) < 2 {
		return e.personalized(ctx, p, limit)
	}
	return e.forQuery(ctx, q, limit)
}

func (e *SuggestionEngine) forQuery(ctx context.Context, q string, limit int) []models.Suggestion {
	items, err := e.store.Items(ctx)
	if err != nil {
		e.sourceFailed("catalog", err)
		return []models.Suggestion{}
	}

	dedup := newDeduper(limit)

	products, productNames := e.productSource(ctx, q, items)
	for _, s := range products {
		dedup.add(s)
	}
	for _, s := range e.categorySource(q, items) {
		dedup.add(s)
	}
	for _, s := range e.craftSource(q, items) {
		dedup.add(s)
	}
	for _, s := range e.artistSource(q, items) {
		dedup.add(s)
	}
	for _, s := range e.keywordSource(q, items, productNames) {
		dedup.add(s)
	}

	return dedup.take()
}

// productSource gathers name matches, prefix matches first. Prefix lookups
// go through the snapshot's name trie; substring matches come from the
// scan. Returns the found names so the keyword source can dedup against
// them.
func (e *SuggestionEngine) productSource(ctx context.Context, q string, items []models.CatalogItem) ([]models.Suggestion, map[string]bool) {
	names := make(map[string]bool)

	type ranked struct {
		s         models.Suggestion
		relevance float64
	}
	var out []ranked

	add := func(item models.CatalogItem, prefix bool) {
		key := strings.ToLower(item.Name)
		if item.Name == "" || names[key] || !item.Available {
			return
		}
		names[key] = true

		relevance := 50.0
		if prefix {
			relevance = 100
		}
		relevance += item.Rating * 10
		if rc := item.ReviewCount; rc > 0 {
			if rc > 50 {
				rc = 50
			}
			relevance += float64(rc)
		}
		out = append(out, ranked{
			s: models.Suggestion{
				Type:      models.SuggestProduct,
				Text:      item.Name,
				ItemID:    item.ID,
				Price:     item.Price,
				Rating:    item.Rating,
				Thumbnail: item.ThumbnailURL,
			},
			relevance: relevance,
		})
	}

	prefixed, err := e.store.NamePrefix(ctx, q, e.perSourceCap)
	if err != nil {
		e.sourceFailed("product_prefix", err)
	} else {
		for _, item := range prefixed {
			add(item, true)
		}
	}

	for _, item := range items {
		if len(out) >= e.perSourceCap*2 {
			break
		}
		if strings.Contains(strings.ToLower(item.Name), q) {
			add(item, strings.HasPrefix(strings.ToLower(item.Name), q))
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].relevance > out[j].relevance })
	if len(out) > e.perSourceCap {
		out = out[:e.perSourceCap]
	}

	suggestions := make([]models.Suggestion, len(out))
	for i, r := range out {
		suggestions[i] = r.s
	}
	return suggestions, names
}

func (e *SuggestionEngine) categorySource(q string, items []models.CatalogItem) []models.Suggestion {
	return e.attributeSource(q, items, models.SuggestCategory, func(it models.CatalogItem) string { return it.Category })
}

func (e *SuggestionEngine) craftSource(q string, items []models.CatalogItem) []models.Suggestion {
	return e.attributeSource(q, items, models.SuggestCraftType, func(it models.CatalogItem) string { return it.CraftType })
}

func (e *SuggestionEngine) artistSource(q string, items []models.CatalogItem) []models.Suggestion {
	return e.attributeSource(q, items, models.SuggestArtist, func(it models.CatalogItem) string { return it.ArtistName })
}

// attributeSource collects distinct attribute values containing q, with the
// number of items carrying each value.
func (e *SuggestionEngine) attributeSource(q string, items []models.CatalogItem, typ models.SuggestionType, get func(models.CatalogItem) string) []models.Suggestion {
	counts := make(map[string]int)
	display := make(map[string]string)
	for _, item := range items {
		v := get(item)
		if v == "" {
			continue
		}
		lv := strings.ToLower(v)
		if !strings.Contains(lv, q) {
			continue
		}
		counts[lv]++
		if _, ok := display[lv]; !ok {
			display[lv] = v
		}
	}

	out := make([]models.Suggestion, 0, len(counts))
	for lv, n := range counts {
		out = append(out, models.Suggestion{Type: typ, Text: display[lv], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Text < out[j].Text
	})
	if len(out) > e.perSourceCap {
		out = out[:e.perSourceCap]
	}
	return out
}

// keywordSource matches tags and search keywords, with a fuzzy fallback so
// near-miss prefixes still suggest something. Entries that duplicate a
// product name already found are dropped.
func (e *SuggestionEngine) keywordSource(q string, items []models.CatalogItem, productNames map[string]bool) []models.Suggestion {
	seen := make(map[string]bool)
	var out []models.Suggestion
	for _, item := range items {
		keywords := make([]string, 0, len(item.Tags)+len(item.SearchKeywords))
		keywords = append(keywords, item.Tags...)
		keywords = append(keywords, item.SearchKeywords...)
		for _, kw := range keywords {
			lk := strings.ToLower(kw)
			if lk == "" || seen[lk] || productNames[lk] {
				continue
			}
			if !strings.Contains(lk, q) && !Similar(q, lk, e.fuzzyThresh) {
				continue
			}
			seen[lk] = true
			out = append(out, models.Suggestion{Type: models.SuggestKeyword, Text: kw})
			if len(out) >= e.perSourceCap {
				return out
			}
		}
	}
	return out
}

// personalized handles the no-query mode: trending first, then items
// similar to recent views, then interest-tag matches, then popular
// categories as filler. Malformed personalization input is skipped, never
// fatal.
func (e *SuggestionEngine) personalized(ctx context.Context, p models.Personalization, limit int) []models.Suggestion {
	items, err := e.store.Items(ctx)
	if err != nil {
		e.sourceFailed("catalog", err)
		return []models.Suggestion{}
	}

	dedup := newDeduper(limit)

	for _, s := range e.trendingSource(items) {
		dedup.add(s)
	}
	for _, s := range e.recentViewSource(ctx, p.RecentViews) {
		dedup.add(s)
	}
	for _, s := range e.interestSource(p.Interests, items) {
		dedup.add(s)
	}
	for _, s := range e.popularCategorySource(items) {
		dedup.add(s)
	}

	return dedup.take()
}

func (e *SuggestionEngine) trendingSource(items []models.CatalogItem) []models.Suggestion {
	type ranked struct {
		s         models.Suggestion
		composite float64
	}
	var out []ranked
	for _, item := range items {
		if !item.Available || item.Rating < 3.5 {
			continue
		}
		rc := item.ReviewCount
		if rc > 100 {
			rc = 100
		}
		out = append(out, ranked{
			s: models.Suggestion{
				Type:      models.SuggestTrending,
				Text:      item.Name,
				ItemID:    item.ID,
				Price:     item.Price,
				Rating:    item.Rating,
				Reason:    "Popular right now",
				Thumbnail: item.ThumbnailURL,
			},
			composite: item.Rating + float64(rc)/25,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].composite > out[j].composite })
	if len(out) > e.perSourceCap {
		out = out[:e.perSourceCap]
	}
	suggestions := make([]models.Suggestion, len(out))
	for i, r := range out {
		suggestions[i] = r.s
	}
	return suggestions
}

// recentViewSource surfaces items sharing a category or craft type with
// recently viewed products, excluding the viewed ones.
func (e *SuggestionEngine) recentViewSource(ctx context.Context, viewIDs []string) []models.Suggestion {
	if len(viewIDs) == 0 {
		return nil
	}

	viewed, err := e.store.ByIDs(ctx, viewIDs)
	if err != nil {
		e.sourceFailed("recent_views", err)
		return nil
	}

	var out []models.Suggestion
	for _, v := range viewed {
		similar, err := e.store.Sample(ctx, v.Category, v.CraftType, viewIDs, 2)
		if err != nil {
			e.sourceFailed("recent_views", err)
			continue
		}
		for _, item := range similar {
			out = append(out, models.Suggestion{
				Type:      models.SuggestPersonalized,
				Text:      item.Name,
				ItemID:    item.ID,
				Price:     item.Price,
				Rating:    item.Rating,
				Reason:    "Similar to items you viewed",
				Thumbnail: item.ThumbnailURL,
			})
			if len(out) >= e.perSourceCap {
				return out
			}
		}
	}
	return out
}

func (e *SuggestionEngine) interestSource(interests []string, items []models.CatalogItem) []models.Suggestion {
	if len(interests) == 0 {
		return nil
	}

	var out []models.Suggestion
	for _, item := range items {
		if !item.Available {
			continue
		}
		if !matchesInterest(item, interests) {
			continue
		}
		out = append(out, models.Suggestion{
			Type:      models.SuggestPersonalized,
			Text:      item.Name,
			ItemID:    item.ID,
			Price:     item.Price,
			Rating:    item.Rating,
			Reason:    "Matches your interests",
			Thumbnail: item.ThumbnailURL,
		})
		if len(out) >= e.perSourceCap {
			break
		}
	}
	return out
}

func matchesInterest(item models.CatalogItem, interests []string) bool {
	for _, interest := range interests {
		li := strings.ToLower(strings.TrimSpace(interest))
		if li == "" {
			continue
		}
		if strings.Contains(strings.ToLower(item.Category), li) ||
			strings.Contains(strings.ToLower(item.CraftType), li) {
			return true
		}
		for _, tag := range item.Tags {
			if strings.Contains(strings.ToLower(tag), li) {
				return true
			}
		}
	}
	return false
}

func (e *SuggestionEngine) popularCategorySource(items []models.CatalogItem) []models.Suggestion {
	return e.attributeSource("", items, models.SuggestCategory, func(it models.CatalogItem) string { return it.Category })
}

func (e *SuggestionEngine) sourceFailed(source string, err error) {
	observability.SuggestionSourceErrors.WithLabelValues(source).Inc()
	e.logger.Warn("suggestion source skipped", zap.String("source", source), zap.Error(err))
}

// deduper collects suggestions in priority order, dropping case-insensitive
// duplicate display texts, until the cap is reached.
type deduper struct {
	seen  map[string]bool
	out   []models.Suggestion
	limit int
}

func newDeduper(limit int) *deduper {
	return &deduper{seen: make(map[string]bool), out: make([]models.Suggestion, 0, limit), limit: limit}
}

func (d *deduper) add(s models.Suggestion) {
	if len(d.out) >= d.limit {
		return
	}
	key := strings.ToLower(s.Text)
	if key == "" || d.seen[key] {
		return
	}
	d.seen[key] = true
	d.out = append(d.out, s)
}

func (d *deduper) take() []models.Suggestion {
	return d.out
}
