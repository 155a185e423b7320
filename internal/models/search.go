package models

import "time"

type SortMode string

const (
	SortRelevance  SortMode = "relevance"
	SortPriceAsc   SortMode = "price_asc"
	SortPriceDesc  SortMode = "price_desc"
	SortRating     SortMode = "rating"
	SortNewest     SortMode = "newest"
	SortPopularity SortMode = "popularity"
)

// Valid reports whether the sort mode is one the pipeline understands.
// Unknown modes fall back to relevance rather than failing the request.
func (s SortMode) Valid() bool {
	switch s {
	case SortRelevance, SortPriceAsc, SortPriceDesc, SortRating, SortNewest, SortPopularity:
		return true
	}
	return false
}

// MatchType explains why an item matched, independent of its score.
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchPartial MatchType = "partial"
	MatchFuzzy   MatchType = "fuzzy"
	MatchSynonym MatchType = "synonym"
)

// CatalogItem is the read-only product document owned by the catalog
// collaborator. PopularityScore is maintained by the analytics layer; the
// search core only sorts on it.
type CatalogItem struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Category        string    `json:"category,omitempty"`
	CraftType       string    `json:"craft_type,omitempty"`
	Barangay        string    `json:"barangay,omitempty"`
	ArtistName      string    `json:"artist_name,omitempty"`
	Price           float64   `json:"price"`
	Tags            []string  `json:"tags,omitempty"`
	SearchKeywords  []string  `json:"search_keywords,omitempty"`
	StockCount      int       `json:"stock_count"`
	Available       bool      `json:"available"`
	Featured        bool      `json:"featured,omitempty"`
	Rating          float64   `json:"rating"`
	ReviewCount     int       `json:"review_count"`
	PopularityScore float64   `json:"popularity_score,omitempty"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// SearchRequest is immutable per request. MinPrice/MaxPrice are pointers so
// "no bound" is distinguishable from zero.
type SearchRequest struct {
	Query      string   `json:"query"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	Category   string   `json:"category,omitempty"`
	CraftType  string   `json:"craft_type,omitempty"`
	Barangay   string   `json:"barangay,omitempty"`
	MinPrice   *float64 `json:"min_price,omitempty"`
	MaxPrice   *float64 `json:"max_price,omitempty"`
	SortBy     SortMode `json:"sort_by,omitempty"`
	Fuzzy      bool     `json:"fuzzy"`
	ForceFresh bool     `json:"force_fresh,omitempty"`
	RequestID  string   `json:"request_id,omitempty"`
}

// ScoredResult is created fresh per request and never persisted.
type ScoredResult struct {
	Item      CatalogItem `json:"item"`
	Score     float64     `json:"score"`
	MatchType MatchType   `json:"match_type"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type SearchResponse struct {
	Results      []ScoredResult   `json:"results"`
	Suggestions  []Suggestion     `json:"suggestions,omitempty"`
	TotalResults int              `json:"totalResults"`
	Page         int              `json:"page"`
	TotalPages   int              `json:"totalPages"`
	SearchTimeMs int64            `json:"searchTime"`
	Query        string           `json:"query"`
	DidYouMean   string           `json:"didYouMean,omitempty"`
	Categories   []CategoryCount  `json:"categories"`
	Metadata     ResponseMetadata `json:"metadata"`
}

type ResponseMetadata struct {
	RequestID string `json:"request_id"`
	Source    string `json:"source"`
	CacheHit  bool   `json:"cache_hit"`
	Stale     bool   `json:"stale"`
}

type SuggestionType string

const (
	SuggestProduct      SuggestionType = "product"
	SuggestCategory     SuggestionType = "category"
	SuggestCraftType    SuggestionType = "craftType"
	SuggestArtist       SuggestionType = "artist"
	SuggestKeyword      SuggestionType = "keyword"
	SuggestTrending     SuggestionType = "trending"
	SuggestPersonalized SuggestionType = "personalized"
)

// Suggestion is a single autocomplete entry. Recomputed per request.
type Suggestion struct {
	Type      SuggestionType `json:"type"`
	Text      string         `json:"text"`
	ItemID    string         `json:"item_id,omitempty"`
	Count     int            `json:"count,omitempty"`
	Price     float64        `json:"price,omitempty"`
	Rating    float64        `json:"rating,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Thumbnail string         `json:"thumbnail,omitempty"`
}

// Personalization carries the caller-supplied context for the no-query
// suggestion mode. All fields are optional; malformed entries are skipped,
// never fatal.
type Personalization struct {
	RecentViews    []string `json:"recent_views,omitempty"`
	RecentSearches []string `json:"recent_searches,omitempty"`
	Interests      []string `json:"interests,omitempty"`
}

// ChangeEvent is one catalog mutation from the change feed.
type ChangeEvent struct {
	Type      string       `json:"type"` // CREATE, UPDATE, DELETE
	ItemID    string       `json:"item_id"`
	Item      *CatalogItem `json:"item,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Version   int64        `json:"version"`
}

type AnalyticsEvent struct {
	EventType   string         `json:"event_type"`
	QueryHash   string         `json:"query_hash"`
	QueryType   string         `json:"query_type"`
	DurationMs  float64        `json:"duration_ms"`
	TotalHits   int64          `json:"total_hits"`
	Corrected   bool           `json:"corrected"`
	Timestamp   time.Time      `json:"timestamp"`
	TraceID     string         `json:"trace_id"`
	Source      string         `json:"source"`
	ExtraFields map[string]any `json:"extra_fields,omitempty"`
}
