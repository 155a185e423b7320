package models

import "testing"

func TestSortModeValid(t *testing.T) {
	tests := []struct {
		mode SortMode
		want bool
	}{
		{SortRelevance, true},
		{SortPriceAsc, true},
		{SortPriceDesc, true},
		{SortRating, true},
		{SortNewest, true},
		{SortPopularity, true},
		{SortMode(""), false},
		{SortMode("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			if got := tt.mode.Valid(); got != tt.want {
				t.Errorf("SortMode(%q).Valid() = %v, want %v", tt.mode, got, tt.want)
			}
		})
	}
}

func TestMatchTypeConstants(t *testing.T) {
	tests := []struct {
		mt   MatchType
		want string
	}{
		{MatchExact, "exact"},
		{MatchPartial, "partial"},
		{MatchSynonym, "synonym"},
		{MatchFuzzy, "fuzzy"},
	}

	for _, tt := range tests {
		if string(tt.mt) != tt.want {
			t.Errorf("expected %q, got %q", tt.want, tt.mt)
		}
	}
}

func TestSuggestionTypeConstants(t *testing.T) {
	tests := []struct {
		st   SuggestionType
		want string
	}{
		{SuggestProduct, "product"},
		{SuggestCategory, "category"},
		{SuggestCraftType, "craftType"},
		{SuggestArtist, "artist"},
		{SuggestKeyword, "keyword"},
		{SuggestTrending, "trending"},
		{SuggestPersonalized, "personalized"},
	}

	for _, tt := range tests {
		if string(tt.st) != tt.want {
			t.Errorf("expected %q, got %q", tt.want, tt.st)
		}
	}
}

func TestSearchRequest_Defaults(t *testing.T) {
	req := SearchRequest{}
	if req.Query != "" {
		t.Error("expected empty query")
	}
	if req.Page != 0 {
		t.Error("expected zero page")
	}
	if req.Limit != 0 {
		t.Error("expected zero limit")
	}
	if req.MinPrice != nil || req.MaxPrice != nil {
		t.Error("expected nil price bounds")
	}
	if req.ForceFresh {
		t.Error("expected ForceFresh to be false")
	}
}

func TestSearchResponse_Defaults(t *testing.T) {
	resp := SearchResponse{}
	if resp.Results != nil {
		t.Error("expected nil results")
	}
	if resp.TotalResults != 0 {
		t.Error("expected zero total")
	}
	if resp.DidYouMean != "" {
		t.Error("expected empty didYouMean")
	}
	if resp.Metadata.CacheHit {
		t.Error("expected CacheHit to be false")
	}
}
