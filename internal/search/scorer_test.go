package search

import (
	"testing"

	"github.com/likha-market/search-service/internal/models"
)

func inStockItem(name string) models.CatalogItem {
	return models.CatalogItem{
		ID:         "item-1",
		Name:       name,
		Available:  true,
		StockCount: 5,
	}
}

func scoreQuery(t *testing.T, item models.CatalogItem, query string) (float64, models.MatchType) {
	t.Helper()
	e := NewExpander(testDictionary())
	s := NewScorer(DefaultWeights())
	return s.Score(item, e.Expand(query), query)
}

func TestScore_ExactNameBeatsPrefixBeatsSubstring(t *testing.T) {
	exact, _ := scoreQuery(t, inStockItem("basket"), "basket")
	prefix, _ := scoreQuery(t, inStockItem("basket weave tray"), "basket")
	substring, _ := scoreQuery(t, inStockItem("woven basket"), "basket")

	if exact <= prefix {
		t.Errorf("exact (%f) should beat prefix (%f)", exact, prefix)
	}
	if prefix <= substring {
		t.Errorf("prefix (%f) should beat substring (%f)", prefix, substring)
	}
}

func TestScore_MatchTypes(t *testing.T) {
	tests := []struct {
		name  string
		item  models.CatalogItem
		query string
		want  models.MatchType
	}{
		{"exact name", inStockItem("basket"), "basket", models.MatchExact},
		{"name prefix", inStockItem("basket weave tray"), "basket", models.MatchExact},
		{"name substring", inStockItem("woven basket"), "basket", models.MatchPartial},
		{"synonym in name", inStockItem("ceramics bowl"), "pottery", models.MatchSynonym},
		{"no name hit", models.CatalogItem{ID: "x", Name: "shell lamp", Tags: []string{"basket"}, Available: true, StockCount: 1}, "basket", models.MatchFuzzy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mt := scoreQuery(t, tt.item, tt.query)
			if mt != tt.want {
				t.Errorf("expected match type %q, got %q", tt.want, mt)
			}
		})
	}
}

func TestScore_OutOfStockExactRanksBelowInStockPartial(t *testing.T) {
	outOfStock := models.CatalogItem{
		ID:        "a",
		Name:      "basket",
		Available: true,
	}
	partial := models.CatalogItem{
		ID:         "b",
		Name:       "woven basket",
		Available:  true,
		StockCount: 3,
	}

	exactScore, _ := scoreQuery(t, outOfStock, "basket")
	partialScore, _ := scoreQuery(t, partial, "basket")

	if exactScore >= partialScore {
		t.Errorf("out-of-stock exact match (%f) should rank below in-stock partial match (%f)",
			exactScore, partialScore)
	}
}

func TestScore_RatingTiers(t *testing.T) {
	base := inStockItem("woven basket")

	high := base
	high.Rating = 4.5
	good := base
	good.Rating = 4.0
	low := base
	low.Rating = 3.9

	highScore, _ := scoreQuery(t, high, "basket")
	goodScore, _ := scoreQuery(t, good, "basket")
	lowScore, _ := scoreQuery(t, low, "basket")

	w := DefaultWeights()
	if highScore-lowScore != w.RatingHigh {
		t.Errorf("expected high rating bonus %f, got %f", w.RatingHigh, highScore-lowScore)
	}
	if goodScore-lowScore != w.RatingGood {
		t.Errorf("expected good rating bonus %f, got %f", w.RatingGood, goodScore-lowScore)
	}
}

func TestScore_FeaturedBonus(t *testing.T) {
	plain := inStockItem("woven basket")
	featured := plain
	featured.Featured = true

	plainScore, _ := scoreQuery(t, plain, "basket")
	featuredScore, _ := scoreQuery(t, featured, "basket")

	if featuredScore-plainScore != DefaultWeights().Featured {
		t.Errorf("expected featured bonus %f, got %f",
			DefaultWeights().Featured, featuredScore-plainScore)
	}
}

func TestScore_TagBonusOncePerTag(t *testing.T) {
	// Multiple expanded terms hitting the same tag add TagPerTerm once.
	item := inStockItem("shell lamp")
	item.Tags = []string{"basket baskets"}

	withTag, _ := scoreQuery(t, item, "basket")

	noTag := inStockItem("shell lamp")
	noTagScore, _ := scoreQuery(t, noTag, "basket")

	w := DefaultWeights()
	got := withTag - noTagScore
	want := w.TagWholeQuery + w.TagPerTerm
	if got != want {
		t.Errorf("expected tag bonus %f, got %f", want, got)
	}
}

func TestScore_DescriptionPerTerm(t *testing.T) {
	item := inStockItem("shell lamp")
	item.Description = "a basket of baskets"

	withDesc, _ := scoreQuery(t, item, "basket")
	without, _ := scoreQuery(t, inStockItem("shell lamp"), "basket")

	w := DefaultWeights()
	// "basket", "baskets" and "bascket" are the expanded terms; the first
	// two appear in the description.
	want := 2 * w.DescPerTerm
	if withDesc-without != want {
		t.Errorf("expected description bonus %f, got %f", want, withDesc-without)
	}
}

func TestScore_CategoryAndCraftType(t *testing.T) {
	item := inStockItem("tabletop piece")
	item.Category = "pottery"
	item.CraftType = "pottery"

	withBoth, _ := scoreQuery(t, item, "pottery")
	without, _ := scoreQuery(t, inStockItem("tabletop piece"), "pottery")

	w := DefaultWeights()
	want := w.Category + w.CraftType
	if withBoth-without != want {
		t.Errorf("expected category+craft bonus %f, got %f", want, withBoth-without)
	}
}

func TestScore_ArtistName(t *testing.T) {
	item := inStockItem("woven tray")
	item.ArtistName = "Maria Basket-Santos"

	with, _ := scoreQuery(t, item, "basket")
	without, _ := scoreQuery(t, inStockItem("woven tray"), "basket")

	if with-without != DefaultWeights().Artist {
		t.Errorf("expected artist bonus %f, got %f", DefaultWeights().Artist, with-without)
	}
}

func TestScore_AddingSignalsNeverLowersScore(t *testing.T) {
	base := inStockItem("woven basket")
	baseScore, _ := scoreQuery(t, base, "basket")

	richer := base
	richer.Featured = true
	richer.Rating = 4.8
	richer.Tags = []string{"basket"}
	richer.Description = "handwoven basket"
	richerScore, _ := scoreQuery(t, richer, "basket")

	if richerScore <= baseScore {
		t.Errorf("adding positive signals should increase score: %f vs %f", richerScore, baseScore)
	}
}
