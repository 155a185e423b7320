package search

import (
	"testing"
)

func TestSuggestCorrection_FuzzyToken(t *testing.T) {
	c := NewCorrector(testDictionary(), 0.75)

	// "baskit" is one edit from "basket" (similarity 5/6).
	got := c.SuggestCorrection("baskit")
	if got != "basket" {
		t.Errorf("expected 'basket', got %q", got)
	}
}

func TestSuggestCorrection_KnownVariant(t *testing.T) {
	c := NewCorrector(testDictionary(), 0.75)

	// A listed variant maps straight to its canonical, no fuzzy scan.
	got := c.SuggestCorrection("potery")
	if got != "pottery" {
		t.Errorf("expected 'pottery', got %q", got)
	}
}

func TestSuggestCorrection_AlreadyCorrect(t *testing.T) {
	c := NewCorrector(testDictionary(), 0.75)

	// A query that is already canonical must yield "", not a copy.
	got := c.SuggestCorrection("pottery")
	if got != "" {
		t.Errorf("expected empty correction for correct query, got %q", got)
	}
}

func TestSuggestCorrection_NoCloseMatch(t *testing.T) {
	c := NewCorrector(testDictionary(), 0.75)

	got := c.SuggestCorrection("xylophone")
	if got != "" {
		t.Errorf("expected no correction for unrelated token, got %q", got)
	}
}

func TestSuggestCorrection_MultiToken(t *testing.T) {
	c := NewCorrector(testDictionary(), 0.75)

	// Only the misspelled token changes; correct tokens pass through.
	got := c.SuggestCorrection("handwoven baskit")
	if got != "handwoven basket" {
		t.Errorf("expected 'handwoven basket', got %q", got)
	}
}

func TestSuggestCorrection_EmptyQuery(t *testing.T) {
	c := NewCorrector(testDictionary(), 0.75)

	if got := c.SuggestCorrection("   "); got != "" {
		t.Errorf("expected empty correction for blank query, got %q", got)
	}
}

func TestSuggestCorrection_CaseInsensitive(t *testing.T) {
	c := NewCorrector(testDictionary(), 0.75)

	got := c.SuggestCorrection("BASKIT")
	if got != "basket" {
		t.Errorf("expected 'basket', got %q", got)
	}
}

func TestSuggestCorrection_NoContainmentShortcut(t *testing.T) {
	// A short token contained in a canonical must not be corrected into it;
	// the corrector uses the pure edit-distance ratio.
	c := NewCorrector(testDictionary(), 0.75)

	if got := c.SuggestCorrection("pot"); got != "" {
		t.Errorf("expected no correction for 'pot', got %q", got)
	}
}

func TestSuggestCorrection_Idempotent(t *testing.T) {
	c := NewCorrector(testDictionary(), 0.75)

	first := c.SuggestCorrection("baskit")
	if first == "" {
		t.Fatal("expected a correction")
	}
	// Correcting the corrected query yields nothing new.
	if second := c.SuggestCorrection(first); second != "" {
		t.Errorf("correction should be idempotent, got %q", second)
	}
}

func TestNewCorrector_DefaultThreshold(t *testing.T) {
	c := NewCorrector(testDictionary(), 0)
	if c.threshold != 0.75 {
		t.Errorf("expected default threshold 0.75, got %f", c.threshold)
	}
}
