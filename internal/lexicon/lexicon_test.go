package lexicon

import (
	"os"
	"path/filepath"
	"testing"
)

func testTables() Tables {
	return Tables{
		SpellingVariants: map[string][]string{
			"basket":  {"baskets", "bascket"},
			"pottery": {"potery", "ceramics"},
		},
		Categories: map[string][]string{
			"home-decor": {"home decor", "decor"},
		},
		CraftTypes: map[string][]string{
			"weaving": {"woven", "habi"},
		},
	}
}

func TestLoad_EmbeddedDefaults(t *testing.T) {
	d, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Canonicals()) == 0 {
		t.Error("expected embedded tables to define canonical terms")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/lexicon.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_FromFile(t *testing.T) {
	content := `
spelling_variants:
  basket:
    - baskets
categories:
  fashion:
    - apparel
`
	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c, ok := d.Canonical("baskets"); !ok || c != "basket" {
		t.Errorf("expected baskets -> basket, got %q (%v)", c, ok)
	}
	if c, ok := d.Canonical("apparel"); !ok || c != "fashion" {
		t.Errorf("expected apparel -> fashion, got %q (%v)", c, ok)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	if err := os.WriteFile(path, []byte("{{bad"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestExpansions(t *testing.T) {
	d := New(testTables())

	tests := []struct {
		name string
		term string
		want []string
	}{
		{"canonical term", "basket", []string{"basket", "baskets", "bascket"}},
		{"variant term", "potery", []string{"pottery", "potery", "ceramics"}},
		{"craft variant", "habi", []string{"weaving", "woven", "habi"}},
		{"unknown term", "airplane", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Expansions(tt.term)
			if len(got) != len(tt.want) {
				t.Fatalf("Expansions(%q) = %v, want %v", tt.term, got, tt.want)
			}
			have := make(map[string]bool, len(got))
			for _, g := range got {
				have[g] = true
			}
			for _, w := range tt.want {
				if !have[w] {
					t.Errorf("Expansions(%q) = %v, missing %q", tt.term, got, w)
				}
			}
		})
	}
}

func TestExpansions_CaseInsensitive(t *testing.T) {
	d := New(testTables())

	got := d.Expansions("BASKET")
	if len(got) == 0 {
		t.Fatal("expected expansions for uppercased canonical")
	}
	if got[0] != "basket" {
		t.Errorf("expected canonical first, got %v", got)
	}
}

func TestCanonical(t *testing.T) {
	d := New(testTables())

	tests := []struct {
		term     string
		want     string
		wantOK   bool
	}{
		{"basket", "basket", true},
		{"bascket", "basket", true},
		{"Ceramics", "pottery", true},
		{"decor", "home-decor", true},
		{"airplane", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got, ok := d.Canonical(tt.term)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Canonical(%q) = %q, %v; want %q, %v", tt.term, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCanonicals_Sorted(t *testing.T) {
	d := New(testTables())

	canonicals := d.Canonicals()
	if len(canonicals) != 4 {
		t.Fatalf("expected 4 canonicals, got %d: %v", len(canonicals), canonicals)
	}
	for i := 1; i < len(canonicals); i++ {
		if canonicals[i-1] >= canonicals[i] {
			t.Errorf("canonicals not sorted: %v", canonicals)
		}
	}
}

func TestEmbeddedTables_NoSelfVariants(t *testing.T) {
	// The corrector relies on variants resolving to a different canonical.
	d, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	for _, canonical := range d.Canonicals() {
		if got, ok := d.Canonical(canonical); !ok || got != canonical {
			t.Errorf("canonical %q should map to itself, got %q (%v)", canonical, got, ok)
		}
	}
}
