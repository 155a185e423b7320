// Package lexicon holds the static spelling-variant and synonym tables used
// for query expansion and spelling correction. The tables are loaded once at
// startup and never mutated, so they are shared across requests without
// synchronization.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultTables []byte

// Tables is the on-disk YAML shape: canonical term -> variants, per bucket.
type Tables struct {
	SpellingVariants map[string][]string `yaml:"spelling_variants"`
	Categories       map[string][]string `yaml:"categories"`
	CraftTypes       map[string][]string `yaml:"craft_types"`
}

// Dictionary is the read-only lookup structure built from Tables. All keys
// and variants are lowercased at build time; lookups lowercase their input.
type Dictionary struct {
	buckets []map[string][]string
	// variant -> canonical, across all buckets. A variant listed under two
	// canonicals keeps the first one in bucket order.
	canonicalOf map[string]string
	canonicals  []string
}

// Load reads tables from path, or builds the embedded defaults when path is
// empty.
func Load(path string) (*Dictionary, error) {
	data := defaultTables
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading lexicon file %s: %w", path, err)
		}
		data = b
	}

	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing lexicon tables: %w", err)
	}
	return New(t), nil
}

// New builds a Dictionary from in-memory tables. Tests use this with small
// fixtures instead of the embedded defaults.
func New(t Tables) *Dictionary {
	d := &Dictionary{
		canonicalOf: make(map[string]string),
	}

	for _, raw := range []map[string][]string{t.SpellingVariants, t.Categories, t.CraftTypes} {
		bucket := make(map[string][]string, len(raw))
		for canonical, variants := range raw {
			canonical = strings.ToLower(canonical)
			lowered := make([]string, 0, len(variants))
			for _, v := range variants {
				v = strings.ToLower(v)
				lowered = append(lowered, v)
				if _, seen := d.canonicalOf[v]; !seen {
					d.canonicalOf[v] = canonical
				}
			}
			bucket[canonical] = lowered
			if _, seen := d.canonicalOf[canonical]; !seen {
				d.canonicalOf[canonical] = canonical
			}
		}
		d.buckets = append(d.buckets, bucket)
	}

	seen := make(map[string]bool)
	for _, bucket := range d.buckets {
		for canonical := range bucket {
			if !seen[canonical] {
				seen[canonical] = true
				d.canonicals = append(d.canonicals, canonical)
			}
		}
	}
	sort.Strings(d.canonicals)

	return d
}

// Expansions returns the canonical term plus all its variants for every
// bucket in which term appears, either as a canonical or as a variant.
// Returns nil when the term is unknown.
func (d *Dictionary) Expansions(term string) []string {
	term = strings.ToLower(term)
	canonical, ok := d.canonicalOf[term]
	if !ok {
		return nil
	}

	out := []string{canonical}
	for _, bucket := range d.buckets {
		out = append(out, bucket[canonical]...)
	}
	return out
}

// Canonical maps a variant to its canonical term. The second return is false
// for unknown terms. A canonical term maps to itself.
func (d *Dictionary) Canonical(term string) (string, bool) {
	c, ok := d.canonicalOf[strings.ToLower(term)]
	return c, ok
}

// Canonicals returns all canonical terms in sorted order. The corrector
// scans this list with the fuzzy matcher; callers must not mutate it.
func (d *Dictionary) Canonicals() []string {
	return d.canonicals
}
