package search

import (
	"sort"
	"strings"

	"github.com/likha-market/search-service/internal/lexicon"
)

// TermSet is a deduplicated set of lowercase query terms. It always contains
// every token of the raw query it was expanded from.
type TermSet map[string]struct{}

func (ts TermSet) Contains(term string) bool {
	_, ok := ts[strings.ToLower(term)]
	return ok
}

func (ts TermSet) add(term string) {
	if term != "" {
		ts[term] = struct{}{}
	}
}

// Terms returns the set in sorted order for deterministic iteration.
func (ts TermSet) Terms() []string {
	out := make([]string, 0, len(ts))
	for t := range ts {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Expander widens a raw query into a term set using the dictionary's
// variant and synonym tables.
type Expander struct {
	dict *lexicon.Dictionary
}

func NewExpander(dict *lexicon.Dictionary) *Expander {
	return &Expander{dict: dict}
}

// Expand lowercases and tokenizes the query, then adds the canonical term
// and all variants for every token found in the dictionary. The result is
// always a superset of the raw token set.
func (e *Expander) Expand(query string) TermSet {
	ts := make(TermSet)
	for _, token := range strings.Fields(strings.ToLower(query)) {
		ts.add(token)
		for _, exp := range e.dict.Expansions(token) {
			ts.add(exp)
		}
	}
	return ts
}
