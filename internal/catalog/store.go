// Package catalog is the search core's view of the product catalog. The
// store of record lives elsewhere; this package keeps a queryable in-memory
// snapshot fed by the Firestore loader and the Kafka change feed.
package catalog

import (
	"context"
	"errors"

	"github.com/likha-market/search-service/internal/models"
)

// ErrUnavailable is returned when the catalog cannot serve a lookup. The
// API layer maps it to a generic failure without leaking internals.
var ErrUnavailable = errors.New("catalog unavailable")

// Plan is a full retrieval plan built by the search pipeline: hard filters,
// the broad OR candidate predicate, the per-item score annotation, the sort
// policy and pagination. Count runs only the filter and match stages.
type Plan struct {
	// Filter is the AND of all hard filters. Nil means no filtering.
	Filter func(models.CatalogItem) bool
	// Match is the broad candidate-selection predicate. Nil matches all.
	Match func(models.CatalogItem) bool
	// Score annotates each candidate with its relevance score and match
	// type. Nil leaves candidates unscored.
	Score func(models.CatalogItem) (float64, models.MatchType)
	// Less orders scored candidates. Nil keeps insertion order.
	Less func(a, b models.ScoredResult) bool

	Skip  int
	Limit int
}

// Store is the query capability the search core consumes.
type Store interface {
	// Run executes the full plan and returns one page of scored results.
	Run(ctx context.Context, plan Plan) ([]models.ScoredResult, error)
	// Count executes only the filter and match stages so pagination totals
	// are not clipped by skip/limit.
	Count(ctx context.Context, plan Plan) (int, error)
	// ByIDs returns the items for the given ids, skipping unknown ones.
	ByIDs(ctx context.Context, ids []string) ([]models.CatalogItem, error)
	// Sample returns up to n random available items matching category
	// and/or craft type (empty means any), excluding the given ids.
	Sample(ctx context.Context, category, craftType string, exclude []string, n int) ([]models.CatalogItem, error)
	// Items returns all items in the snapshot.
	Items(ctx context.Context) ([]models.CatalogItem, error)
	// NamePrefix returns up to limit items whose lowercased name starts
	// with prefix.
	NamePrefix(ctx context.Context, prefix string, limit int) ([]models.CatalogItem, error)
}
