package catalog

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/tchap/go-patricia/v2/patricia"
	"go.uber.org/zap"

	"github.com/likha-market/search-service/internal/models"
	"github.com/likha-market/search-service/internal/observability"
)

// Snapshot is an in-memory copy of the catalog implementing Store. Reads
// are lock-shared across requests; writes come from the loader (full
// replace) and the change feed (single-item apply).
type Snapshot struct {
	mu     sync.RWMutex
	items  map[string]models.CatalogItem
	names  *patricia.Trie // lowercase name prefix -> []item id
	logger *zap.Logger
}

func NewSnapshot(logger *zap.Logger) *Snapshot {
	return &Snapshot{
		items:  make(map[string]models.CatalogItem),
		names:  patricia.NewTrie(),
		logger: logger,
	}
}

// ReplaceAll swaps in a freshly loaded catalog.
func (s *Snapshot) ReplaceAll(items []models.CatalogItem) {
	next := make(map[string]models.CatalogItem, len(items))
	trie := patricia.NewTrie()
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		next[item.ID] = item
		trieInsert(trie, item)
	}

	s.mu.Lock()
	s.items = next
	s.names = trie
	s.mu.Unlock()

	observability.CatalogSnapshotSize.Set(float64(len(next)))
	s.logger.Info("catalog snapshot replaced", zap.Int("items", len(next)))
}

// Apply folds one change event into the snapshot.
func (s *Snapshot) Apply(event *models.ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Type {
	case "CREATE", "UPDATE":
		if event.Item == nil || event.Item.ID == "" {
			observability.CatalogSyncEventsTotal.WithLabelValues(strings.ToLower(event.Type), "invalid").Inc()
			return
		}
		if old, ok := s.items[event.Item.ID]; ok {
			trieRemove(s.names, old)
		}
		s.items[event.Item.ID] = *event.Item
		trieInsert(s.names, *event.Item)
	case "DELETE":
		if old, ok := s.items[event.ItemID]; ok {
			trieRemove(s.names, old)
			delete(s.items, event.ItemID)
		}
	default:
		observability.CatalogSyncEventsTotal.WithLabelValues("unknown", "invalid").Inc()
		return
	}

	observability.CatalogSyncEventsTotal.WithLabelValues(strings.ToLower(event.Type), "applied").Inc()
	observability.CatalogSnapshotSize.Set(float64(len(s.items)))
}

// Len returns the current item count.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Snapshot) Run(ctx context.Context, plan Plan) ([]models.ScoredResult, error) {
	candidates, err := s.collect(ctx, plan)
	if err != nil {
		return nil, err
	}

	scored := make([]models.ScoredResult, 0, len(candidates))
	for _, item := range candidates {
		r := models.ScoredResult{Item: item, MatchType: models.MatchFuzzy}
		if plan.Score != nil {
			r.Score, r.MatchType = plan.Score(item)
		}
		scored = append(scored, r)
	}

	if plan.Less != nil {
		sort.Slice(scored, func(i, j int) bool { return plan.Less(scored[i], scored[j]) })
	}

	if plan.Skip > 0 {
		if plan.Skip >= len(scored) {
			return []models.ScoredResult{}, nil
		}
		scored = scored[plan.Skip:]
	}
	if plan.Limit > 0 && len(scored) > plan.Limit {
		scored = scored[:plan.Limit]
	}
	return scored, nil
}

func (s *Snapshot) Count(ctx context.Context, plan Plan) (int, error) {
	candidates, err := s.collect(ctx, plan)
	if err != nil {
		return 0, err
	}
	return len(candidates), nil
}

// collect runs the filter and match stages. The context is checked
// periodically so superseded type-ahead requests stop scanning early.
func (s *Snapshot) collect(ctx context.Context, plan Plan) ([]models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CatalogItem, 0)
	i := 0
	for _, item := range s.items {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		i++
		if plan.Filter != nil && !plan.Filter(item) {
			continue
		}
		if plan.Match != nil && !plan.Match(item) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Snapshot) ByIDs(ctx context.Context, ids []string) ([]models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CatalogItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *Snapshot) Sample(ctx context.Context, category, craftType string, exclude []string, n int) ([]models.CatalogItem, error) {
	if n <= 0 {
		return nil, nil
	}

	excluded := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	s.mu.RLock()
	pool := make([]models.CatalogItem, 0)
	for _, item := range s.items {
		if excluded[item.ID] || !item.Available {
			continue
		}
		if category != "" && !strings.EqualFold(item.Category, category) {
			continue
		}
		if craftType != "" && !strings.EqualFold(item.CraftType, craftType) {
			continue
		}
		pool = append(pool, item)
	}
	s.mu.RUnlock()

	// Map iteration order is already unpredictable; the shuffle makes the
	// sample independent of it.
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > n {
		pool = pool[:n]
	}
	return pool, nil
}

func (s *Snapshot) Items(ctx context.Context) ([]models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CatalogItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	return out, nil
}

func (s *Snapshot) NamePrefix(ctx context.Context, prefix string, limit int) ([]models.CatalogItem, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.CatalogItem
	err := s.names.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, v patricia.Item) error {
		ids, ok := v.([]string)
		if !ok {
			return nil
		}
		for _, id := range ids {
			if item, ok := s.items[id]; ok {
				out = append(out, item)
				if len(out) >= limit {
					return errStopVisit
				}
			}
		}
		return nil
	})
	if err != nil && err != errStopVisit {
		return nil, err
	}
	return out, nil
}

var errStopVisit = errors.New("stop visit")

func trieInsert(trie *patricia.Trie, item models.CatalogItem) {
	key := patricia.Prefix(strings.ToLower(item.Name))
	if len(key) == 0 {
		return
	}
	if existing := trie.Get(key); existing != nil {
		if ids, ok := existing.([]string); ok {
			trie.Set(key, append(ids, item.ID))
			return
		}
	}
	trie.Set(key, []string{item.ID})
}

func trieRemove(trie *patricia.Trie, item models.CatalogItem) {
	key := patricia.Prefix(strings.ToLower(item.Name))
	existing := trie.Get(key)
	ids, ok := existing.([]string)
	if !ok {
		return
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != item.ID {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		trie.Delete(key)
		return
	}
	trie.Set(key, kept)
}
