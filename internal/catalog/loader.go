package catalog

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/likha-market/search-service/internal/config"
	"github.com/likha-market/search-service/internal/models"
	"github.com/likha-market/search-service/internal/observability"
	"github.com/likha-market/search-service/internal/resilience"
)

// PopularitySource supplies per-item interaction counts for the popularity
// sort. The counters themselves are owned by the analytics layer.
type PopularitySource interface {
	ItemPopularity(ctx context.Context) (map[string]float64, error)
}

// Loader bulk-loads the catalog from Firestore into a Snapshot and keeps
// it refreshed. The change feed handles the deltas in between refreshes.
type Loader struct {
	client     *firestore.Client
	snapshot   *Snapshot
	breaker    *gobreaker.CircuitBreaker
	retry      resilience.RetryConfig
	popularity PopularitySource
	cfg        config.FirestoreConfig
	logger     *zap.Logger
}

// SetPopularitySource attaches an optional popularity reader consulted on
// each load. Call before the first Load.
func (l *Loader) SetPopularitySource(src PopularitySource) {
	l.popularity = src
}

func NewLoader(ctx context.Context, cfg config.FirestoreConfig, searchCfg config.SearchConfig, snapshot *Snapshot, logger *zap.Logger) (*Loader, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	logger.Info("firestore catalog source connected", zap.String("project", cfg.ProjectID))

	return &Loader{
		client:   client,
		snapshot: snapshot,
		breaker:  resilience.NewCircuitBreaker("firestore-catalog", searchCfg.CircuitBreaker, logger),
		retry: resilience.RetryConfig{
			MaxAttempts: searchCfg.Retry.MaxAttempts,
			InitialWait: searchCfg.Retry.InitialWait,
			MaxWait:     searchCfg.Retry.MaxWait,
			Multiplier:  searchCfg.Retry.Multiplier,
		},
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Load fetches the whole collection and swaps it into the snapshot.
func (l *Loader) Load(ctx context.Context) error {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "catalog.load",
		attribute.String("collection", l.cfg.Collection),
	)
	defer span.End()

	var items []models.CatalogItem
	err := resilience.Retry(ctx, l.retry, func() error {
		_, err := l.breaker.Execute(func() (any, error) {
			loaded, err := l.loadAll(ctx)
			if err != nil {
				return nil, err
			}
			items = loaded
			return nil, nil
		})
		return err
	})
	if err != nil {
		observability.CatalogLoadDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("loading catalog: %w", err)
	}

	if l.popularity != nil {
		scores, err := l.popularity.ItemPopularity(ctx)
		if err != nil {
			l.logger.Warn("popularity load failed, keeping document values", zap.Error(err))
		} else {
			for i := range items {
				if score, ok := scores[items[i].ID]; ok {
					items[i].PopularityScore = score
				}
			}
		}
	}

	l.snapshot.ReplaceAll(items)
	observability.CatalogLoadDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())
	return nil
}

// Refresh re-loads the catalog on the configured interval until ctx ends.
func (l *Loader) Refresh(ctx context.Context) {
	if l.cfg.RefreshInterval <= 0 {
		return
	}
	ticker := time.NewTicker(l.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Load(ctx); err != nil {
				l.logger.Warn("catalog refresh failed, keeping previous snapshot", zap.Error(err))
			}
		}
	}
}

func (l *Loader) loadAll(ctx context.Context) ([]models.CatalogItem, error) {
	pageSize := l.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 500
	}

	var items []models.CatalogItem
	var cursor *firestore.DocumentSnapshot

	for {
		q := l.client.Collection(l.cfg.Collection).OrderBy(firestore.DocumentID, firestore.Asc).Limit(pageSize)
		if cursor != nil {
			q = q.StartAfter(cursor)
		}

		pageCtx, cancel := context.WithTimeout(ctx, l.cfg.RequestTimeout)
		docs, err := q.Documents(pageCtx).GetAll()
		cancel()
		if err != nil {
			return nil, fmt.Errorf("firestore page after %d items: %w", len(items), err)
		}
		if len(docs) == 0 {
			break
		}

		for _, doc := range docs {
			items = append(items, parseItem(doc.Ref.ID, doc.Data()))
		}
		cursor = docs[len(docs)-1]

		if len(docs) < pageSize {
			break
		}
	}

	return items, nil
}

func (l *Loader) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	iter := l.client.Collection(l.cfg.Collection).Limit(1).Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	// iterator.Done means the collection is empty; Firestore is reachable.
	if err != nil && err != iterator.Done {
		return fmt.Errorf("firestore health check: %w", err)
	}
	return nil
}

func (l *Loader) Close() error {
	return l.client.Close()
}

// parseItem converts a raw document into a CatalogItem, tolerating missing
// or mistyped fields. A bad document degrades to zero values rather than
// failing the whole load.
func parseItem(id string, data map[string]any) models.CatalogItem {
	item := models.CatalogItem{
		ID:              id,
		Name:            str(data["name"]),
		Description:     str(data["description"]),
		Category:        str(data["category"]),
		CraftType:       str(data["craft_type"]),
		Barangay:        str(data["barangay"]),
		ArtistName:      str(data["artist_name"]),
		Price:           num(data["price"]),
		StockCount:      int(num(data["stock_count"])),
		Available:       boolean(data["available"]),
		Featured:        boolean(data["featured"]),
		Rating:          num(data["rating"]),
		ReviewCount:     int(num(data["review_count"])),
		PopularityScore: num(data["popularity_score"]),
		ThumbnailURL:    str(data["thumbnail_url"]),
		Tags:            strSlice(data["tags"]),
		SearchKeywords:  strSlice(data["search_keywords"]),
	}
	if t, ok := data["created_at"].(time.Time); ok {
		item.CreatedAt = t
	}
	return item
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func boolean(v any) bool {
	b, _ := v.(bool)
	return b
}

func strSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
