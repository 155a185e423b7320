package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/likha-market/search-service/internal/catalog"
	"github.com/likha-market/search-service/internal/config"
	"github.com/likha-market/search-service/internal/models"
	"github.com/likha-market/search-service/internal/observability"
)

// ErrInvalidQuery marks user-visible validation failures. Everything else
// coming out of Search is an internal failure the API layer reports
// generically.
var ErrInvalidQuery = errors.New("invalid query")

// ResponseCache is the subset of the Redis cache the engine needs. Nil is
// allowed; the engine then recomputes every request.
type ResponseCache interface {
	GetSearchResults(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error)
	GetStaleResults(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error)
	SetSearchResults(ctx context.Context, req *models.SearchRequest, resp *models.SearchResponse) error
	GetSuggestions(ctx context.Context, query string, limit int) ([]models.Suggestion, error)
	SetSuggestions(ctx context.Context, query string, limit int, s []models.Suggestion) error
}

// Engine ties expansion, the candidate pipeline, spelling correction,
// facets and suggestions into the two request paths the API exposes.
type Engine struct {
	store     catalog.Store
	expander  *Expander
	builder   *PlanBuilder
	corrector *Corrector
	suggester *SuggestionEngine
	cache     ResponseCache
	slowQuery *observability.SlowQueryDetector
	trending  *TrendingTracker
	cfg       config.SearchConfig
	logger    *zap.Logger
}

// SetTrending attaches the tracker that feeds the trending-queries list.
// Optional; without it successful queries are simply not recorded.
func (e *Engine) SetTrending(t *TrendingTracker) {
	e.trending = t
}

func NewEngine(
	store catalog.Store,
	expander *Expander,
	builder *PlanBuilder,
	corrector *Corrector,
	suggester *SuggestionEngine,
	cache ResponseCache,
	slowQuery *observability.SlowQueryDetector,
	cfg config.SearchConfig,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		store:     store,
		expander:  expander,
		builder:   builder,
		corrector: corrector,
		suggester: suggester,
		cache:     cache,
		slowQuery: slowQuery,
		cfg:       cfg,
		logger:    logger,
	}
}

// Search runs the primary pipeline, re-running it at most once with a
// corrected query when the first pass finds nothing and fuzzy mode is on.
func (e *Engine) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "search.engine",
		attribute.String("query", req.Query),
	)
	defer span.End()

	query := strings.TrimSpace(req.Query)
	minLen := e.cfg.MinQueryLength
	if minLen <= 0 {
		minLen = 2
	}
	if len(query) < minLen {
		return nil, fmt.Errorf("%w: query must be at least %d characters", ErrInvalidQuery, minLen)
	}

	if e.cache != nil && !req.ForceFresh {
		cached, err := e.cache.GetSearchResults(ctx, req)
		if err != nil {
			e.logger.Warn("cache lookup error", zap.Error(err))
		}
		if cached != nil {
			cached.Metadata.CacheHit = true
			cached.SearchTimeMs = time.Since(start).Milliseconds()
			return cached, nil
		}
	}

	if e.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.QueryTimeout)
		defer cancel()
	}

	resp, err := e.runPipeline(ctx, req, query)
	if err != nil {
		if stale := e.staleFallback(ctx, req, err); stale != nil {
			stale.SearchTimeMs = time.Since(start).Milliseconds()
			stale.Metadata.RequestID = req.RequestID
			return stale, nil
		}
		return nil, err
	}

	// Spelling correction fires only after a zero-result primary run, and
	// the corrected plan runs exactly once. The re-run is sequential: the
	// correction depends on the primary outcome.
	if resp.TotalResults == 0 && req.Fuzzy {
		if corrected := e.corrector.SuggestCorrection(query); corrected != "" {
			observability.SpellCorrectionsTotal.WithLabelValues("applied").Inc()

			correctedReq := *req
			correctedReq.Query = corrected
			correctedResp, err := e.runPipeline(ctx, &correctedReq, corrected)
			if err != nil {
				if stale := e.staleFallback(ctx, req, err); stale != nil {
					stale.SearchTimeMs = time.Since(start).Milliseconds()
					stale.Metadata.RequestID = req.RequestID
					return stale, nil
				}
				return nil, err
			}
			correctedResp.Query = query
			correctedResp.DidYouMean = corrected
			resp = correctedResp
		} else {
			observability.SpellCorrectionsTotal.WithLabelValues("none").Inc()
		}
	}

	// A still-empty page gets fallback suggestions so the caller has
	// something to render instead of a dead end.
	if resp.TotalResults == 0 {
		resp.Suggestions = e.suggester.Suggest(ctx, query, models.Personalization{}, e.cfg.SuggestionLimit)
	}

	if e.trending != nil && resp.TotalResults > 0 {
		e.trending.Record(query)
	}

	resp.SearchTimeMs = time.Since(start).Milliseconds()
	resp.Metadata.RequestID = req.RequestID

	if e.cache != nil {
		if err := e.cache.SetSearchResults(ctx, req, resp); err != nil {
			e.logger.Warn("cache set error", zap.Error(err))
		}
	}

	if e.slowQuery != nil {
		e.slowQuery.Intercept(ctx, query, "search", time.Since(start),
			int64(resp.TotalResults), resp.DidYouMean != "")
	}

	return resp, nil
}

// staleFallback serves the long-TTL cache copy when the live pipeline
// fails. Returns nil when no copy exists, so the caller surfaces the
// original error.
func (e *Engine) staleFallback(ctx context.Context, req *models.SearchRequest, cause error) *models.SearchResponse {
	if e.cache == nil {
		return nil
	}
	stale, err := e.cache.GetStaleResults(ctx, req)
	if err != nil {
		e.logger.Warn("stale cache lookup error", zap.Error(err))
		return nil
	}
	if stale == nil {
		return nil
	}

	e.logger.Warn("serving stale results after pipeline failure",
		zap.String("query", req.Query),
		zap.Error(cause),
	)
	stale.Metadata.Stale = true
	stale.Metadata.CacheHit = true
	stale.Metadata.Source = "stale_cache"
	return stale
}

// runPipeline executes one pass: expand, plan, count without pagination,
// fetch the page, summarize facets.
func (e *Engine) runPipeline(ctx context.Context, req *models.SearchRequest, query string) (*models.SearchResponse, error) {
	terms := e.expander.Expand(query)
	plan := e.builder.BuildPlan(req, terms)
	page, limit := e.builder.PageLimit(req)

	total, err := e.store.Count(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("counting candidates: %w", err)
	}

	results, err := e.store.Run(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("running search plan: %w", err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &models.SearchResponse{
		Results:      results,
		TotalResults: total,
		Page:         page,
		TotalPages:   totalPages,
		Query:        query,
		Categories:   CountByCategory(results),
		Metadata: models.ResponseMetadata{
			Source: "snapshot",
		},
	}, nil
}

// Suggest serves the type-ahead path. Query-mode results are cacheable;
// personalized no-query results are always computed fresh.
func (e *Engine) Suggest(ctx context.Context, query string, p models.Personalization, limit int) []models.Suggestion {
	ctx, span := observability.StartSpan(ctx, "search.suggest",
		attribute.String("query", query),
	)
	defer span.End()

	q := strings.TrimSpace(query)
	cacheable := e.cache != nil && len(q) >= 2

	if cacheable {
		cached, err := e.cache.GetSuggestions(ctx, q, limit)
		if err != nil {
			e.logger.Warn("suggestion cache lookup error", zap.Error(err))
		}
		if cached != nil {
			return cached
		}
	}

	suggestions := e.suggester.Suggest(ctx, q, p, limit)

	if cacheable {
		if err := e.cache.SetSuggestions(ctx, q, limit, suggestions); err != nil {
			e.logger.Warn("suggestion cache set error", zap.Error(err))
		}
	}

	return suggestions
}
