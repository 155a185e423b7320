package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/likha-market/search-service/internal/cache"
	"github.com/likha-market/search-service/internal/models"
	"github.com/likha-market/search-service/internal/search"
)

const (
	maxRequestBodySize  = 1 << 20 // 1 MB
	maxSuggestQueryLen  = 100
	defaultSuggestLimit = 10
	maxSuggestLimit     = 50
)

type Handler struct {
	engine *search.Engine
	cache  *cache.RedisCache
	logger *zap.Logger
}

func NewHandler(engine *search.Engine, cache *cache.RedisCache, logger *zap.Logger) *Handler {
	return &Handler{
		engine: engine,
		cache:  cache,
		logger: logger,
	}
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := RequestIDFromContext(ctx)

	req, err := h.parseSearchRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.writeError(w, http.StatusBadRequest, "missing_query", "Query parameter 'q' is required")
		return
	}
	req.RequestID = requestID

	resp, err := h.engine.Search(ctx, req)
	if err != nil {
		if errors.Is(err, search.ErrInvalidQuery) {
			h.writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
			return
		}
		// Internal details stay in the log; callers get a generic failure.
		h.logger.Error("search failed",
			zap.String("request_id", requestID),
			zap.String("query", req.Query),
			zap.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, "search_error", "Search service temporarily unavailable")
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// Suggestions never fails toward the client. A degraded suggestion backend
// returns whatever sources still work, possibly an empty list.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := r.URL.Query()

	q := params.Get("q")
	if len(q) > maxSuggestQueryLen {
		q = q[:maxSuggestQueryLen]
	}

	limit := parseSuggestLimit(params.Get("limit"))

	personalization := models.Personalization{
		RecentViews:    splitParam(params.Get("recentViews")),
		RecentSearches: splitParam(params.Get("recentSearches")),
		Interests:      splitParam(params.Get("interests")),
	}

	suggestions := h.engine.Suggest(ctx, q, personalization, limit)
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": suggestions,
		"query":       q,
	})
}

func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	region := r.URL.Query().Get("region")
	if region == "" {
		region = "global"
	}

	queries, err := h.cache.GetTrending(ctx, region)
	if err != nil {
		h.logger.Warn("trending lookup error", zap.String("region", region), zap.Error(err))
	}
	if queries == nil {
		queries = []string{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"trending": queries,
		"region":   region,
	})
}

func (h *Handler) parseSearchRequest(r *http.Request) (*models.SearchRequest, error) {
	if r.Method == http.MethodPost {
		req := &models.SearchRequest{Fuzzy: true}
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize)).Decode(req); err != nil {
			return nil, err
		}
		if !req.SortBy.Valid() {
			req.SortBy = models.SortRelevance
		}
		return req, nil
	}

	params := r.URL.Query()
	req := &models.SearchRequest{
		Query:     params.Get("q"),
		Category:  params.Get("category"),
		CraftType: params.Get("craftType"),
		Barangay:  params.Get("barangay"),
		SortBy:    models.SortMode(params.Get("sortBy")),
		Fuzzy:     params.Get("fuzzy") != "false",
	}
	if !req.SortBy.Valid() {
		req.SortBy = models.SortRelevance
	}

	if p := params.Get("page"); p != "" {
		if page, err := strconv.Atoi(p); err == nil && page >= 1 {
			req.Page = page
		}
	}
	if l := params.Get("limit"); l != "" {
		if limit, err := strconv.Atoi(l); err == nil && limit > 0 {
			req.Limit = limit
		}
	}
	if raw := params.Get("minPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 {
			req.MinPrice = &v
		}
	}
	if raw := params.Get("maxPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 {
			req.MaxPrice = &v
		}
	}
	if params.Get("forceFresh") == "true" {
		req.ForceFresh = true
	}

	return req, nil
}

// parseSuggestLimit clamps the caller-supplied limit; invalid or missing
// values fall back to the default.
func parseSuggestLimit(raw string) int {
	if raw == "" {
		return defaultSuggestLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultSuggestLimit
	}
	if n > maxSuggestLimit {
		return maxSuggestLimit
	}
	return n
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("writing json response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}
