package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/likha-market/search-service/internal/config"
	"github.com/likha-market/search-service/internal/models"
	"github.com/likha-market/search-service/internal/observability"
)

type RedisCache struct {
	client redis.UniversalClient
	ttl    config.CacheTTLConfig
	logger *zap.Logger
}

func NewRedisCache(cfg config.RedisConfig, logger *zap.Logger) (*RedisCache, error) {
	var client redis.UniversalClient

	if len(cfg.Addresses) > 1 {
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.Addresses,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:         cfg.Addresses[0],
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("redis cache connected", zap.Strings("addresses", cfg.Addresses))

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
		logger: logger,
	}, nil
}

func (rc *RedisCache) GetSearchResults(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	return rc.getResponse(ctx, rc.buildSearchKey(req, false))
}

func (rc *RedisCache) SetSearchResults(ctx context.Context, req *models.SearchRequest, resp *models.SearchResponse) error {
	if err := rc.setResponse(ctx, rc.buildSearchKey(req, false), resp, rc.ttl.SearchResults); err != nil {
		return err
	}
	return rc.setResponse(ctx, rc.buildSearchKey(req, true), resp, rc.ttl.StaleFallback)
}

// GetStaleResults returns the long-TTL copy kept for degraded serving when
// the primary path fails.
func (rc *RedisCache) GetStaleResults(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	return rc.getResponse(ctx, rc.buildSearchKey(req, true))
}

func (rc *RedisCache) GetSuggestions(ctx context.Context, query string, limit int) ([]models.Suggestion, error) {
	key := fmt.Sprintf("sg:%s", hashString(fmt.Sprintf("%s:%d", query, limit)))
	val, err := rc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		observability.CacheMisses.Inc()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get suggestions: %w", err)
	}
	observability.CacheHits.Inc()
	var results []models.Suggestion
	if err := json.Unmarshal([]byte(val), &results); err != nil {
		return nil, fmt.Errorf("cache unmarshal suggestions: %w", err)
	}
	return results, nil
}

func (rc *RedisCache) SetSuggestions(ctx context.Context, query string, limit int, results []models.Suggestion) error {
	key := fmt.Sprintf("sg:%s", hashString(fmt.Sprintf("%s:%d", query, limit)))
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("cache marshal suggestions: %w", err)
	}
	return rc.client.Set(ctx, key, data, rc.ttl.Suggestions).Err()
}

func (rc *RedisCache) GetTrending(ctx context.Context, region string) ([]string, error) {
	key := fmt.Sprintf("trend:%s", region)
	val, err := rc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get trending: %w", err)
	}
	var results []string
	if err := json.Unmarshal([]byte(val), &results); err != nil {
		return nil, fmt.Errorf("cache unmarshal trending: %w", err)
	}
	return results, nil
}

func (rc *RedisCache) SetTrending(ctx context.Context, region string, queries []string) error {
	key := fmt.Sprintf("trend:%s", region)
	data, err := json.Marshal(queries)
	if err != nil {
		return fmt.Errorf("cache marshal trending: %w", err)
	}
	return rc.client.Set(ctx, key, data, rc.ttl.Trending).Err()
}

func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

func (rc *RedisCache) getResponse(ctx context.Context, key string) (*models.SearchResponse, error) {
	val, err := rc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		observability.CacheMisses.Inc()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	observability.CacheHits.Inc()
	var resp models.SearchResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, fmt.Errorf("cache unmarshal: %w", err)
	}
	return &resp, nil
}

func (rc *RedisCache) setResponse(ctx context.Context, key string, resp *models.SearchResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	return rc.client.Set(ctx, key, data, ttl).Err()
}

// buildSearchKey hashes every request field that changes the result set so
// two requests share an entry only when their responses are identical.
func (rc *RedisCache) buildSearchKey(req *models.SearchRequest, stale bool) string {
	raw := fmt.Sprintf("%s:%s:%s:%s:%v:%v:%s:%t:%d:%d",
		req.Query, req.Category, req.CraftType, req.Barangay,
		req.MinPrice, req.MaxPrice, req.SortBy, req.Fuzzy, req.Page, req.Limit)
	if stale {
		return fmt.Sprintf("sr:stale:%s", hashString(raw))
	}
	return fmt.Sprintf("sr:%s", hashString(raw))
}

func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h[:8])
}
