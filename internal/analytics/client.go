// Package analytics writes query telemetry to ClickHouse and reads back
// the aggregated interaction counts behind the popularity sort. The
// increment/decay semantics of those counters are owned by the analytics
// pipeline; the search core only consumes the numbers.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/likha-market/search-service/internal/config"
	"github.com/likha-market/search-service/internal/models"
	"github.com/likha-market/search-service/internal/observability"
)

type Client struct {
	conn   driver.Conn
	logger *zap.Logger
}

func NewClient(cfg config.ClickHouseConfig, logger *zap.Logger) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Addresses,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": int(cfg.QueryTimeout.Seconds()),
		},
		DialTimeout:  cfg.DialTimeout,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("opening clickhouse connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pinging clickhouse: %w", err)
	}

	logger.Info("clickhouse analytics connected", zap.Strings("addresses", cfg.Addresses))

	return &Client{
		conn:   conn,
		logger: logger,
	}, nil
}

func (c *Client) WriteQueryPerformance(ctx context.Context, event *models.AnalyticsEvent) error {
	query := `
		INSERT INTO query_performance (
			event_type, query_hash, query_type, duration_ms,
			total_hits, corrected, timestamp, trace_id, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	return c.conn.Exec(ctx, query,
		event.EventType,
		event.QueryHash,
		event.QueryType,
		event.DurationMs,
		event.TotalHits,
		event.Corrected,
		event.Timestamp,
		event.TraceID,
		event.Source,
	)
}

// ItemPopularity reads the per-item interaction counts the popularity sort
// uses. The map is keyed by catalog item id.
func (c *Client) ItemPopularity(ctx context.Context) (map[string]float64, error) {
	ctx, span := observability.StartSpan(ctx, "analytics.item_popularity")
	defer span.End()

	start := time.Now()

	query := `
		SELECT item_id, sum(interactions) AS total
		FROM item_interactions
		GROUP BY item_id
	`

	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ch popularity query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var itemID string
		var total float64
		if err := rows.Scan(&itemID, &total); err != nil {
			return nil, fmt.Errorf("scanning popularity row: %w", err)
		}
		out[itemID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating popularity rows: %w", err)
	}

	c.logger.Debug("item popularity loaded",
		zap.Int("items", len(out)),
		zap.Duration("took", time.Since(start)),
	)
	return out, nil
}

func (c *Client) HealthCheck(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) EnsureTables(ctx context.Context) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS query_performance (
			event_type String,
			query_hash String,
			query_type String,
			duration_ms Float64,
			total_hits Int64,
			corrected Bool,
			timestamp DateTime,
			trace_id String,
			source String
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(timestamp)
		ORDER BY (timestamp, query_hash)`,

		`CREATE TABLE IF NOT EXISTS item_interactions (
			item_id String,
			interactions UInt64,
			updated_at DateTime
		) ENGINE = SummingMergeTree(interactions)
		ORDER BY (item_id)`,
	}

	for _, ddl := range tables {
		if err := c.conn.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}

	c.logger.Info("clickhouse tables ensured")
	return nil
}
