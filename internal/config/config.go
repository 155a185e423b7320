package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Redis         RedisConfig         `yaml:"redis"`
	Firestore     FirestoreConfig     `yaml:"firestore"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	ClickHouse    ClickHouseConfig    `yaml:"clickhouse"`
	Search        SearchConfig        `yaml:"search"`
	Lexicon       LexiconConfig       `yaml:"lexicon"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type RedisConfig struct {
	Addresses    []string       `yaml:"addresses"`
	Password     string         `yaml:"password"`
	DB           int            `yaml:"db"`
	PoolSize     int            `yaml:"pool_size"`
	MinIdleConns int            `yaml:"min_idle_conns"`
	DialTimeout  time.Duration  `yaml:"dial_timeout"`
	ReadTimeout  time.Duration  `yaml:"read_timeout"`
	WriteTimeout time.Duration  `yaml:"write_timeout"`
	TTL          CacheTTLConfig `yaml:"ttl"`
}

type CacheTTLConfig struct {
	Suggestions   time.Duration `yaml:"suggestions"`
	Trending      time.Duration `yaml:"trending"`
	SearchResults time.Duration `yaml:"search_results"`
	StaleFallback time.Duration `yaml:"stale_fallback"`
}

type FirestoreConfig struct {
	ProjectID       string        `yaml:"project_id"`
	CredentialsFile string        `yaml:"credentials_file"`
	Collection      string        `yaml:"collection"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	PageSize        int           `yaml:"page_size"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	TopicChanges  string        `yaml:"topic_changes"`
	TopicDLQ      string        `yaml:"topic_dlq"`
	ConsumerGroup string        `yaml:"consumer_group"`
	BatchTimeout  time.Duration `yaml:"batch_timeout"`
	MaxRetries    int           `yaml:"max_retries"`
}

type ClickHouseConfig struct {
	Addresses    []string      `yaml:"addresses"`
	Database     string        `yaml:"database"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
}

type SearchConfig struct {
	DefaultPageSize     int                  `yaml:"default_page_size"`
	MaxPageSize         int                  `yaml:"max_page_size"`
	QueryTimeout        time.Duration        `yaml:"query_timeout"`
	MinQueryLength      int                  `yaml:"min_query_length"`
	FuzzyThreshold      float64              `yaml:"fuzzy_threshold"`
	CorrectionThreshold float64              `yaml:"correction_threshold"`
	SuggestionLimit     int                  `yaml:"suggestion_limit"`
	PerSourceCap        int                  `yaml:"per_source_cap"`
	CircuitBreaker      CircuitBreakerConfig `yaml:"circuit_breaker"`
	Retry               RetryConfig          `yaml:"retry"`
	SlowQuery           SlowQueryConfig      `yaml:"slow_query"`
}

type CircuitBreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

type SlowQueryConfig struct {
	WarningThreshold  time.Duration `yaml:"warning_threshold"`
	CriticalThreshold time.Duration `yaml:"critical_threshold"`
}

// LexiconConfig points at the variant/synonym tables. An empty path means
// the embedded default tables are used.
type LexiconConfig struct {
	Path string `yaml:"path"`
}

type ObservabilityConfig struct {
	MetricsPort     int    `yaml:"metrics_port"`
	TracingEndpoint string `yaml:"tracing_endpoint"`
	LogLevel        string `yaml:"log_level"`
	ServiceName     string `yaml:"service_name"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			Addresses:    []string{"localhost:6379"},
			PoolSize:     100,
			MinIdleConns: 10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  1 * time.Second,
			WriteTimeout: 1 * time.Second,
			TTL: CacheTTLConfig{
				Suggestions:   10 * time.Minute,
				Trending:      60 * time.Second,
				SearchResults: 2 * time.Minute,
				StaleFallback: 1 * time.Hour,
			},
		},
		Firestore: FirestoreConfig{
			Collection:      "products",
			RequestTimeout:  5 * time.Second,
			PageSize:        500,
			RefreshInterval: 15 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			TopicChanges:  "catalog.changes",
			TopicDLQ:      "catalog.changes.dlq",
			ConsumerGroup: "search-catalog-sync",
			BatchTimeout:  1 * time.Second,
			MaxRetries:    3,
		},
		ClickHouse: ClickHouseConfig{
			Addresses:    []string{"localhost:9000"},
			Database:     "search_analytics",
			DialTimeout:  5 * time.Second,
			QueryTimeout: 2 * time.Second,
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Search: SearchConfig{
			DefaultPageSize:     20,
			MaxPageSize:         100,
			QueryTimeout:        500 * time.Millisecond,
			MinQueryLength:      2,
			FuzzyThreshold:      0.7,
			CorrectionThreshold: 0.75,
			SuggestionLimit:     10,
			PerSourceCap:        5,
			CircuitBreaker: CircuitBreakerConfig{
				MaxRequests:      100,
				Interval:         30 * time.Second,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
			Retry: RetryConfig{
				MaxAttempts: 2,
				InitialWait: 50 * time.Millisecond,
				MaxWait:     500 * time.Millisecond,
				Multiplier:  2.0,
			},
			SlowQuery: SlowQueryConfig{
				WarningThreshold:  200 * time.Millisecond,
				CriticalThreshold: 500 * time.Millisecond,
			},
		},
		Observability: ObservabilityConfig{
			MetricsPort: 9090,
			LogLevel:    "info",
			ServiceName: "likha-search",
		},
	}
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if len(c.Redis.Addresses) == 0 {
		return fmt.Errorf("at least one redis address required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("at least one kafka broker required")
	}
	if c.Search.DefaultPageSize <= 0 {
		return fmt.Errorf("default page size must be positive")
	}
	if c.Search.MaxPageSize <= 0 || c.Search.MaxPageSize > 100 {
		return fmt.Errorf("max page size must be between 1 and 100")
	}
	if c.Search.FuzzyThreshold <= 0 || c.Search.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy threshold must be in (0, 1]")
	}
	if c.Search.CorrectionThreshold < c.Search.FuzzyThreshold {
		return fmt.Errorf("correction threshold must be at least the fuzzy threshold")
	}
	return nil
}
