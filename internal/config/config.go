package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	pkgRetry "github.com/Ziad-epi/ai-data-copilot/internal/pkg/retry"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8000"`

	// Storage configuration
	StorageCfg StorageConfig `envPrefix:"STORAGE_"`

	// Ingestion configuration
	IngestCfg IngestConfig `envPrefix:"INGEST_"`

	// Insights configuration
	InsightsCfg InsightsConfig `envPrefix:"INSIGHTS_"`

	// Chart suggestion configuration
	ChartsCfg ChartsConfig `envPrefix:"CHARTS_"`

	// RAG indexing and retrieval configuration
	RagCfg RagConfig `envPrefix:"RAG_"`

	// External capability configurations
	EmbeddingConnectorCfg EmbeddingConnectorConfig `envPrefix:"EMBEDDING_"`
	LLMConnectorCfg       LLMConnectorConfig       `envPrefix:"LLM_"`
	QdrantCfg             QdrantConfig             `envPrefix:"QDRANT_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

// StorageConfig selects where dataset artifacts live. Raw CSV bytes always
// stay on the local filesystem for streaming; JSON artifacts can optionally
// be kept in Postgres.
type StorageConfig struct {
	Dir                 string        `env:"DIR" envDefault:"data/datasets"`
	Backend             string        `env:"BACKEND" envDefault:"filesystem"`
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

// IngestConfig bounds the schema inference engine.
type IngestConfig struct {
	MaxUploadMB    int64 `env:"MAX_UPLOAD_MB" envDefault:"50"`
	SampleRows     int   `env:"SAMPLE_ROWS" envDefault:"10000"`
	PreviewMaxRows int   `env:"PREVIEW_MAX_ROWS" envDefault:"100"`
	QueryMaxRows   int   `env:"QUERY_MAX_ROWS" envDefault:"1000"`
}

// InsightsConfig bounds the profiler and anomaly detector.
type InsightsConfig struct {
	SampleMax        int           `env:"SAMPLE_MAX" envDefault:"50000"`
	MissingThreshold float64       `env:"MISSING_THRESHOLD" envDefault:"0.2"`
	OutlierMethod    string        `env:"OUTLIER_METHOD" envDefault:"iqr"`
	CacheTTL         time.Duration `env:"CACHE_TTL" envDefault:"10m"`
}

type ChartsConfig struct {
	MaxCharts int `env:"MAX_CHARTS" envDefault:"3"`
	MaxPoints int `env:"MAX_POINTS" envDefault:"50"`
}

type RagConfig struct {
	MaxRowsToIndex int    `env:"MAX_ROWS_TO_INDEX" envDefault:"5000"`
	RowsPerDoc     int    `env:"ROWS_PER_DOC" envDefault:"50"`
	EmbedBatchSize int    `env:"EMBED_BATCH_SIZE" envDefault:"32"`
	Collection     string `env:"COLLECTION" envDefault:"datasets"`
	DefaultTopK    int    `env:"DEFAULT_TOP_K" envDefault:"5"`
	MaxTopK        int    `env:"MAX_TOP_K" envDefault:"50"`
}

type EmbeddingConnectorConfig struct {
	HTTPClientConfig
	Model string               `env:"MODEL" envDefault:"text-embedding-3-small"`
	Retry pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type LLMConnectorConfig struct {
	HTTPClientConfig
	Model       string  `env:"MODEL"`
	Temperature float64 `env:"TEMPERATURE" envDefault:"0.2"`
	MaxTokens   int     `env:"MAX_TOKENS" envDefault:"600"`
}

// Configured reports whether the generation capability can be used. Chat and
// LLM-backed reports require it; everything else works without it.
func (c LLMConnectorConfig) Configured() bool {
	return c.Url != "" && c.Token != "" && c.Model != ""
}

// QdrantConfig points at the vector index. When Url is empty the embedded
// file-backed store under STORAGE_DIR is used instead.
type QdrantConfig struct {
	HTTPClientConfig
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"30s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if cfg.StorageCfg.Backend != "filesystem" && cfg.StorageCfg.Backend != "postgres" {
		errors = append(errors, fmt.Sprintf("STORAGE_BACKEND must be filesystem or postgres, got %q", cfg.StorageCfg.Backend))
	}
	if cfg.StorageCfg.Backend == "postgres" && cfg.StorageCfg.DatabaseURL == "" {
		errors = append(errors, "STORAGE_DATABASE_URL is required when STORAGE_BACKEND=postgres")
	}
	if cfg.StorageCfg.DBMaxConns < 1 || cfg.StorageCfg.DBMaxConns > 200 {
		errors = append(errors, fmt.Sprintf("STORAGE_DB_MAX_CONNS must be between 1 and 200, got %d", cfg.StorageCfg.DBMaxConns))
	}

	if cfg.IngestCfg.MaxUploadMB < 1 {
		errors = append(errors, fmt.Sprintf("INGEST_MAX_UPLOAD_MB must be positive, got %d", cfg.IngestCfg.MaxUploadMB))
	}
	if cfg.IngestCfg.SampleRows < 1 {
		errors = append(errors, fmt.Sprintf("INGEST_SAMPLE_ROWS must be positive, got %d", cfg.IngestCfg.SampleRows))
	}

	if cfg.InsightsCfg.MissingThreshold < 0 || cfg.InsightsCfg.MissingThreshold > 1 {
		errors = append(errors, fmt.Sprintf("INSIGHTS_MISSING_THRESHOLD must be in [0,1], got %g", cfg.InsightsCfg.MissingThreshold))
	}
	if cfg.InsightsCfg.OutlierMethod != "iqr" && cfg.InsightsCfg.OutlierMethod != "zscore" {
		errors = append(errors, fmt.Sprintf("INSIGHTS_OUTLIER_METHOD must be iqr or zscore, got %q", cfg.InsightsCfg.OutlierMethod))
	}

	if cfg.RagCfg.RowsPerDoc < 1 {
		errors = append(errors, fmt.Sprintf("RAG_ROWS_PER_DOC must be positive, got %d", cfg.RagCfg.RowsPerDoc))
	}
	if cfg.RagCfg.MaxRowsToIndex < 1 {
		errors = append(errors, fmt.Sprintf("RAG_MAX_ROWS_TO_INDEX must be positive, got %d", cfg.RagCfg.MaxRowsToIndex))
	}
	if cfg.RagCfg.EmbedBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("RAG_EMBED_BATCH_SIZE must be positive, got %d", cfg.RagCfg.EmbedBatchSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
