package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	AdminToken  string           `json:"admin_token"`
	CORSOrigins []string         `json:"cors_origins"`
	RateLimitMS int              `json:"rate_limit_ms"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	AI          AIConfig         `json:"ai"`
	Ingest      IngestConfig     `json:"ingest"`
	Cache       CacheConfig      `json:"cache"`
	FileStore   FileStoreConfig  `json:"file_store"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	Data           interface{} `json:"data"`
	Model          string      `json:"model"`
	Dimensions     int         `json:"dimensions"`
	EmbedBatchSize int         `json:"embed_batch_size"`
	MaxRetries     int         `json:"max_retries"`
	RetryBackoffMS int         `json:"retry_backoff_ms"`
	Timeout        int         `json:"timeout"`
}

type IngestConfig struct {
	MaxChunkChars   int `json:"max_chunk_chars"`
	InsertBatchSize int `json:"insert_batch_size"`
	InsertByteLimit int `json:"insert_byte_limit"`
	MaxRetries      int `json:"max_retries"`
	RetryBackoffMS  int `json:"retry_backoff_ms"`
}

type CacheConfig struct {
	LRUSize       int    `json:"lru_size"`
	LRUTTLMinutes int    `json:"lru_ttl_minutes"`
	EnableDBCache bool   `json:"enable_db_cache"`
	MaxAgeDays    int    `json:"max_age_days"`
	CleanupSpec   string `json:"cleanup_spec"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "text-embedding-3-small"
	}
	if cfg.AI.Dimensions == 0 {
		cfg.AI.Dimensions = 1536
	}
	if cfg.AI.EmbedBatchSize == 0 {
		cfg.AI.EmbedBatchSize = 100
	}
	if cfg.AI.MaxRetries == 0 {
		cfg.AI.MaxRetries = 3
	}
	if cfg.AI.RetryBackoffMS == 0 {
		cfg.AI.RetryBackoffMS = 500
	}
	if cfg.Ingest.MaxChunkChars == 0 {
		cfg.Ingest.MaxChunkChars = 10000
	}
	if cfg.Ingest.InsertBatchSize == 0 {
		cfg.Ingest.InsertBatchSize = 1000
	}
	if cfg.Ingest.InsertByteLimit == 0 {
		cfg.Ingest.InsertByteLimit = 8 << 20
	}
	if cfg.Ingest.MaxRetries == 0 {
		cfg.Ingest.MaxRetries = 3
	}
	if cfg.Ingest.RetryBackoffMS == 0 {
		cfg.Ingest.RetryBackoffMS = 500
	}
	if cfg.Cache.LRUSize == 0 {
		cfg.Cache.LRUSize = 4096
	}
	if cfg.Cache.LRUTTLMinutes == 0 {
		cfg.Cache.LRUTTLMinutes = 120
	}
	if cfg.Cache.MaxAgeDays == 0 {
		cfg.Cache.MaxAgeDays = 30
	}
	if cfg.Cache.CleanupSpec == "" {
		cfg.Cache.CleanupSpec = "30 3 * * *"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "none"
	}
	return &cfg, nil
}
