package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port           int              `json:"port"`
	JWTSecret      string           `json:"jwt_secret"`
	MaxUploadBytes int64            `json:"max_upload_bytes"`
	CORSHosts      []string         `json:"cors_hosts"`
	LogConfig      logger.LogConfig `json:"log_config"`
	Database       DatabaseConfig   `json:"database"`
	AI             AIConfig         `json:"ai"`
	Ingest         IngestConfig     `json:"ingest"`
	FileStore      FileStoreConfig  `json:"file_store"`
	Retention      RetentionConfig  `json:"retention"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type AIConfig struct {
	Provider      string      `json:"provider"`
	Model         string      `json:"model"`
	MaxInputChars int         `json:"max_input_chars"`
	BatchSize     int         `json:"batch_size"`
	CacheSize     int         `json:"cache_size"`
	CacheTTLHours int         `json:"cache_ttl_hours"`
	Data          interface{} `json:"data"`
}

type IngestConfig struct {
	ChunkSize   int `json:"chunk_size"`
	OverlapSize int `json:"overlap_size"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type RetentionConfig struct {
	SearchHistoryDays  int `json:"search_history_days"`
	EmbeddingCacheDays int `json:"embedding_cache_days"`
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
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.DSN == "" && (cfg.Database.Host == "" || cfg.Database.DBName == "") {
		return nil, fmt.Errorf("database.dsn or database.host/db_name is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.MaxInputChars <= 0 {
		cfg.AI.MaxInputChars = 8000
	}
	if cfg.AI.BatchSize <= 0 {
		cfg.AI.BatchSize = 100
	}
	if cfg.Ingest.ChunkSize <= 0 {
		cfg.Ingest.ChunkSize = 2000
	}
	if cfg.Ingest.OverlapSize <= 0 {
		cfg.Ingest.OverlapSize = 200
	}
	if cfg.Ingest.OverlapSize >= cfg.Ingest.ChunkSize {
		cfg.Ingest.OverlapSize = cfg.Ingest.ChunkSize / 10
	}
	if cfg.Retention.SearchHistoryDays <= 0 {
		cfg.Retention.SearchHistoryDays = 180
	}
	if cfg.Retention.EmbeddingCacheDays <= 0 {
		cfg.Retention.EmbeddingCacheDays = 30
	}
	return &cfg, nil
}
