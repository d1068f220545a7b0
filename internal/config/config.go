package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	LogConfig logger.LogConfig `json:"log_config"`
	AI        AIConfig         `json:"ai"`
	Cache     CacheConfig      `json:"cache"`
	Store     StoreConfig      `json:"store"`
	Fetch     FetchConfig      `json:"fetch"`
	Query     QueryConfig      `json:"query"`
}

type AIConfig struct {
	Provider      string      `json:"provider"`
	GenerateModel string      `json:"generate_model"`
	EmbedModel    string      `json:"embed_model"`
	Data          interface{} `json:"data"`
}

// CacheConfig controls the embedding/page caches. DSN points at the shared
// postgres cache; leaving it empty runs with the in-process LRU only.
type CacheConfig struct {
	DSN           string `json:"dsn"`
	LRUSize       int    `json:"lru_size"`
	LRUTTLMinutes int    `json:"lru_ttl_minutes"`
	EmbedTTLDays  int    `json:"embed_ttl_days"`
}

type StoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type FetchConfig struct {
	TimeoutSeconds int     `json:"timeout_seconds"`
	UserAgent      string  `json:"user_agent"`
	RatePerSecond  float64 `json:"rate_per_second"`
	Burst          int     `json:"burst"`
	Parallelism    int     `json:"parallelism"`
	PageCacheSize  int     `json:"page_cache_size"`
	PageTTLMinutes int     `json:"page_ttl_minutes"`
}

type QueryConfig struct {
	K            int     `json:"k"`
	MaxPerSource int     `json:"max_per_source"`
	Alpha        float64 `json:"alpha"`
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
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.GenerateModel == "" {
		return nil, fmt.Errorf("ai.generate_model is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "local"
	}
	if cfg.Cache.LRUSize == 0 {
		cfg.Cache.LRUSize = 10000
	}
	if cfg.Cache.LRUTTLMinutes == 0 {
		cfg.Cache.LRUTTLMinutes = 120
	}
	if cfg.Cache.EmbedTTLDays == 0 {
		cfg.Cache.EmbedTTLDays = 30
	}
	if cfg.Fetch.TimeoutSeconds == 0 {
		cfg.Fetch.TimeoutSeconds = 15
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "newsrag-bot/0.1 (+https://github.com/xxxsen/newsrag)"
	}
	if cfg.Fetch.RatePerSecond == 0 {
		cfg.Fetch.RatePerSecond = 2
	}
	if cfg.Fetch.Burst == 0 {
		cfg.Fetch.Burst = 4
	}
	if cfg.Fetch.Parallelism == 0 {
		cfg.Fetch.Parallelism = 4
	}
	if cfg.Fetch.PageCacheSize == 0 {
		cfg.Fetch.PageCacheSize = 1024
	}
	if cfg.Fetch.PageTTLMinutes == 0 {
		cfg.Fetch.PageTTLMinutes = 60
	}
	if cfg.Query.K == 0 {
		cfg.Query.K = 6
	}
	if cfg.Query.MaxPerSource == 0 {
		cfg.Query.MaxPerSource = 2
	}
	if cfg.Query.Alpha == 0 {
		cfg.Query.Alpha = 0.6
	}
	if cfg.Query.Alpha < 0 || cfg.Query.Alpha > 1 {
		return nil, fmt.Errorf("query.alpha must be in [0,1]")
	}
	return &cfg, nil
}
