package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries every tunable the service reads. It is built once in main
// and passed explicitly to constructors; nothing reads the environment after
// Load returns.
type Config struct {
	ListenAddr string

	MeiliHost    string
	MeiliAPIKey  string
	IngestSecret string

	NewsIndex  string
	ShowsIndex string

	SourcesFile     string
	ShowSourcesFile string
	PublishersFile  string
	CachePath       string

	FetchTimeout time.Duration
	FetchWorkers int
	MaxPerSource int

	LogLevel string
}

// Load reads configuration from the environment, with an optional .env file
// and an optional YAML config file named by IRONFEED_CONFIG.
func Load() (Config, error) {
	// Missing .env is fine; env vars may come from the deployment instead.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("meili_host", "")
	v.SetDefault("meili_api_key", "")
	v.SetDefault("ingest_secret", "")
	v.SetDefault("news_index", "bodybuilding")
	v.SetDefault("shows_index", "shows")
	v.SetDefault("sources_file", "config/sources.yaml")
	v.SetDefault("show_sources_file", "config/show-sources.yaml")
	v.SetDefault("publishers_file", "")
	v.SetDefault("cache_path", "")
	v.SetDefault("fetch_timeout", "15s")
	v.SetDefault("fetch_workers", 5)
	v.SetDefault("max_per_source", 40)
	v.SetDefault("log_level", "info")

	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString("ironfeed_config")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		ListenAddr:      strings.TrimSpace(v.GetString("listen_addr")),
		MeiliHost:       strings.TrimSpace(v.GetString("meili_host")),
		MeiliAPIKey:     strings.TrimSpace(v.GetString("meili_api_key")),
		IngestSecret:    strings.TrimSpace(v.GetString("ingest_secret")),
		NewsIndex:       strings.TrimSpace(v.GetString("news_index")),
		ShowsIndex:      strings.TrimSpace(v.GetString("shows_index")),
		SourcesFile:     strings.TrimSpace(v.GetString("sources_file")),
		ShowSourcesFile: strings.TrimSpace(v.GetString("show_sources_file")),
		PublishersFile:  strings.TrimSpace(v.GetString("publishers_file")),
		CachePath:       strings.TrimSpace(v.GetString("cache_path")),
		FetchTimeout:    v.GetDuration("fetch_timeout"),
		FetchWorkers:    v.GetInt("fetch_workers"),
		MaxPerSource:    v.GetInt("max_per_source"),
		LogLevel:        strings.TrimSpace(v.GetString("log_level")),
	}

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.FetchWorkers <= 0 {
		cfg.FetchWorkers = 5
	}
	if cfg.MaxPerSource <= 0 {
		cfg.MaxPerSource = 40
	}

	return cfg, nil
}

// ValidateStore checks the settings needed to reach the document store.
func (c Config) ValidateStore() error {
	if c.MeiliHost == "" {
		return errors.New("MEILI_HOST is not configured")
	}
	if c.MeiliAPIKey == "" {
		return errors.New("MEILI_API_KEY is not configured")
	}
	return nil
}
