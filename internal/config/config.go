package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gujian/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Watchlist []model.StockInfo `yaml:"watchlist"`
	TWSE      struct {
		QuoteURL   string  `yaml:"quote_url"`
		HistoryURL string  `yaml:"history_url"`
		TPExURL    string  `yaml:"tpex_url"`
		RateLimit  float64 `yaml:"rate_limit"` // requests per second
	} `yaml:"twse"`
	Schedule struct {
		PollCron    string `yaml:"poll_cron"`
		RefreshCron string `yaml:"refresh_cron"`
		DigestCron  string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	News struct {
		Feeds []string `yaml:"feeds"`
	} `yaml:"news"`
	Gemini struct {
		APIKey   string `yaml:"api_key"`
		BaseURL  string `yaml:"base_url"`
		Model    string `yaml:"model"`
		CacheTTL string `yaml:"cache_ttl"` // Go duration string, e.g. "1h"
	} `yaml:"gemini"`
	HistoryMonths int    `yaml:"history_months"`
	RunOnStart    bool   `yaml:"run_on_start"`
	Proxy         string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("GUJIAN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_POLL"); v != "" {
		cfg.Schedule.PollCron = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("RUN_ON_START"); v == "1" || v == "true" {
		cfg.RunOnStart = true
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if len(cfg.Watchlist) == 0 {
		cfg.Watchlist = []model.StockInfo{
			{Symbol: "2330", Name: "台積電", Market: "tse"},
			{Symbol: "0050", Name: "元大台灣50", Market: "tse"},
		}
	}
	if cfg.TWSE.RateLimit <= 0 {
		cfg.TWSE.RateLimit = 2
	}
	if cfg.Schedule.PollCron == "" {
		// Every 10 seconds; the task itself skips outside trading hours.
		cfg.Schedule.PollCron = "*/10 * * * * *"
	}
	if cfg.Schedule.RefreshCron == "" {
		// 14:30 Taipei, weekdays, after settlement prices land.
		cfg.Schedule.RefreshCron = "0 30 14 * * 1-5"
	}
	if cfg.Schedule.DigestCron == "" {
		cfg.Schedule.DigestCron = "0 30 8 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/gujian.db"
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.0-flash"
	}
	if cfg.Gemini.CacheTTL == "" {
		cfg.Gemini.CacheTTL = "1h"
	}
	if cfg.HistoryMonths == 0 {
		cfg.HistoryMonths = 6
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist must not be empty")
	}
	for i, st := range c.Watchlist {
		if st.Symbol == "" {
			return fmt.Errorf("watchlist[%d]: symbol is required", i)
		}
		if st.Market != "" && st.Market != "tse" && st.Market != "otc" {
			return fmt.Errorf("watchlist[%d]: market must be tse or otc, got %q", i, st.Market)
		}
	}
	if c.HistoryMonths < 1 || c.HistoryMonths > 60 {
		return fmt.Errorf("history_months must be between 1 and 60")
	}
	if _, err := time.ParseDuration(c.Gemini.CacheTTL); err != nil {
		return fmt.Errorf("gemini.cache_ttl: %w", err)
	}
	return nil
}

// DigestTTL returns the digest cache TTL, falling back to an hour on a
// bad duration string.
func (c *Config) DigestTTL() time.Duration {
	d, err := time.ParseDuration(c.Gemini.CacheTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}
