package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppName         string
	TerminalID      string
	Username        string
	APIBaseURL      string
	APIToken        string
	APITimeout      time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CatalogCacheTTL time.Duration
	ProbeInterval   time.Duration
	ScanHistorySize int
	ReceiptDir      string
	LogLevel        string
}

func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "Entsuki POS")
	v.SetDefault("POS_TERMINAL_ID", "TERMINAL-01")
	v.SetDefault("POS_USERNAME", "pos")
	v.SetDefault("API_TIMEOUT_SECONDS", 10)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CATALOG_CACHE_TTL_MINUTES", 30)
	v.SetDefault("PROBE_INTERVAL_SECONDS", 15)
	v.SetDefault("SCAN_HISTORY_SIZE", 20)
	v.SetDefault("RECEIPT_DIR", "./receipts")
	v.SetDefault("LOG_LEVEL", "info")

	cfg := Config{
		AppName:         v.GetString("APP_NAME"),
		TerminalID:      strings.TrimSpace(v.GetString("POS_TERMINAL_ID")),
		Username:        strings.TrimSpace(v.GetString("POS_USERNAME")),
		APIBaseURL:      strings.TrimRight(strings.TrimSpace(v.GetString("API_BASE_URL")), "/"),
		APIToken:        strings.TrimSpace(v.GetString("API_TOKEN")),
		APITimeout:      time.Duration(v.GetInt("API_TIMEOUT_SECONDS")) * time.Second,
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisDB:         v.GetInt("REDIS_DB"),
		CatalogCacheTTL: time.Duration(v.GetInt("CATALOG_CACHE_TTL_MINUTES")) * time.Minute,
		ProbeInterval:   time.Duration(v.GetInt("PROBE_INTERVAL_SECONDS")) * time.Second,
		ScanHistorySize: v.GetInt("SCAN_HISTORY_SIZE"),
		ReceiptDir:      v.GetString("RECEIPT_DIR"),
		LogLevel:        v.GetString("LOG_LEVEL"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL must be set")
	}
	if c.TerminalID == "" {
		return fmt.Errorf("POS_TERMINAL_ID must not be blank")
	}
	if c.APITimeout < time.Second {
		return fmt.Errorf("API_TIMEOUT_SECONDS must be at least 1")
	}
	if c.ScanHistorySize < 1 {
		return fmt.Errorf("SCAN_HISTORY_SIZE must be at least 1")
	}
	return nil
}
