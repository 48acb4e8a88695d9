package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"NavSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Funds      []model.WatchedFund `yaml:"funds"`
	DataSource struct {
		Provider     string `yaml:"provider"` // eastmoney, rest or mock
		BaseURL      string `yaml:"base_url"`
		APIKey       string `yaml:"api_key"`
		HistoryLimit int    `yaml:"history_limit"`
	} `yaml:"data_source"`
	Schedule struct {
		SampleCron          string `yaml:"sample_cron"`
		CleanupCron         string `yaml:"cleanup_cron"`
		TimezoneOffsetHours int    `yaml:"timezone_offset_hours"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	RetentionDays int `yaml:"retention_days"`
	Telegram      struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads an optional .env, then the YAML file, then applies environment
// variable overrides and defaults.
func Load(path string) (*Config, error) {
	// .env is optional; existing environment wins
	_ = godotenv.Load()

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
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("NAV_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("NAV_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SAMPLE_CRON"); v != "" {
		cfg.Schedule.SampleCron = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FUND_CODES"); v != "" {
		cfg.Funds = mergeCodes(cfg.Funds, strings.Split(v, ","))
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		if cfg.DataSource.BaseURL != "" {
			cfg.DataSource.Provider = "rest"
		} else {
			cfg.DataSource.Provider = "eastmoney"
		}
	}
	if cfg.DataSource.HistoryLimit == 0 {
		cfg.DataSource.HistoryLimit = 30
	}
	if cfg.Schedule.SampleCron == "" {
		cfg.Schedule.SampleCron = "0 */5 9-15 * * 1-5"
	}
	if cfg.Schedule.CleanupCron == "" {
		cfg.Schedule.CleanupCron = "0 0 8 * * *"
	}
	if cfg.Schedule.TimezoneOffsetHours == 0 {
		cfg.Schedule.TimezoneOffsetHours = 8
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/nav_sentinel.db"
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 30
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	return cfg, nil
}

// mergeCodes appends codes not already configured.
func mergeCodes(funds []model.WatchedFund, codes []string) []model.WatchedFund {
	seen := make(map[string]bool, len(funds))
	for _, f := range funds {
		seen[f.Code] = true
	}
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		funds = append(funds, model.WatchedFund{Code: c})
	}
	return funds
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if len(c.Funds) == 0 {
		return fmt.Errorf("funds: at least one fund is required")
	}
	seen := make(map[string]bool, len(c.Funds))
	for i, f := range c.Funds {
		if strings.TrimSpace(f.Code) == "" {
			return fmt.Errorf("funds[%d].code is required", i)
		}
		if seen[f.Code] {
			return fmt.Errorf("funds[%d].code %q is duplicated", i, f.Code)
		}
		seen[f.Code] = true
		if f.ThresholdUp < 0 || f.ThresholdDown < 0 {
			return fmt.Errorf("funds[%d]: thresholds must not be negative", i)
		}
	}
	switch c.DataSource.Provider {
	case "eastmoney", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.HistoryLimit < 2 {
		return fmt.Errorf("data_source.history_limit must be at least 2")
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive")
	}
	if c.Schedule.TimezoneOffsetHours < -12 || c.Schedule.TimezoneOffsetHours > 14 {
		return fmt.Errorf("schedule.timezone_offset_hours out of range")
	}
	return nil
}

// Location returns the market time zone.
func (c *Config) Location() *time.Location {
	offset := c.Schedule.TimezoneOffsetHours
	return time.FixedZone(fmt.Sprintf("UTC%+d", offset), offset*3600)
}

// TelegramEnabled reports whether alerts and commands can be delivered.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
