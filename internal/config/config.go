package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SourceConfig declares one model's precomputed results file.
type SourceConfig struct {
	Name    string `yaml:"name" validate:"required"`
	Path    string `yaml:"path" validate:"required"`
	Mapping struct {
		Predicted string `yaml:"predicted"`
		MAE       string `yaml:"mae"`
		RMSE      string `yaml:"rmse"`
	} `yaml:"mapping"`
}

// Config holds all application configuration.
type Config struct {
	Logger struct {
		Level    string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Encoding string `yaml:"encoding" default:"console" validate:"oneof=json console"`
	} `yaml:"logger"`
	Comparison struct {
		Sources       []SourceConfig `yaml:"sources" validate:"required,min=1,dive"`
		MatchPolicy   string         `yaml:"match_policy" default:"first" validate:"oneof=first last strict"`
		HistogramBins int            `yaml:"histogram_bins" default:"50" validate:"gt=0"`
		PreviewRows   int            `yaml:"preview_rows" validate:"gte=0"`
	} `yaml:"comparison"`
	Forecast struct {
		Ticker         string   `yaml:"ticker" default:"AAPL" validate:"required"`
		Horizon        int      `yaml:"horizon" default:"7" validate:"min=1,max=30"`
		HistoryDays    int      `yaml:"history_days" default:"365" validate:"min=30"`
		TestRatio      float64  `yaml:"test_ratio" default:"0.2" validate:"gt=0,lt=1"`
		BaselineWindow int      `yaml:"baseline_window" default:"20" validate:"min=1"`
		WatchTickers   []string `yaml:"watch_tickers"`
		WatchCron      string   `yaml:"watch_cron" default:"0 30 22 * * 1-5"`
	} `yaml:"forecast"`
	DataSource struct {
		Provider          string  `yaml:"provider" default:"yahoo" validate:"oneof=yahoo rest mock"`
		BaseURL           string  `yaml:"base_url" validate:"required_if=Provider rest"`
		APIKey            string  `yaml:"api_key"`
		CacheTTLSeconds   int     `yaml:"cache_ttl_seconds" default:"300" validate:"gte=0"`
		RequestsPerSecond float64 `yaml:"requests_per_second" default:"2" validate:"gt=0"`
	} `yaml:"data_source"`
	Server struct {
		Addr string `yaml:"addr" default:":8080"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/predictlens.db"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// DefaultPreviewRows is the merged-table preview size when preview_rows is
// not set. An explicit 0 disables the preview.
const DefaultPreviewRows = 200

// DefaultSources are the three result files compared when none are configured.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: "SimpleRNN", Path: "hasil_simplernn2.json"},
		{Name: "GRU", Path: "hasil_gru2.json"},
		{Name: "LSTM", Path: "hasil_lstm2.json"},
	}
}

// Load reads config from a YAML file, then applies defaults and environment
// variable overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Comparison.PreviewRows = DefaultPreviewRows

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if len(cfg.Comparison.Sources) == 0 {
		cfg.Comparison.Sources = DefaultSources()
	}

	// Environment variable overrides
	if v := os.Getenv("PREDICTLENS_TICKER"); v != "" {
		cfg.Forecast.Ticker = v
	}
	if v := os.Getenv("PREDICTLENS_HORIZON"); v != "" {
		if h, err := strconv.Atoi(v); err == nil {
			cfg.Forecast.Horizon = h
		}
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v, ok := os.LookupEnv("SQLITE_PATH"); ok {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}

	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// NotificationsEnabled reports whether Telegram credentials are present.
func (c *Config) NotificationsEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
