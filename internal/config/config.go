package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Data source kinds.
const (
	SourceCSV    = "csv"
	SourceRemote = "remote"
	SourceYahoo  = "yahoo"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port            int      `yaml:"port"`
		AllowedOrigins  []string `yaml:"allowed_origins"`
		RequestTimeout  Duration `yaml:"request_timeout"`
		ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	DataSource struct {
		Kind          string `yaml:"kind"`
		Symbol        string `yaml:"symbol"`
		Company       string `yaml:"company"`
		Days          int    `yaml:"days"`
		CSVPath       string `yaml:"csv_path"`
		SentimentPath string `yaml:"sentiment_path"`
		BaseURL       string `yaml:"base_url"`
		APIKey        string `yaml:"api_key"`
	} `yaml:"data_source"`
	Model struct {
		Name      string  `yaml:"name"`
		RMSE      float64 `yaml:"rmse"`
		StateFile string  `yaml:"state_file"`
	} `yaml:"model"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		PruneCron   string `yaml:"prune_cron"`
	} `yaml:"schedule"`
	Session struct {
		TTL Duration `yaml:"ttl"`
	} `yaml:"session"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Duration is a time.Duration written as "30s" or "2h" in YAML.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// TelegramEnabled reports whether both bot token and chat id are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// PathFromEnv returns CONFIG_PATH or the default config path.
func PathFromEnv() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies environment variable overrides
// and defaults. A missing file is not an error.
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

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"DATA_SOURCE":        &cfg.DataSource.Kind,
		"SYMBOL":             &cfg.DataSource.Symbol,
		"COMPANY":            &cfg.DataSource.Company,
		"CSV_PATH":           &cfg.DataSource.CSVPath,
		"SENTIMENT_PATH":     &cfg.DataSource.SentimentPath,
		"REMOTE_BASE_URL":    &cfg.DataSource.BaseURL,
		"REMOTE_API_KEY":     &cfg.DataSource.APIKey,
		"MODEL_STATE_FILE":   &cfg.Model.StateFile,
		"CRON_REFRESH":       &cfg.Schedule.RefreshCron,
		"TELEGRAM_BOT_TOKEN": &cfg.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &cfg.Telegram.ChatID,
		"SQLITE_PATH":        &cfg.Database.SQLitePath,
		"LOG_LEVEL":          &cfg.Log.Level,
		"HTTPS_PROXY":        &cfg.Proxy,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("MODEL_RMSE"); v != "" {
		rmse, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid MODEL_RMSE %q: %w", v, err)
		}
		cfg.Model.RMSE = rmse
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL %q: %w", v, err)
		}
		cfg.Session.TTL = Duration(ttl)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8501
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = Duration(60 * time.Second)
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	cfg.DataSource.Kind = strings.ToLower(cfg.DataSource.Kind)
	if cfg.DataSource.Kind == "" {
		cfg.DataSource.Kind = SourceCSV
	}
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "AAPL"
	}
	if cfg.DataSource.Company == "" {
		cfg.DataSource.Company = "Apple"
	}
	if cfg.DataSource.Days == 0 {
		cfg.DataSource.Days = 365
	}
	if cfg.DataSource.CSVPath == "" {
		cfg.DataSource.CSVPath = "data/aapl_features.csv"
	}
	if cfg.Model.StateFile == "" {
		cfg.Model.StateFile = "data/model_metric.json"
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 30 22 * * 1-5"
	}
	if cfg.Schedule.PruneCron == "" {
		cfg.Schedule.PruneCron = "0 */10 * * * *"
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = Duration(2 * time.Hour)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	switch c.DataSource.Kind {
	case SourceCSV:
		if c.DataSource.CSVPath == "" {
			return fmt.Errorf("data_source.csv_path is required for the csv source")
		}
	case SourceRemote:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the remote source")
		}
	case SourceYahoo:
	default:
		return fmt.Errorf("data_source.kind must be one of csv, remote, yahoo; got %q", c.DataSource.Kind)
	}
	if c.DataSource.Days <= 0 {
		return fmt.Errorf("data_source.days must be positive")
	}
	if c.Model.RMSE < 0 {
		return fmt.Errorf("model.rmse must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"schedule.refresh_cron": c.Schedule.RefreshCron,
		"schedule.prune_cron":   c.Schedule.PruneCron,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
