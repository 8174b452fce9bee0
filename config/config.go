package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	ListenAddr         string         `yaml:"listen_addr"`
	Storage            StorageConfig  `yaml:"storage"`
	Telegram           TelegramConfig `yaml:"telegram"`
	Admin              AdminConfig    `yaml:"admin"`
	SecureCookies      bool           `yaml:"secure_cookies"`
	Timezone           string         `yaml:"timezone"`
	DigestTime         string         `yaml:"digest_time"`
	DigestCount        int            `yaml:"digest_count"`
	HotFeedSize        int            `yaml:"hot_feed_size"`
	BestCommentLimit   int            `yaml:"best_comment_limit"`
	FeaturedThreshold  int            `yaml:"featured_threshold"`
	SessionTTLHours    int            `yaml:"session_ttl_hours"`
	PreviewTimeoutSecs int            `yaml:"preview_timeout_secs"`
	LogLevel           string         `yaml:"log_level"`
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

// TelegramConfig enables moderator notifications and the daily digest.
// Both are disabled when Token is empty.
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// AdminConfig holds the administrator credential. Administrator login is
// disabled when PasswordHash is empty.
type AdminConfig struct {
	PasswordHash string `yaml:"password_hash"`
}

// Enabled reports whether notifications can be sent.
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

// SessionTTL is the login lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// PreviewTimeout bounds link preview fetches.
func (c *Config) PreviewTimeout() time.Duration {
	return time.Duration(c.PreviewTimeoutSecs) * time.Second
}

// SlogLevel maps LogLevel onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// digestTimeRegex validates HH:MM format with proper ranges.
var digestTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// GetConfigPath returns the config file path from environment or default.
func GetConfigPath() string {
	if path := os.Getenv("BOARD_CONFIG"); path != "" {
		return path
	}
	return "./config.yaml"
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "./board.db"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Seoul"
	}
	if cfg.DigestTime == "" {
		cfg.DigestTime = "09:00"
	}
	if cfg.DigestCount == 0 {
		cfg.DigestCount = 10
	}
	if cfg.HotFeedSize == 0 {
		cfg.HotFeedSize = 10
	}
	if cfg.BestCommentLimit == 0 {
		cfg.BestCommentLimit = 2
	}
	if cfg.FeaturedThreshold == 0 {
		cfg.FeaturedThreshold = 50
	}
	if cfg.SessionTTLHours == 0 {
		cfg.SessionTTLHours = 24 * 30
	}
	if cfg.PreviewTimeoutSecs == 0 {
		cfg.PreviewTimeoutSecs = 10
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("BOARD_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("BOARD_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("BOARD_DB_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("BOARD_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("BOARD_ADMIN_PASSWORD_HASH"); v != "" {
		cfg.Admin.PasswordHash = v
	}
	if v := os.Getenv("BOARD_SECURE_COOKIES"); v != "" {
		cfg.SecureCookies = v == "1" || strings.EqualFold(v, "true")
	}
}

func validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "sqlite", "memory":
	case "postgres":
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q (want sqlite, postgres or memory)", cfg.Storage.Driver)
	}
	if !digestTimeRegex.MatchString(cfg.DigestTime) {
		return fmt.Errorf("digest_time must be in HH:MM format (00:00-23:59), got %q", cfg.DigestTime)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.DigestCount < 0 || cfg.HotFeedSize < 0 || cfg.BestCommentLimit < 0 {
		return fmt.Errorf("digest_count, hot_feed_size and best_comment_limit must not be negative")
	}
	if cfg.SessionTTLHours < 0 {
		return fmt.Errorf("session_ttl_hours must not be negative")
	}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id is required when telegram.token is set")
	}
	if cfg.Admin.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.Admin.PasswordHash)); err != nil {
			return fmt.Errorf("admin.password_hash is not a bcrypt hash: %w", err)
		}
	}
	return nil
}
