package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":8080")
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, "sqlite")
	}
	if cfg.Storage.Path != "./board.db" {
		t.Errorf("Storage.Path = %q, want %q", cfg.Storage.Path, "./board.db")
	}
	if cfg.Timezone != "Asia/Seoul" {
		t.Errorf("Timezone = %q, want %q", cfg.Timezone, "Asia/Seoul")
	}
	if cfg.DigestTime != "09:00" {
		t.Errorf("DigestTime = %q, want %q", cfg.DigestTime, "09:00")
	}
	if cfg.HotFeedSize != 10 {
		t.Errorf("HotFeedSize = %d, want 10", cfg.HotFeedSize)
	}
	if cfg.BestCommentLimit != 2 {
		t.Errorf("BestCommentLimit = %d, want 2", cfg.BestCommentLimit)
	}
	if cfg.FeaturedThreshold != 50 {
		t.Errorf("FeaturedThreshold = %d, want 50", cfg.FeaturedThreshold)
	}
	if cfg.SessionTTL() != 30*24*time.Hour {
		t.Errorf("SessionTTL = %v, want 720h", cfg.SessionTTL())
	}
	if cfg.PreviewTimeout() != 10*time.Second {
		t.Errorf("PreviewTimeout = %v, want 10s", cfg.PreviewTimeout())
	}
	if cfg.Telegram.Enabled() {
		t.Error("telegram should be disabled without a token")
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("SlogLevel = %v, want info", cfg.SlogLevel())
	}
}

func TestLoadOverrideDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
listen_addr: "127.0.0.1:9000"
storage:
  driver: postgres
  dsn: "postgres://board@localhost/board"
telegram:
  token: "test-token"
  chat_id: 123456
timezone: "UTC"
digest_time: "18:30"
digest_count: 5
hot_feed_size: 20
best_comment_limit: 3
featured_threshold: 80
session_ttl_hours: 12
preview_timeout_secs: 3
log_level: "debug"
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.DSN == "" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if !cfg.Telegram.Enabled() || cfg.Telegram.ChatID != 123456 {
		t.Errorf("Telegram = %+v", cfg.Telegram)
	}
	if cfg.DigestTime != "18:30" || cfg.DigestCount != 5 {
		t.Errorf("digest = %s/%d", cfg.DigestTime, cfg.DigestCount)
	}
	if cfg.HotFeedSize != 20 || cfg.BestCommentLimit != 3 || cfg.FeaturedThreshold != 80 {
		t.Errorf("feed settings = %d/%d/%d", cfg.HotFeedSize, cfg.BestCommentLimit, cfg.FeaturedThreshold)
	}
	if cfg.SessionTTL() != 12*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL())
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, want debug", cfg.SlogLevel())
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad digest time", `digest_time: "9:00"`},
		{"digest hour out of range", `digest_time: "25:00"`},
		{"bad timezone", `timezone: "Invalid/Zone"`},
		{"unknown driver", "storage:\n  driver: redis"},
		{"postgres without dsn", "storage:\n  driver: postgres"},
		{"token without chat", "telegram:\n  token: abc"},
		{"negative feed size", `hot_feed_size: -1`},
		{"admin hash not bcrypt", "admin:\n  password_hash: hunter2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Fatalf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "listen_addr: [unclosed")); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("BOARD_DB_PATH", "/tmp/override.db")
	t.Setenv("BOARD_LISTEN_ADDR", ":7777")
	t.Setenv("BOARD_DB_DSN", "postgres://env")
	t.Setenv("BOARD_TELEGRAM_TOKEN", "env-token")

	cfg, err := Load(writeConfig(t, "telegram:\n  chat_id: 42\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.Path != "/tmp/override.db" {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.ListenAddr != ":7777" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Storage.DSN != "postgres://env" {
		t.Errorf("Storage.DSN = %q", cfg.Storage.DSN)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Errorf("Telegram.Token = %q", cfg.Telegram.Token)
	}
}

func TestLoadAdminAndCookies(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(writeConfig(t, "secure_cookies: true\nadmin:\n  password_hash: '"+string(hash)+"'\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.SecureCookies {
		t.Error("SecureCookies should be true")
	}
	if cfg.Admin.PasswordHash != string(hash) {
		t.Errorf("Admin.PasswordHash = %q, want %q", cfg.Admin.PasswordHash, hash)
	}

	defaults, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if defaults.SecureCookies {
		t.Error("SecureCookies should default to false")
	}
	if defaults.Admin.PasswordHash != "" {
		t.Error("admin login should be disabled by default")
	}
}

func TestAdminAndCookieEnvironmentOverrides(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOARD_ADMIN_PASSWORD_HASH", string(hash))
	t.Setenv("BOARD_SECURE_COOKIES", "true")

	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Admin.PasswordHash != string(hash) {
		t.Errorf("Admin.PasswordHash = %q", cfg.Admin.PasswordHash)
	}
	if !cfg.SecureCookies {
		t.Error("SecureCookies should be set from the environment")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("BOARD_CONFIG", "")
	if got := GetConfigPath(); got != "./config.yaml" {
		t.Errorf("GetConfigPath() = %q, want ./config.yaml", got)
	}

	t.Setenv("BOARD_CONFIG", "/etc/board.yaml")
	if got := GetConfigPath(); got != "/etc/board.yaml" {
		t.Errorf("GetConfigPath() = %q, want /etc/board.yaml", got)
	}
}
