package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv unsets every variable Load reads so tests control the whole
// environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_BOT_TOKEN",
		"OPENROUTER_API_KEY",
		"ADMIN_ID",
		"TEMP_DIR",
		"STYLIZE_URL",
		"OPENROUTER_MODEL",
		"LOG_LEVEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadMissingBotTokenFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEMP_DIR", t.TempDir())

	_, err := Load("")
	if err == nil {
		t.Fatal("Load() succeeded without a bot token")
	}
	if !strings.Contains(err.Error(), "bot token") {
		t.Errorf("error %q does not mention the bot token", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TEMP_DIR", filepath.Join(t.TempDir(), "files"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AdminID != DefaultAdminID {
		t.Errorf("AdminID = %d, want default %d", cfg.AdminID, DefaultAdminID)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", cfg.Model, DefaultModel)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.OpenRouterKey != "" {
		t.Errorf("OpenRouterKey = %q, want empty (degraded mode)", cfg.OpenRouterKey)
	}
	if _, err := os.Stat(cfg.TempDir); err != nil {
		t.Errorf("temp dir was not created: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("ADMIN_ID", "42")
	t.Setenv("TEMP_DIR", filepath.Join(t.TempDir(), "files"))
	t.Setenv("OPENROUTER_MODEL", "gpt-4o-mini")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AdminID != 42 {
		t.Errorf("AdminID = %d, want 42", cfg.AdminID)
	}
	if cfg.OpenRouterKey != "sk-or-test" {
		t.Errorf("OpenRouterKey = %q, want sk-or-test", cfg.OpenRouterKey)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want gpt-4o-mini", cfg.Model)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "botd.yaml")
	content := "telegram_bot_token: 456:def\nadmin_id: 7\ntemp_dir: " + filepath.Join(dir, "tmp") + "\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BotToken != "456:def" {
		t.Errorf("BotToken = %q, want 456:def", cfg.BotToken)
	}
	if cfg.AdminID != 7 {
		t.Errorf("AdminID = %d, want 7", cfg.AdminID)
	}
}

func TestLoadMissingExplicitConfigFileFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() succeeded with a missing explicit config file")
	}
}
