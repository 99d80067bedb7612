package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultAdminID is the admin chat used when ADMIN_ID is not configured.
const DefaultAdminID int64 = 5255121773

// DefaultModel is the OpenRouter model used for chat completions.
const DefaultModel = "o4-mini"

// Config holds the full runtime configuration for the bot.
//
// The bot token is the only hard requirement: without it the process refuses
// to start. A missing OpenRouter key degrades chat to fallback replies, and a
// missing stylize endpoint degrades stylization to pass-through.
type Config struct {
	BotToken      string
	OpenRouterKey string
	AdminID       int64
	TempDir       string
	StylizeURL    string
	Model         string
	LogLevel      string
}

// Load resolves configuration from the environment and an optional config
// file (botd.yaml in the working directory, or the path given in cfgFile).
// Environment variables win over file values.
func Load(cfgFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("admin_id", DefaultAdminID)
	v.SetDefault("temp_dir", "temp_files")
	v.SetDefault("openrouter_model", DefaultModel)
	v.SetDefault("log_level", "info")

	for _, key := range []string{
		"telegram_bot_token",
		"openrouter_api_key",
		"admin_id",
		"temp_dir",
		"stylize_url",
		"openrouter_model",
		"log_level",
	} {
		// TELEGRAM_BOT_TOKEN, OPENROUTER_API_KEY, ...
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("botd")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// Optional when not requested explicitly.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	cfg := Config{
		BotToken:      strings.TrimSpace(v.GetString("telegram_bot_token")),
		OpenRouterKey: strings.TrimSpace(v.GetString("openrouter_api_key")),
		AdminID:       v.GetInt64("admin_id"),
		TempDir:       v.GetString("temp_dir"),
		StylizeURL:    strings.TrimSpace(v.GetString("stylize_url")),
		Model:         v.GetString("openrouter_model"),
		LogLevel:      v.GetString("log_level"),
	}

	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("telegram bot token not set: export TELEGRAM_BOT_TOKEN or set telegram_bot_token in botd.yaml")
	}
	if cfg.AdminID == 0 {
		return Config{}, fmt.Errorf("admin_id must be a non-zero Telegram user id")
	}

	if err := os.MkdirAll(cfg.TempDir, 0o700); err != nil {
		return Config{}, fmt.Errorf("creating temp dir %s: %w", cfg.TempDir, err)
	}

	return cfg, nil
}
