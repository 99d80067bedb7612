// botd entry point
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/batalabs/botd/internal/config"
	"github.com/batalabs/botd/internal/provider"
	"github.com/batalabs/botd/internal/session"
	"github.com/batalabs/botd/internal/stylize"
	"github.com/batalabs/botd/internal/telegram"
)

var version = "dev"

func init() {
	if version != "dev" {
		return
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
}

func main() {
	var cfgFile string
	var showVersion bool

	rootCmd := &cobra.Command{
		Use:           "botd",
		Short:         "Telegram AI chat bot with PDF tooling and an admin relay",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Printf("botd %s\n", version)
				return nil
			}
			return run(cfgFile)
		},
	}
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "Config file (default: ./botd.yaml)")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Print version and exit")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log := newLogger(cfg.LogLevel)

	completer := provider.NewClient(cfg.OpenRouterKey, cfg.Model)
	if !completer.Configured() {
		log.Warn().Msg("OPENROUTER_API_KEY not set, chat runs in fallback mode")
	}

	stylizer := stylize.NewClient(cfg.StylizeURL)
	if !stylizer.Configured() {
		log.Warn().Msg("STYLIZE_URL not set, stylization is a pass-through")
	}

	sessions := session.NewStore(cfg.TempDir)
	known := session.NewKnownUsers()
	relay := session.NewRelay()

	adapter, err := telegram.NewAdapter(cfg, sessions, known, relay, completer, stylizer, log)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().
		Str("bot", adapter.BotName()).
		Int64("admin_id", cfg.AdminID).
		Str("temp_dir", cfg.TempDir).
		Msg("bot starting")

	if err := adapter.Run(ctx); err != nil && err != context.Canceled {
		return fmt.Errorf("bot stopped: %w", err)
	}

	log.Info().Msg("bot stopped")
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
