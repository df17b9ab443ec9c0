package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"relay_bot/internal/bot"
	"relay_bot/internal/catalog"
	"relay_bot/internal/config"
	"relay_bot/internal/relay"
	"relay_bot/internal/source"
	"relay_bot/internal/storage"
	"relay_bot/internal/translate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	b, err := bot.New(cfg.TelegramBotToken, store, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	discord, err := source.NewDiscord(cfg.DiscordBotToken, cfg.DiscordGuildID, log)
	if err != nil {
		log.Error("create discord source", "error", err)
		os.Exit(1)
	}

	var translator translate.Translator
	if cfg.TranslateEnabled() {
		translator = translate.NewOpenAI(cfg.TranslateAPIKey, cfg.TranslateModel, cfg.TranslateLang)
		log.Info("translation enabled", "lang", cfg.TranslateLang)
	}

	dispatcher := relay.New(store, b, translator, log)
	sync := catalog.New(store, discord, cfg.ChannelPrefix,
		time.Duration(cfg.SyncIntervalMin)*time.Minute, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting relay bot")

	go sync.Run(ctx, discord.Ready())
	go dispatcher.Run(ctx, discord.Events())
	go func() {
		if err := discord.Run(ctx); err != nil {
			log.Error("discord connection", "error", err)
			cancel()
		}
	}()

	b.Run(ctx)

	log.Info("relay bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
