// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DiscordBotToken  string
	DiscordGuildID   string
	ChannelPrefix    string
	DatabasePath     string
	LogLevel         string
	SyncIntervalMin  int
	TranslateAPIKey  string
	TranslateModel   string
	TranslateLang    string
}

// Load reads configuration from the environment, after loading a local
// .env file when one exists. Missing required credentials are fatal.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	discordToken := os.Getenv("DISCORD_BOT_TOKEN")
	if discordToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}

	guildID := os.Getenv("DISCORD_GUILD_ID")
	if guildID == "" {
		return nil, fmt.Errorf("DISCORD_GUILD_ID is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	syncInterval := 60
	if raw := os.Getenv("SYNC_INTERVAL_MINUTES"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid SYNC_INTERVAL_MINUTES %q", raw)
		}
		syncInterval = v
	}

	lang := os.Getenv("TRANSLATE_LANG")
	if lang == "" {
		lang = "Russian"
	}

	return &Config{
		TelegramBotToken: token,
		DiscordBotToken:  discordToken,
		DiscordGuildID:   guildID,
		ChannelPrefix:    os.Getenv("CHANNEL_NAME_PREFIX"),
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
		SyncIntervalMin:  syncInterval,
		TranslateAPIKey:  os.Getenv("TRANSLATE_API_KEY"),
		TranslateModel:   os.Getenv("TRANSLATE_MODEL"),
		TranslateLang:    lang,
	}, nil
}

// TranslateEnabled reports whether the optional translation step is configured.
func (c *Config) TranslateEnabled() bool {
	return c.TranslateAPIKey != ""
}
