package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Telegram
	BotToken  string
	ChannelID int64 // target chat for republished drop files
	Polling   bool  // long-poll getUpdates instead of serving a webhook

	// Server
	ServerPort string

	// Ingestion
	WatchDir      string
	CaptionLimit  int           // max characters per caption batch
	MessageDelay  time.Duration // minimum gap between outbound sends
	RetryMax      int           // rate-limit retries before giving up
	RetryDelay    time.Duration // fallback wait when the API omits retry_after
	SweepInterval time.Duration // scheduled re-scan of the watch directory

	// Paths
	DatabaseFile string // $CONFIG_DIR/commander.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("CAPTION_LIMIT", 1024)
	viper.SetDefault("MESSAGE_DELAY_MS", 500)
	viper.SetDefault("RETRY_MAX", 3)
	viper.SetDefault("RETRY_DELAY_SECONDS", 10)
	viper.SetDefault("SWEEP_INTERVAL_MINUTES", 5)
	viper.SetDefault("LOG_LEVEL", "info")

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "telegram-commander")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	watchDir := viper.GetString("WATCH_DIR")
	if watchDir == "" {
		watchDir = filepath.Join(configDir, "drops")
	}
	if err := os.MkdirAll(watchDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create watch directory: %w", err)
	}

	config := &Config{
		// Telegram
		BotToken:  viper.GetString("BOT_TOKEN"),
		ChannelID: viper.GetInt64("CHANNEL_ID"),
		Polling:   viper.GetBool("POLLING"),

		// Server
		ServerPort: viper.GetString("SERVER_PORT"),

		// Ingestion
		WatchDir:      watchDir,
		CaptionLimit:  viper.GetInt("CAPTION_LIMIT"),
		MessageDelay:  time.Duration(viper.GetInt("MESSAGE_DELAY_MS")) * time.Millisecond,
		RetryMax:      viper.GetInt("RETRY_MAX"),
		RetryDelay:    time.Duration(viper.GetInt("RETRY_DELAY_SECONDS")) * time.Second,
		SweepInterval: time.Duration(viper.GetInt("SWEEP_INTERVAL_MINUTES")) * time.Minute,

		// Paths
		DatabaseFile: filepath.Join(configDir, "commander.db"),

		// Logging
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields
	if config.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if config.ChannelID == 0 {
		return nil, fmt.Errorf("CHANNEL_ID is required")
	}

	return config, nil
}
