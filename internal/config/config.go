package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all runtime configuration, read from the environment.
// Only the warehouse settings are required across every binary; the
// bot and API validate the rest at startup with RequireBot.
type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`

	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	GeminiModel       string        `env:"GEMINI_MODEL" env-default:"gemini-2.5-flash"`
	ExtractionTimeout time.Duration `env:"EXTRACTION_TIMEOUT" env-default:"60s"`

	GCSBucket string `env:"GCS_BUCKET"`

	BigQueryProject string `env:"BIGQUERY_PROJECT" env-required:"true"`
	BigQueryDataset string `env:"BIGQUERY_DATASET" env-default:"receiptlog"`

	// DefaultCurrency is substituted at write time when extraction found none.
	DefaultCurrency string `env:"DEFAULT_CURRENCY" env-default:"IDR"`

	HTTPPort string `env:"PORT" env-default:"8080"`

	NotionToken      string `env:"NOTION_TOKEN"`
	NotionDatabaseID string `env:"NOTION_DATABASE_ID"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// RequireBot validates the settings the bot and webhook binaries need
// on top of the shared ones.
func (c *Config) RequireBot() error {
	switch {
	case c.TelegramBotToken == "":
		return fmt.Errorf("config.RequireBot: TELEGRAM_BOT_TOKEN is required")
	case c.GeminiAPIKey == "":
		return fmt.Errorf("config.RequireBot: GEMINI_API_KEY is required")
	case c.GCSBucket == "":
		return fmt.Errorf("config.RequireBot: GCS_BUCKET is required")
	}
	return nil
}
