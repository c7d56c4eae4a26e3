package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI    string
	TelegramToken  string
	AIAPIKey       string
	AIBaseURL      string
	AIModel        string
	HTTPListen     string
	APIToken       string
	APIUserID      int64
	Timezone       *time.Location
	NotifySchedule string
	DevMode        bool
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	loc, err := time.LoadLocation(getEnvOrDefault("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("failed to load TIMEZONE: %w", err)
	}

	var apiUserID int64
	if v := os.Getenv("API_USER_ID"); v != "" {
		apiUserID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse API_USER_ID: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURI:    os.Getenv("DATABASE_URI"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		AIAPIKey:       os.Getenv("AI_API_KEY"),
		AIBaseURL:      getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:        getEnvOrDefault("AI_MODEL", "openai/gpt-4o-mini"),
		HTTPListen:     getEnvOrDefault("HTTP_LISTEN", ":8080"),
		APIToken:       os.Getenv("API_TOKEN"),
		APIUserID:      apiUserID,
		Timezone:       loc,
		NotifySchedule: getEnvOrDefault("NOTIFY_SCHEDULE", "@every 1m"),
		DevMode:        os.Getenv("DEV_MODE") == "true",
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("DATABASE_URI is required")
	}
	if cfg.APIToken != "" && cfg.APIUserID == 0 {
		return nil, fmt.Errorf("API_USER_ID is required when API_TOKEN is set")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
