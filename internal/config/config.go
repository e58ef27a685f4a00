package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Telegram Bot API
	TelegramBotToken   string
	TelegramAPIBaseURL string

	// Auth
	JWTSecret string

	// Database
	DatabaseURL string

	// Storage
	StorageRoot string

	// Delivery
	DeliveryMaxRetries     int
	DesignerCommissionRate float64

	// Server
	Port        string
	Environment string
}

func Load() (*Config, error) {
	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIBaseURL: getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		StorageRoot: getEnv("STORAGE_ROOT", "./storage"),

		DeliveryMaxRetries:     getEnvInt("DELIVERY_MAX_RETRIES", 3),
		DesignerCommissionRate: getEnvFloat("DESIGNER_COMMISSION_RATE", 1.0),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DeliveryMaxRetries < 1 {
		return fmt.Errorf("DELIVERY_MAX_RETRIES must be at least 1")
	}
	if c.DesignerCommissionRate <= 0 || c.DesignerCommissionRate > 1 {
		return fmt.Errorf("DESIGNER_COMMISSION_RATE must be in (0, 1]")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
