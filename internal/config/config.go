package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CasdoorConfig holds the identity provider settings
type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

// PredictionConfig holds the career prediction endpoint settings
type PredictionConfig struct {
	BaseURL string
	Timeout time.Duration
}

// MailerConfig holds the external mail endpoints
type MailerConfig struct {
	OTPEndpoint     string
	WelcomeEndpoint string
	Timeout         time.Duration
}

// KafkaConfig holds the event broker settings
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	Casdoor    CasdoorConfig
	Prediction PredictionConfig
	Mailer     MailerConfig
	Kafka      KafkaConfig
}

// LoadConfig reads configuration from environment variables. A .env file
// is loaded first when present, real environment variables win.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Casdoor: CasdoorConfig{
			Endpoint:     os.Getenv("CASDOOR_ENDPOINT"),
			ClientID:     os.Getenv("CASDOOR_CLIENT_ID"),
			ClientSecret: os.Getenv("CASDOOR_CLIENT_SECRET"),
			Cert:         os.Getenv("CASDOOR_CERT"),
			Organization: getEnv("CASDOOR_ORGANIZATION", "devpath"),
			Application:  getEnv("CASDOOR_APPLICATION", "devpath-service"),
		},
		Prediction: PredictionConfig{
			BaseURL: os.Getenv("PREDICTION_BASE_URL"),
			Timeout: getEnvDuration("PREDICTION_TIMEOUT", 10*time.Second),
		},
		Mailer: MailerConfig{
			OTPEndpoint:     os.Getenv("MAILER_OTP_ENDPOINT"),
			WelcomeEndpoint: os.Getenv("MAILER_WELCOME_ENDPOINT"),
			Timeout:         getEnvDuration("MAILER_TIMEOUT", 10*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitCSV(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "devpath.events"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
