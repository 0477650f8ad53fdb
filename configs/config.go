package configs

import (
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Quotes   QuotesConfig
	Catalog  CatalogConfig
	Ledger   LedgerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// QuotesConfig holds quote source configuration
type QuotesConfig struct {
	BaseURL        string
	AccessToken    string
	TimeoutSeconds int
}

// CatalogConfig holds instrument catalog configuration
type CatalogConfig struct {
	URL         string
	Path        string
	RefreshCron string
}

// LedgerConfig holds user ledger defaults
type LedgerConfig struct {
	StartingCash string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Quotes: QuotesConfig{
			BaseURL:        getEnv("QUOTE_API_URL", "http://127.0.0.1:8000"),
			AccessToken:    getEnv("QUOTE_ACCESS_TOKEN", ""),
			TimeoutSeconds: getEnvInt("QUOTE_TIMEOUT_SECONDS", 2),
		},
		Catalog: CatalogConfig{
			URL:         getEnv("INSTRUMENTS_URL", "https://api.kite.trade/instruments"),
			Path:        getEnv("INSTRUMENTS_PATH", "instruments.csv"),
			RefreshCron: getEnv("INSTRUMENTS_REFRESH_CRON", "0 6 * * *"),
		},
		Ledger: LedgerConfig{
			StartingCash: getEnv("STARTING_CASH", "100000"),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
