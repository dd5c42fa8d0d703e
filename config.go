package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Port string

	// Database configuration
	DBType     string // postgres, mysql, sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPass     string
	DBName     string // file path for sqlite
	DBMaxConns int

	JWTSecret     string
	TokenTTLHours int

	LogLevel string
}

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using system environment variables")
	}
}

// LoadConfig reads configuration from the environment
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBType:        strings.ToLower(getEnv("DB_TYPE", "postgres")),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", ""),
		DBPass:        getEnv("DB_PASS", ""),
		DBName:        getEnv("DB_NAME", ""),
		DBMaxConns:    getEnvAsInt("DB_MAX_CONNS", 10),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenTTLHours: getEnvAsInt("TOKEN_TTL_HOURS", 24),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DBName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	if cfg.DBType != "sqlite" && cfg.DBUser == "" {
		return nil, fmt.Errorf("DB_USER is required for %s", cfg.DBType)
	}

	return cfg, nil
}

// SlogLevel maps LOG_LEVEL onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
