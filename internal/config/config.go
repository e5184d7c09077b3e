package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the casino monolith
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Games    GamesConfig
}

// ServerConfig holds HTTP server and logging configuration
type ServerConfig struct {
	HTTPPort  string
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, console
	LogFile   string
}

// DatabaseConfig holds postgres connection configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// RedisConfig holds redis connection configuration
type RedisConfig struct {
	Host string
	Port string
}

// Load loads all configuration from the environment
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:  getEnv("HTTP_PORT", "8080"),
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
			LogFile:   getEnv("LOG_FILE", "logs/casino/monolith.log"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "casino"),
			Password: getEnv("DB_PASSWORD", "casino"),
			Name:     getEnv("DB_NAME", "casino"),
		},
		Redis: RedisConfig{
			Host: getEnv("REDIS_HOST", "localhost"),
			Port: getEnv("REDIS_PORT", "6379"),
		},
		Games: LoadGamesConfig(),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
