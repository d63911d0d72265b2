package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// WebSocket timeouts
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64

	// Sync pipeline
	SyncIntervalMinutes int
	SourcePath          string
	SourceSheet         string
	FetchTimeout        time.Duration
	AliasFile           string

	// Cache
	CacheMaxEntries     int
	CacheTTL            time.Duration
	CachePersistCeiling int
	CacheVersion        string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		SourcePath:     getEnv("SOURCE_PATH", "data/calls.xlsx"),
		SourceSheet:    getEnv("SOURCE_SHEET", ""),
		AliasFile:      getEnv("ALIAS_FILE", ""),
		CacheVersion:   getEnv("CACHE_VERSION", "v1"),
	}

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	// Parse sync settings
	syncInterval, err := strconv.Atoi(getEnv("SYNC_INTERVAL_MINUTES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL_MINUTES: %w", err)
	}
	if syncInterval < 1 {
		syncInterval = 1
	}
	config.SyncIntervalMinutes = syncInterval

	fetchTimeout, err := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT_SECONDS: %w", err)
	}
	config.FetchTimeout = time.Duration(fetchTimeout) * time.Second

	// Parse cache settings
	maxEntries, err := strconv.Atoi(getEnv("CACHE_MAX_ENTRIES", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_MAX_ENTRIES: %w", err)
	}
	config.CacheMaxEntries = maxEntries

	cacheTTL, err := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "600"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_SECONDS: %w", err)
	}
	config.CacheTTL = time.Duration(cacheTTL) * time.Second

	persistCeiling, err := strconv.Atoi(getEnv("CACHE_PERSIST_CEILING_BYTES", "5242880"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_PERSIST_CEILING_BYTES: %w", err)
	}
	config.CachePersistCeiling = persistCeiling

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
