package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the service reads from the environment. It is
// loaded once at startup and passed by reference; business logic never reads
// the process environment directly.
type Config struct {
	// Google service account credentials
	ServiceAccountEmail string
	PrivateKey          string

	// Destination: a known folder id, or a folder name resolved per upload
	FolderID   string
	FolderName string

	// HTTP server
	Port string

	// Bound on each outbound Google API call
	UploadTimeout time.Duration

	// Optional folder-id cache; disabled when empty
	RedisAddr string

	// Upload history database path
	HistoryDB string
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		ServiceAccountEmail: os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL"),
		PrivateKey:          os.Getenv("GOOGLE_PRIVATE_KEY"),
		FolderID:            os.Getenv("GOOGLE_DRIVE_FOLDER_ID"),
		FolderName:          os.Getenv("GOOGLE_DRIVE_FOLDER_NAME"),
		Port:                getEnvWithDefault("PORT", "8080"),
		UploadTimeout:       time.Duration(getEnvInt("UPLOAD_TIMEOUT_SECONDS", 30)) * time.Second,
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		HistoryDB:           getEnvWithDefault("HISTORY_DB", "formdrop.db"),
	}
}

// Validate fails fast on missing required values so no partial operation is
// ever attempted against Google.
func (c *Config) Validate() error {
	if c.ServiceAccountEmail == "" {
		return fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_EMAIL is required")
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("GOOGLE_PRIVATE_KEY is required")
	}
	if c.FolderID == "" && c.FolderName == "" {
		return fmt.Errorf("one of GOOGLE_DRIVE_FOLDER_ID or GOOGLE_DRIVE_FOLDER_NAME is required")
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
