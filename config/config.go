package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	SourceDir     string
	DevelopersDir string
	StatsFile     string
	ExportCSV     bool

	DBDriver         string
	DatabaseURL      string
	DBConnectRetries int

	MetricsTextfile string
	LogLevel        string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		SourceDir:     getEnv("SOURCE_DIR", "tools/source_excel"),
		DevelopersDir: getEnv("DEVELOPERS_DIR", "data/developers"),
		StatsFile:     getEnv("STATS_FILE", "data/meta/stats.json"),
		ExportCSV:     getEnvBool("EXPORT_CSV", false),

		DBDriver:         strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DBConnectRetries: getEnvInt("DB_CONNECT_RETRIES", 5),

		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source dir cannot be empty")
	}
	if c.DevelopersDir == "" {
		return fmt.Errorf("developers dir cannot be empty")
	}
	if c.StatsFile == "" {
		return fmt.Errorf("stats file cannot be empty")
	}
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return fmt.Errorf("db driver must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.DBConnectRetries <= 0 {
		return fmt.Errorf("db connect retries must be positive")
	}
	if c.LogLevel != "info" && c.LogLevel != "debug" {
		return fmt.Errorf("log level must be info or debug, got %q", c.LogLevel)
	}
	return nil
}

// MirrorEnabled reports whether converted catalogs are also written to a database.
func (c *Config) MirrorEnabled() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
