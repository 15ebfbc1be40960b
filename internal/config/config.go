package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all process-level settings. It is constructed once at startup and
// passed by reference to the components that need it.
type Config struct {
	AppPort     string
	AppVersion  string
	DBUser      string
	DBPassword  string
	DBHost      string
	DBName      string
	CORSOrigins []string
	GinLogging  bool
}

// Version is the service version reported by the health endpoint.
const Version = "1.0.0"

// Load reads the configuration from environment variables, with an optional .env
// file for local development. Every key has a sensible fallback except the database
// credentials, which default to empty and fail at connection time.
func Load() *Config {
	// A missing .env file is the normal case in production.
	_ = godotenv.Load()
	return &Config{
		AppPort:     getEnv("APP_PORT", "8080"),
		AppVersion:  Version,
		DBUser:      getEnv("DBUSER", ""),
		DBPassword:  getEnv("DBPWD", ""),
		DBHost:      getEnv("DBHOST", "localhost:3306"),
		DBName:      getEnv("DBNAME", "contacts"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8000")),
		GinLogging:  !strings.EqualFold(getEnv("GIN_LOGGING", "on"), "off"),
	}
}

// DSN builds the MySQL connection string. parseTime makes the driver scan DATE
// columns into time.Time values.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true",
		c.DBUser, c.DBPassword, c.DBHost, c.DBName)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
