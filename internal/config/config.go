package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"rentroll/internal/alerts"
	"rentroll/internal/log"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

const maxProjectionMonths = 120

type Config struct {
	// HTTP Server
	Port               string
	CORSOrigins        []string
	RateLimitPerMinute int
	CacheTTL           time.Duration

	LogLevel string

	// Backend selection
	DataBackend  string
	SQLiteDBPath string
	SeedFile     string
	WatchSeed    bool

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleAlertsSheet   string
	GoogleRentRollSheet string

	// Engines
	ScanSchedule           string
	ProjectionMonths       int
	AlertAdvanceNoticeDays int
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		CORSOrigins:        getEnvList("CORS_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CacheTTL:           getEnvDuration("CACHE_TTL", 5*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:  getEnv("DATA_BACKEND", BackendMemory),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/rentroll.db"),
		SeedFile:     getEnv("SEED_FILE", ""),
		WatchSeed:    getEnvBool("WATCH_SEED", false),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "rentroll"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "alerts"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleAlertsSheet:   getEnv("GOOGLE_ALERTS_SHEET", "Alerts"),
		GoogleRentRollSheet: getEnv("GOOGLE_RENT_ROLL_SHEET", "Rent Roll"),

		ScanSchedule:           getEnv("SCAN_SCHEDULE", "@hourly"),
		ProjectionMonths:       getEnvInt("PROJECTION_MONTHS", 12),
		AlertAdvanceNoticeDays: getEnvInt("ALERT_ADVANCE_NOTICE_DAYS", alerts.DefaultAdvanceNoticeDays),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	switch c.DataBackend {
	case BackendMemory:
		if c.WatchSeed && c.SeedFile == "" {
			errors = append(errors, "WATCH_SEED requires SEED_FILE")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, BackendMemory, BackendSQLite))
	}

	// AMQP is optional; when set it needs a valid scheme and names.
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := cron.ParseStandard(c.ScanSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid scan schedule '%s': %v", c.ScanSchedule, err))
	}

	if c.ProjectionMonths < 1 || c.ProjectionMonths > maxProjectionMonths {
		errors = append(errors, fmt.Sprintf("invalid projection months %d: must be between 1 and %d", c.ProjectionMonths, maxProjectionMonths))
	}

	if c.AlertAdvanceNoticeDays < 0 || c.AlertAdvanceNoticeDays > alerts.MaxAdvanceNoticeDays {
		errors = append(errors, fmt.Sprintf("invalid alert advance notice %d: must be between 0 and %d days", c.AlertAdvanceNoticeDays, alerts.MaxAdvanceNoticeDays))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AlertSettings returns the default scanner settings with the configured
// advance notice.
func (c *Config) AlertSettings() alerts.Settings {
	s := alerts.DefaultSettings()
	s.AdvanceNoticeDays = c.AlertAdvanceNoticeDays
	return s
}

// AMQPEnabled reports whether a broker is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
