package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP server
	Port              string
	LogLevel          string
	HTTPClientTimeout time.Duration
	RateLimitPerMin   int

	// Backend selection
	DataBackend  string
	SQLiteDBPath string
	DataFile     string

	// AMQP
	AMQPURL           string
	AMQPExchange      string
	AMQPQueue         string
	AMQPReminderQueue string

	// Google Sheets
	GoogleSpreadsheetID       string
	GoogleSheetName           string
	GoogleServiceAccountJSON  string
	GoogleServiceAccountFile  string
	GoogleApplicationDefaults string

	// Exchange rates
	ExchangeRateURL string
	RatesCacheTTL   time.Duration

	// News
	NewsAPIURL    string
	NewsAPIKey    string
	NewsCacheTTL  time.Duration
	NewsCacheSize int

	// Reminders
	ReminderCron string
	ReminderDays int

	// Analytics
	DurationSource string

	// Sheets sync worker
	SyncBatchSize int
	SyncInterval  time.Duration
}

var (
	validBackends        = []string{"memory", "sheets", "sqlite"}
	validLogLevels       = []string{"debug", "info", "warn", "error"}
	validDurationSources = []string{"simulated", "created_at"}
)

func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		HTTPClientTimeout: getEnvDuration("HTTP_CLIENT_TIMEOUT", 10*time.Second),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/subtrack.db"),
		DataFile:     getEnv("DATA_FILE", "./data/subscriptions.json"),

		AMQPURL:           getEnv("AMQP_URL", ""),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", "subtrack"),
		AMQPQueue:         getEnv("AMQP_QUEUE", "subscription_changes"),
		AMQPReminderQueue: getEnv("AMQP_REMINDER_QUEUE", "payment_reminders"),

		GoogleSpreadsheetID:       getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:           getEnv("GOOGLE_SHEET_NAME", "Subscriptions"),
		GoogleServiceAccountJSON:  getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile:  getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleApplicationDefaults: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		ExchangeRateURL: getEnv("EXCHANGE_RATE_URL", "https://api.exchangerate-api.com/v4/latest/USD"),
		RatesCacheTTL:   getEnvDuration("RATES_CACHE_TTL", time.Hour),

		NewsAPIURL:    getEnv("NEWS_API_URL", "https://newsapi.org/v2/everything"),
		NewsAPIKey:    getEnv("NEWS_API_KEY", ""),
		NewsCacheTTL:  getEnvDuration("NEWS_CACHE_TTL", 10*time.Minute),
		NewsCacheSize: getEnvInt("NEWS_CACHE_SIZE", 100),

		ReminderCron: getEnv("REMINDER_CRON", "0 9 * * *"),
		ReminderDays: getEnvInt("REMINDER_DAYS", 3),

		DurationSource: getEnv("DURATION_SOURCE", "simulated"),

		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 20),
		SyncInterval:  getEnvDuration("SYNC_INTERVAL", 30*time.Second),
	}
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.DataBackend == "sheets" {
		errs = append(errs, c.validateSheets()...)
	}

	if !slices.Contains(validDurationSources, c.DurationSource) {
		errs = append(errs, fmt.Sprintf("invalid duration source '%s': must be one of %v", c.DurationSource, validDurationSources))
	}

	if _, err := cron.ParseStandard(c.ReminderCron); err != nil {
		errs = append(errs, fmt.Sprintf("invalid reminder schedule '%s': %v", c.ReminderCron, err))
	}
	if c.ReminderDays < 0 || c.ReminderDays > 31 {
		errs = append(errs, fmt.Sprintf("invalid reminder days %d: must be between 0 and 31", c.ReminderDays))
	}

	if c.HTTPClientTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid HTTP client timeout %v: must be positive", c.HTTPClientTimeout))
	}
	if c.RatesCacheTTL <= 0 {
		errs = append(errs, fmt.Sprintf("invalid rates cache TTL %v: must be positive", c.RatesCacheTTL))
	}
	if c.NewsCacheTTL <= 0 {
		errs = append(errs, fmt.Sprintf("invalid news cache TTL %v: must be positive", c.NewsCacheTTL))
	}
	if c.NewsCacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid news cache size %d: must be at least 1", c.NewsCacheSize))
	}
	if c.RateLimitPerMin < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMin))
	}

	if c.SyncBatchSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errs = append(errs, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}
	if c.SyncInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ValidateSheetsMirror checks the settings the sheets-sync worker needs
// regardless of the API backend.
func (c *Config) ValidateSheetsMirror() error {
	errs := c.validateSheets()
	if c.AMQPURL == "" {
		errs = append(errs, "AMQP URL is required for the sheets sync worker")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func (c *Config) validateSheets() []string {
	var errs []string
	if c.GoogleSpreadsheetID == "" {
		errs = append(errs, "Google Spreadsheet ID is required when using Google Sheets")
	}
	if c.GoogleSheetName == "" {
		errs = append(errs, "Google Sheet name is required when using Google Sheets")
	}

	hasJSON := c.GoogleServiceAccountJSON != ""
	file := c.GoogleServiceAccountFile
	if file == "" {
		file = c.GoogleApplicationDefaults
	}
	if !hasJSON && file == "" {
		errs = append(errs, "either GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided")
	}
	if !hasJSON && file != "" {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", file))
		}
	}
	return errs
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
