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

	"github.com/shopspring/decimal"
)

const (
	NotifierLog    = "log"
	NotifierAMQP   = "amqp"
	NotifierSheets = "sheets"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Storage
	DataBackend   string
	SQLiteDBPath  string
	DataDirectory string

	// Scheduler
	CoreWorkers     int
	MaxWorkers      int
	QueueSize       int
	KeepAlive       time.Duration
	ShutdownTimeout time.Duration

	// Budget monitor
	CheckInterval     time.Duration
	WarningThreshold  float64
	CriticalThreshold float64
	ExceededThreshold float64

	// Alert delivery
	Notifiers []string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID   string
	GoogleAlertsSheetName string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:   getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/budgetwatch.db"),
		DataDirectory: getEnv("DATA_DIRECTORY", "data"),

		CoreWorkers:     getEnvInt("SCHEDULER_CORE_WORKERS", 2),
		MaxWorkers:      getEnvInt("SCHEDULER_MAX_WORKERS", 4),
		QueueSize:       getEnvInt("SCHEDULER_QUEUE_SIZE", 64),
		KeepAlive:       getEnvDuration("SCHEDULER_KEEP_ALIVE", 60*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		CheckInterval:     getEnvDuration("BUDGET_CHECK_INTERVAL", time.Hour),
		WarningThreshold:  getEnvFloat("BUDGET_WARNING_THRESHOLD", 0.80),
		CriticalThreshold: getEnvFloat("BUDGET_CRITICAL_THRESHOLD", 0.95),
		ExceededThreshold: getEnvFloat("BUDGET_EXCEEDED_THRESHOLD", 1.00),

		Notifiers: getEnvList("ALERT_NOTIFIERS", []string{NotifierLog}),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetwatch"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "budget_alerts"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleAlertsSheetName: getEnv("GOOGLE_ALERTS_SHEET_NAME", "Alerts"),
		GoogleCredentialsFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
	}
}

// HasNotifier reports whether name is listed in ALERT_NOTIFIERS.
func (c *Config) HasNotifier(name string) bool {
	return slices.Contains(c.Notifiers, name)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite"}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
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
	}

	if c.CoreWorkers < 1 {
		errors = append(errors, fmt.Sprintf("invalid core workers %d: must be at least 1", c.CoreWorkers))
	}
	if c.MaxWorkers < c.CoreWorkers {
		errors = append(errors, fmt.Sprintf("invalid max workers %d: must be at least core workers (%d)", c.MaxWorkers, c.CoreWorkers))
	}
	if c.QueueSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid queue size %d: must be at least 1", c.QueueSize))
	}
	if c.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	if c.CheckInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid check interval %v: must be at least 1 second", c.CheckInterval))
	} else if c.CheckInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid check interval %v: must be at most 24 hours", c.CheckInterval))
	}

	w, cr, ex := c.WarningThreshold, c.CriticalThreshold, c.ExceededThreshold
	if !(w > 0 && w < cr && cr <= ex) {
		errors = append(errors, fmt.Sprintf("invalid thresholds %.2f/%.2f/%.2f: must satisfy 0 < warning < critical <= exceeded", w, cr, ex))
	}

	for _, n := range c.Notifiers {
		if n != NotifierLog && n != NotifierAMQP && n != NotifierSheets {
			errors = append(errors, fmt.Sprintf("unknown notifier '%s': must be one of log, amqp, sheets", n))
		}
	}

	if c.HasNotifier(NotifierAMQP) {
		if c.AMQPURL == "" {
			errors = append(errors, "AMQP URL is required when the amqp notifier is enabled")
		} else if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when the amqp notifier is enabled")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when the amqp notifier is enabled")
		}
	}

	if c.HasNotifier(NotifierSheets) {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when the sheets notifier is enabled")
		}
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the sheets notifier")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Thresholds returns the configured ratios as exact decimals.
func (c *Config) Thresholds() (warning, critical, exceeded decimal.Decimal) {
	return decimal.NewFromFloat(c.WarningThreshold),
		decimal.NewFromFloat(c.CriticalThreshold),
		decimal.NewFromFloat(c.ExceededThreshold)
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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

// getEnvList splits a comma separated value, lowercasing and dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
