// Package config loads settings from the environment. Both binaries
// share one Config; each uses the fields it needs.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"
)

type Config struct {
	// HTTP server
	Port string `env:"PORT" envDefault:"8080"`

	// Database
	SQLiteDBPath string `env:"SQLITE_DB_PATH" envDefault:"./data/fintrack.db"`

	// AMQP. An empty URL disables eventing; the ledger runs standalone
	// and the worker relies on the periodic refresh alone.
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"fintrack"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"ledger_events"`

	// Report worker
	ReportRefreshInterval time.Duration `env:"REPORT_REFRESH_INTERVAL" envDefault:"30m"`

	// Google Sheets export (optional)
	GoogleSpreadsheetID   string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName       string `env:"GOOGLE_SHEET_NAME" envDefault:"Reports"`
	GoogleCredentialsJSON string `env:"GOOGLE_CREDENTIALS_JSON"`
	GoogleCredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE"`

	// Telegram deficit alerts (optional)
	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration, collecting every problem before
// reporting.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		problems = append(problems, "SQLite database path cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ReportRefreshInterval < time.Minute {
		problems = append(problems, fmt.Sprintf("report refresh interval %s too short: minimum is 1m", c.ReportRefreshInterval))
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleCredentialsJSON == "" && c.GoogleCredentialsFile == "" {
		problems = append(problems, "Google spreadsheet configured but no credentials provided")
	}

	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		problems = append(problems, "Telegram token configured but no chat id provided")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SheetsEnabled reports whether the snapshot export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// TelegramEnabled reports whether deficit alerts are configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
