package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	defaultDataDir   = "/share/meal-planner"
	defaultPort      = 5005
	defaultAmberDays = 3
	defaultMetricsDB = "metrics.db"
)

// Config holds the configuration for the dashboard.
type Config struct {
	DataDir         string
	Port            int
	ExpiryAmberDays int

	// GeminiAPIKey is the credential for the conversational assistant.
	// When empty the assistant (and the Telegram channel) stay disabled;
	// startup is unaffected.
	GeminiAPIKey string

	// Telegram Config
	TelegramBotToken    string
	TelegramAllowUserID int64

	// APIAuthSecret, when set, requires a signed bearer token on every
	// mutating endpoint. Empty means open access on a trusted network.
	APIAuthSecret string

	MetricsDBPath string
}

// AssistantEnabled reports whether the conversational assistant can run.
func (c *Config) AssistantEnabled() bool {
	return c.GeminiAPIKey != ""
}

// TelegramEnabled reports whether the Telegram channel can run.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.AssistantEnabled()
}

// NewFromEnv creates a new Config object from environment variables.
// Every variable is optional; missing values fall back to defaults so a
// bare install still starts.
func NewFromEnv() (*Config, error) {
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = defaultDataDir
	}

	port := defaultPort
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", v)
		}
		port = p
	}

	amberDays := defaultAmberDays
	if v := os.Getenv("EXPIRY_AMBER_DAYS"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid EXPIRY_AMBER_DAYS %q", v)
		}
		amberDays = d
	}

	var telegramAllowUserID int64
	if v := os.Getenv("TELEGRAM_ALLOW_USER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOW_USER_ID %q", v)
		}
		telegramAllowUserID = id
	}

	metricsDBPath := os.Getenv("METRICS_DB_PATH")
	if metricsDBPath == "" {
		metricsDBPath = filepath.Join(dataDir, defaultMetricsDB)
	}

	return &Config{
		DataDir:             dataDir,
		Port:                port,
		ExpiryAmberDays:     amberDays,
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAllowUserID: telegramAllowUserID,
		APIAuthSecret:       os.Getenv("API_AUTH_SECRET"),
		MetricsDBPath:       metricsDBPath,
	}, nil
}
