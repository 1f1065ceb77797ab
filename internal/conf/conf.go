package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents application configuration
type Config struct {
	// Slack configuration
	Slack SlackConfig

	// Classifier (OpenAI-compatible) configuration
	Classifier ClassifierConfig

	// Batch queue configuration
	Queue QueueConfig

	// Storage configuration
	Store StoreConfig

	// HTTP server configuration
	HTTP HTTPConfig

	// Auth configuration for the REST API
	Auth AuthConfig

	// Log level (zap level string: debug, info, warn, error)
	LogLevel string

	// Debug mode
	Debug bool
}

// SlackConfig contains Slack configuration
type SlackConfig struct {
	BotToken      string
	SigningSecret string
	// BypassVerify disables signature verification for local development
	BypassVerify bool
}

// ClassifierConfig contains LLM classifier configuration
type ClassifierConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// QueueConfig contains batch queue tunables
type QueueConfig struct {
	DebounceWindow time.Duration
	MaxBatchSize   int
}

// StoreConfig contains database configuration
type StoreConfig struct {
	DBPath string
}

// HTTPConfig contains HTTP server configuration
type HTTPConfig struct {
	Addr string
}

// AuthConfig contains REST API auth configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	// BootstrapEmail/BootstrapName seed the first staff account when the
	// staff table is empty, so login is possible on a fresh database.
	BootstrapEmail string
	BootstrapName  string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".slack-intake-bridge", "intake.db")
	}

	debounceMs := getEnvAsInt("BATCH_DEBOUNCE_MS", 2000)
	maxBatchSize := getEnvAsInt("BATCH_MAX_SIZE", 10)
	classifyTimeoutSec := getEnvAsInt("CLASSIFY_TIMEOUT_SECONDS", 20)

	return &Config{
		Slack: SlackConfig{
			BotToken:      os.Getenv("SLACK_BOT_TOKEN"),
			SigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
			BypassVerify:  getEnvAsBool("SLACK_BYPASS_VERIFY", false),
		},
		Classifier: ClassifierConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Timeout: time.Duration(classifyTimeoutSec) * time.Second,
		},
		Queue: QueueConfig{
			DebounceWindow: time.Duration(debounceMs) * time.Millisecond,
			MaxBatchSize:   maxBatchSize,
		},
		Store: StoreConfig{
			DBPath: dbPath,
		},
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("AUTH_JWT_SECRET", "dev-secret"),
			TokenTTL:       time.Duration(getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 60)) * time.Minute,
			BootstrapEmail: os.Getenv("AUTH_BOOTSTRAP_EMAIL"),
			BootstrapName:  getEnv("AUTH_BOOTSTRAP_NAME", "Operations Admin"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Debug:    os.Getenv("DEBUG") == "true",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Slack.BotToken == "" {
		return &ConfigError{Field: "SLACK_BOT_TOKEN", Message: "required"}
	}
	if c.Slack.SigningSecret == "" && !c.Slack.BypassVerify {
		return &ConfigError{Field: "SLACK_SIGNING_SECRET", Message: "required unless SLACK_BYPASS_VERIFY=true"}
	}
	if c.Classifier.APIKey == "" {
		return &ConfigError{Field: "OPENAI_API_KEY", Message: "required"}
	}
	if c.Queue.MaxBatchSize < 1 {
		return &ConfigError{Field: "BATCH_MAX_SIZE", Message: "must be at least 1"}
	}
	if c.Queue.DebounceWindow <= 0 {
		return &ConfigError{Field: "BATCH_DEBOUNCE_MS", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
