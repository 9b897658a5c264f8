package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Ledger    LedgerConfig
	Sheets    SheetsConfig
	Mail      MailConfig
	Notify    NotifyConfig
	Scheduler SchedulerConfig
	Session   SessionConfig
	LogLevel  string
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
	// PublicBaseURL is where phones reach the scanner page.
	PublicBaseURL string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// RedisConfig configures the scan handshake store.
type RedisConfig struct {
	Address     string
	Password    string
	DB          int
	FallbackTTL time.Duration
}

// StorageConfig points at the bucket holding invoice and transfer PDFs.
type StorageConfig struct {
	Bucket          string
	CredentialsJSON string
	PublicBaseURL   string
}

// AuthConfig holds token settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// LedgerConfig bounds the opening balance walk.
type LedgerConfig struct {
	FloorMonth string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
// Sync is disabled when SpreadsheetID is empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the summary sync should run.
func (s SheetsConfig) Enabled() bool {
	return s.SpreadsheetID != ""
}

// MailConfig configures transfer email delivery. Host empty disables it.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// NotifyConfig holds the optional outbound transfer webhook.
type NotifyConfig struct {
	TransferWebhookURL string
}

// SchedulerConfig holds cron-related settings.
type SchedulerConfig struct {
	SheetsSyncCron   string
	SessionSweepCron string
	Timezone         string
}

// SessionConfig controls the idle watchdog.
type SessionConfig struct {
	IdleTimeout time.Duration
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fromEnv() (*Config, error) {
	redisDB, err := getenvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	smtpPort, err := getenvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	fallbackTTL, err := getenvDuration("SCAN_FALLBACK_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	tokenTTL, err := getenvDuration("JWT_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	idle, err := getenvDuration("IDLE_TIMEOUT", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port:          getenvWithDefault("APP_PORT", "8080"),
			PublicBaseURL: strings.TrimSuffix(os.Getenv("PUBLIC_BASE_URL"), "/"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "pettycash"),
		},
		Redis: RedisConfig{
			Address:     getenvWithDefault("REDIS_ADDRESS", "localhost:6379"),
			Password:    os.Getenv("REDIS_PASSWORD"),
			DB:          redisDB,
			FallbackTTL: fallbackTTL,
		},
		Storage: StorageConfig{
			Bucket:          os.Getenv("GCS_BUCKET"),
			CredentialsJSON: os.Getenv("GCS_CREDENTIALS_JSON"),
			PublicBaseURL:   os.Getenv("GCS_PUBLIC_BASE_URL"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  tokenTTL,
		},
		Ledger: LedgerConfig{
			FloorMonth: getenvWithDefault("LEDGER_FLOOR_MONTH", "2020-01"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Mail: MailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("MAIL_FROM"),
		},
		Notify: NotifyConfig{
			TransferWebhookURL: os.Getenv("TRANSFER_WEBHOOK_URL"),
		},
		Scheduler: SchedulerConfig{
			SheetsSyncCron:   getenvWithDefault("SHEETS_SYNC_CRON", "0 2 * * *"),
			SessionSweepCron: getenvWithDefault("SESSION_SWEEP_CRON", "@every 1m"),
			Timezone:         getenvWithDefault("TIMEZONE", "America/Toronto"),
		},
		Session: SessionConfig{
			IdleTimeout: idle,
		},
		LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
	}, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch {
	case c.Server.Port == "":
		return errors.New("APP_PORT must be provided")
	case c.Server.PublicBaseURL == "":
		return errors.New("PUBLIC_BASE_URL must be provided")
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must not be empty")
	case c.Redis.Address == "":
		return errors.New("REDIS_ADDRESS must not be empty")
	case c.Storage.Bucket == "":
		return errors.New("GCS_BUCKET must be provided")
	case len(c.Auth.JWTSecret) < 32:
		return errors.New("JWT_SECRET must be at least 32 characters")
	case c.Ledger.FloorMonth == "":
		return errors.New("LEDGER_FLOOR_MONTH must not be empty")
	case c.Scheduler.Timezone == "":
		return errors.New("TIMEZONE must be provided")
	}

	if c.Sheets.Enabled() && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_DATABASE_ID is set")
	}

	if c.Mail.Host != "" && c.Mail.From == "" {
		return errors.New("MAIL_FROM must be provided when SMTP_HOST is set")
	}

	if c.Redis.FallbackTTL <= 0 {
		return errors.New("SCAN_FALLBACK_TTL must be positive")
	}

	if c.Session.IdleTimeout <= 0 {
		return errors.New("IDLE_TIMEOUT must be positive")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return v, nil
}
