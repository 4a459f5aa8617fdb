package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	LogLevel      string
	LogJSON       bool

	StoreDriver string // "postgres" or "sqlite"
	DatabaseURI string
	SQLitePath  string

	SettingsPath string
	Timezone     string
	GenerateSpec string // cron spec for recurring instance generation
	RearmGrace   time.Duration
	SendRate     int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	SMSBaseURL    string
	SMSAccountSID string
	SMSAuthToken  string
	SMSFrom       string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	return &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogJSON:       getEnvBool("LOG_JSON", false),

		StoreDriver: getEnvOrDefault("STORE_DRIVER", "postgres"),
		DatabaseURI: os.Getenv("DATABASE_URI"),
		SQLitePath:  getEnvOrDefault("SQLITE_PATH", "catcare.db"),

		SettingsPath: getEnvOrDefault("NOTIFY_SETTINGS_PATH", "notify.yaml"),
		Timezone:     getEnvOrDefault("TIMEZONE", "UTC"),
		GenerateSpec: getEnvOrDefault("GENERATE_SPEC", "@daily"),
		RearmGrace:   getEnvDuration("REARM_GRACE", 0),
		SendRate:     getEnvInt("NOTIFY_RATE_PER_SEC", 3),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "CatCare Scheduler <noreply@catcare.local>"),

		SMSBaseURL:    getEnvOrDefault("SMS_BASE_URL", "https://api.twilio.com/2010-04-01"),
		SMSAccountSID: os.Getenv("SMS_ACCOUNT_SID"),
		SMSAuthToken:  os.Getenv("SMS_AUTH_TOKEN"),
		SMSFrom:       os.Getenv("SMS_FROM"),
	}, nil
}

// Location resolves the configured time zone used for calendar-day boundaries.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
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
