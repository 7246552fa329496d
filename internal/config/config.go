package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/kapu/conference-companion-go/internal/cms"
	"github.com/kapu/conference-companion-go/internal/constants"
	"github.com/kapu/conference-companion-go/pkg/errors"
)

type Config struct {
	CMS        CMSConfig
	Redis      RedisConfig
	Postgres   PostgresConfig
	Gemini     GeminiConfig
	OpenAI     OpenAIConfig
	Server     ServerConfig
	Conference ConferenceConfig
	Refresh    RefreshConfig
	Logging    LoggingConfig
}

type CMSConfig struct {
	BaseURL       string
	Tokens        []string
	CollectionIDs map[cms.Collection]string
	PageSize      int
	Timeout       time.Duration
	// IDMapFile overrides the embedded identifier tables when set.
	IDMapFile     string
}

// RedisConfig is disabled when Host is empty.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// PostgresConfig is disabled when Host is empty.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (c PostgresConfig) Enabled() bool {
	return c.Host != ""
}

// GeminiConfig disables the assistant when APIKey is empty.
type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey         string
	Model          string
	EnableFallback bool
}

type ServerConfig struct {
	Addr string
}

type ConferenceConfig struct {
	Name           string
	Timezone       string
	CalendarDomain string
	Location       *time.Location
}

type RefreshConfig struct {
	Schedule  string
	OnStartup bool
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		CMS: CMSConfig{
			BaseURL:       getEnv("CMS_BASE_URL", constants.APIConfig.CMSBaseURL),
			Tokens:        collectAPIKeys("CMS_API_TOKEN_"),
			CollectionIDs: collectCollectionIDs("CMS_COLLECTION_"),
			PageSize:      getEnvInt("CMS_PAGE_SIZE", constants.APIConfig.CMSPageSize),
			Timeout:       time.Duration(getEnvInt("CMS_TIMEOUT_SECONDS", int(constants.APIConfig.CMSTimeout/time.Second))) * time.Second,
			IDMapFile:     getEnv("CMS_IDMAP_FILE", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", ""),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "companion"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "companion"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		Server: ServerConfig{
			Addr: getEnv("SERVER_ADDR", ":8080"),
		},
		Conference: ConferenceConfig{
			Name:           getEnv("CONFERENCE_NAME", "Conference"),
			Timezone:       getEnv("CONFERENCE_TIMEZONE", "America/Denver"),
			CalendarDomain: getEnv("CONFERENCE_CALENDAR_DOMAIN", "conference-companion"),
		},
		Refresh: RefreshConfig{
			Schedule:  getEnv("REFRESH_SCHEDULE", "*/5 * * * *"),
			OnStartup: getEnvBool("REFRESH_ON_STARTUP", true),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if getEnvBool("REDIS_DISABLED", false) {
		cfg.Redis.Host = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.NewConfigError("config validation failed", "env", err)
	}

	return cfg, nil
}

// Validate checks required values and resolves Conference.Location.
func (c *Config) Validate() error {
	if c.CMS.BaseURL == "" {
		return fmt.Errorf("CMS_BASE_URL is required")
	}
	if len(c.CMS.Tokens) == 0 {
		return fmt.Errorf("at least one CMS_API_TOKEN is required")
	}
	for _, col := range cms.Collections {
		if c.CMS.CollectionIDs[col] == "" {
			return fmt.Errorf("%s is required", collectionEnvKey("CMS_COLLECTION_", col))
		}
	}
	if c.CMS.PageSize <= 0 || c.CMS.PageSize > constants.APIConfig.CMSPageSize {
		return fmt.Errorf("CMS_PAGE_SIZE must be between 1 and %d", constants.APIConfig.CMSPageSize)
	}

	loc, err := time.LoadLocation(c.Conference.Timezone)
	if err != nil {
		return fmt.Errorf("CONFERENCE_TIMEZONE %q is not a valid IANA zone: %w", c.Conference.Timezone, err)
	}
	c.Conference.Location = loc

	if _, err := cron.ParseStandard(c.Refresh.Schedule); err != nil {
		return fmt.Errorf("REFRESH_SCHEDULE %q is invalid: %w", c.Refresh.Schedule, err)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("SERVER_ADDR is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func collectAPIKeys(prefix string) []string {
	keys := make([]string, 0)
	for i := 1; i <= 5; i++ {
		envKey := fmt.Sprintf("%s%d", prefix, i)
		if value := strings.TrimSpace(os.Getenv(envKey)); value != "" {
			keys = append(keys, value)
		}
	}
	return keys
}

// collectionEnvKey maps "recurring-events" to CMS_COLLECTION_RECURRING_EVENTS.
func collectionEnvKey(prefix string, c cms.Collection) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(c.String(), "-", "_"))
}

func collectCollectionIDs(prefix string) map[cms.Collection]string {
	ids := make(map[cms.Collection]string, len(cms.Collections))
	for _, c := range cms.Collections {
		if value := strings.TrimSpace(os.Getenv(collectionEnvKey(prefix, c))); value != "" {
			ids[c] = value
		}
	}
	return ids
}
