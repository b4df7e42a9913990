package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Calendar sync providers accepted by CALENDAR_SYNC_PROVIDER
const (
	SyncProviderNone                 = "none"
	SyncProviderLog                  = "log"
	SyncProviderGoogleOAuth          = "google-oauth"
	SyncProviderGoogleServiceAccount = "google-service-account"
	SyncProviderCalDAV               = "caldav"
)

// ErrMissingJWTSecret is returned by Load when no signing key is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// CORS configuration
	CORS CORSConfig

	// Rate limiting of the unauthenticated auth endpoints
	RateLimit RateLimitConfig

	// Logging configuration
	Log LogConfig

	// Calendar sync configuration
	CalendarSync CalendarSyncConfig

	// Google OAuth sign-in configuration
	GoogleOAuth GoogleOAuthConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL          string
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxConns     int32
	MinConns     int32
	MaxLifetime  time.Duration
	ConnTimeout  time.Duration
	QueryTimeout time.Duration
	AutoMigrate  bool
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// RateLimitConfig holds per-client limits for register/login
type RateLimitConfig struct {
	RPS   float64
	Burst int
	// TrustProxy keys clients by X-Forwarded-For instead of the remote address
	TrustProxy bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// CalendarSyncConfig selects and configures the calendar mirror
type CalendarSyncConfig struct {
	Provider        string
	Timeout         time.Duration
	CalendarID      string
	DefaultTimezone string

	// google-oauth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleTokenFile    string

	// google-service-account
	GoogleServiceAccountFile string

	// caldav
	CalDAVEndpoint     string
	CalDAVUsername     string
	CalDAVPassword     string
	CalDAVCalendarName string
}

// GoogleOAuthConfig holds Google sign-in configuration
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file
	if err := godotenv.Load("../.env"); err != nil {
		// Try loading from current directory if not found in parent
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: .env file not found: %v", err)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current process environment only.
func FromEnv() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", getEnv("PORT", "8080")),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Database: DatabaseConfig{
			URL:          getEnv("DATABASE_URL", ""),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Name:         getEnv("DB_NAME", "notesync"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxConns:     getInt32Env("DB_MAX_CONNS", 5),
			MinConns:     getInt32Env("DB_MIN_CONNS", 0),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", time.Hour),
			ConnTimeout:  getDurationEnv("DB_CONN_TIMEOUT", 10*time.Second),
			QueryTimeout: getDurationEnv("DB_QUERY_TIMEOUT", 30*time.Second),
			AutoMigrate:  getBoolEnv("DB_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			Secret:   os.Getenv("JWT_SECRET"),
			TokenTTL: getDurationEnv("JWT_TOKEN_TTL", 30*24*time.Hour), // 30 days
		},
		CORS: CORSConfig{
			AllowedOrigins:   getStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods:   getStringSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getStringSliceEnv("CORS_ALLOWED_HEADERS", []string{"*"}),
			AllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		},
		RateLimit: RateLimitConfig{
			RPS:        getFloatEnv("RATE_LIMIT_RPS", 5),
			Burst:      getIntEnv("RATE_LIMIT_BURST", 10),
			TrustProxy: getBoolEnv("RATE_LIMIT_TRUST_PROXY", false),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		CalendarSync: CalendarSyncConfig{
			Provider:                 strings.ToLower(getEnv("CALENDAR_SYNC_PROVIDER", SyncProviderNone)),
			Timeout:                  getDurationEnv("CALENDAR_SYNC_TIMEOUT", 10*time.Second),
			CalendarID:               getEnv("GOOGLE_CALENDAR_ID", "primary"),
			DefaultTimezone:          getEnv("CALENDAR_DEFAULT_TIMEZONE", "America/Sao_Paulo"),
			GoogleClientID:           getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret:       getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleTokenFile:          getEnv("GOOGLE_TOKEN_FILE", "token.json"),
			GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", "credentials.json"),
			CalDAVEndpoint:           getEnv("CALDAV_ENDPOINT", "https://caldav.icloud.com/"),
			CalDAVUsername:           getEnv("CALDAV_USERNAME", ""),
			CalDAVPassword:           getEnv("CALDAV_PASSWORD", ""),
			CalDAVCalendarName:       getEnv("CALDAV_CALENDAR_NAME", ""),
		},
		GoogleOAuth: GoogleOAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback"),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Never fall back to a built-in signing key
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return ErrMissingJWTSecret
	}
	if c.JWT.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TOKEN_TTL must be positive, got %s", c.JWT.TokenTTL)
	}

	if c.Database.URL == "" && c.Database.Password == "" {
		log.Println("Warning: neither DATABASE_URL nor DB_PASSWORD is set")
	}

	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	cs := c.CalendarSync
	switch cs.Provider {
	case SyncProviderNone, SyncProviderLog:
	case SyncProviderGoogleOAuth:
		if cs.GoogleClientID == "" || cs.GoogleClientSecret == "" {
			return fmt.Errorf("%s sync requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET", cs.Provider)
		}
	case SyncProviderGoogleServiceAccount:
		if cs.GoogleServiceAccountFile == "" {
			return fmt.Errorf("%s sync requires GOOGLE_SERVICE_ACCOUNT_FILE", cs.Provider)
		}
	case SyncProviderCalDAV:
		if cs.CalDAVUsername == "" || cs.CalDAVPassword == "" || cs.CalDAVCalendarName == "" {
			return fmt.Errorf("%s sync requires CALDAV_USERNAME, CALDAV_PASSWORD and CALDAV_CALENDAR_NAME", cs.Provider)
		}
	default:
		return fmt.Errorf("unknown CALENDAR_SYNC_PROVIDER %q", cs.Provider)
	}
	if cs.Provider != SyncProviderNone && cs.Timeout <= 0 {
		return fmt.Errorf("CALENDAR_SYNC_TIMEOUT must be positive, got %s", cs.Timeout)
	}
	if _, err := time.LoadLocation(cs.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid CALENDAR_DEFAULT_TIMEZONE %q: %w", cs.DefaultTimezone, err)
	}

	// Check Google sign-in configuration
	if !c.IsGoogleOAuthConfigured() {
		log.Println("Warning: Google OAuth credentials not configured. Google login will not work.")
	}

	return nil
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     "/" + c.Database.Name,
		RawQuery: fmt.Sprintf("sslmode=%s&connect_timeout=%d", c.Database.SSLMode, int(c.Database.ConnTimeout.Seconds())),
	}
	return u.String()
}

// IsGoogleOAuthConfigured checks if Google sign-in is properly configured
func (c *Config) IsGoogleOAuthConfigured() bool {
	return c.GoogleOAuth.ClientID != "" && c.GoogleOAuth.ClientSecret != ""
}

// IsCalendarSyncEnabled reports whether a sync provider is selected
func (c *Config) IsCalendarSyncEnabled() bool {
	return c.CalendarSync.Provider != SyncProviderNone
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt32Env(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intValue)
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := []string{}
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
