package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Webhook  WebhookConfig
	FedaPay  FedaPayConfig
	CinetPay CinetPayConfig
	Resync   ResyncConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds verification settings for admin tokens. Tokens are
// issued by the main shop backend; this service only validates them.
type JWTConfig struct {
	Secret string
}

// WebhookConfig holds the shared webhook secrets and the replay
// tolerance applied to signed timestamps.
type WebhookConfig struct {
	FedaPaySecret    string
	CinetPaySecret   string
	ToleranceSeconds int
}

// FedaPayConfig holds FedaPay API access settings.
type FedaPayConfig struct {
	APIKey  string
	BaseURL string
}

// CinetPayConfig holds CinetPay API access settings.
type CinetPayConfig struct {
	APIKey  string
	SiteID  string
	BaseURL string
}

// ResyncConfig parameterizes the periodic payment reconciliation job.
type ResyncConfig struct {
	Interval time.Duration
	MinAge   time.Duration
	Limit    int
}

func Load() (*Config, error) {
	// A missing .env file is fine in production; variables come from the
	// environment there.
	_ = godotenv.Load()

	config := &Config{}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "boutikplace"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	// Webhook configuration
	tolerance, err := strconv.Atoi(getEnv("WEBHOOK_TOLERANCE_SECONDS", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TOLERANCE_SECONDS: %w", err)
	}

	config.Webhook = WebhookConfig{
		FedaPaySecret:    getEnv("FEDAPAY_WEBHOOK_SECRET", ""),
		CinetPaySecret:   getEnv("CINETPAY_WEBHOOK_SECRET", ""),
		ToleranceSeconds: tolerance,
	}

	// Provider API configuration
	config.FedaPay = FedaPayConfig{
		APIKey:  getEnv("FEDAPAY_API_KEY", ""),
		BaseURL: getEnv("FEDAPAY_BASE_URL", "https://api.fedapay.com"),
	}

	config.CinetPay = CinetPayConfig{
		APIKey:  getEnv("CINETPAY_API_KEY", ""),
		SiteID:  getEnv("CINETPAY_SITE_ID", ""),
		BaseURL: getEnv("CINETPAY_BASE_URL", "https://api-checkout.cinetpay.com"),
	}

	// Resync job configuration
	resyncInterval, err := time.ParseDuration(getEnv("RESYNC_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESYNC_INTERVAL: %w", err)
	}

	resyncMinAge, err := time.ParseDuration(getEnv("RESYNC_MIN_AGE", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESYNC_MIN_AGE: %w", err)
	}

	resyncLimit, err := strconv.Atoi(getEnv("RESYNC_LIMIT", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESYNC_LIMIT: %w", err)
	}

	config.Resync = ResyncConfig{
		Interval: resyncInterval,
		MinAge:   resyncMinAge,
		Limit:    resyncLimit,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Webhook.FedaPaySecret == "" {
		return fmt.Errorf("FEDAPAY_WEBHOOK_SECRET is required")
	}
	if c.Webhook.CinetPaySecret == "" {
		return fmt.Errorf("CINETPAY_WEBHOOK_SECRET is required")
	}
	if c.FedaPay.APIKey == "" {
		return fmt.Errorf("FEDAPAY_API_KEY is required")
	}
	if c.CinetPay.APIKey == "" {
		return fmt.Errorf("CINETPAY_API_KEY is required")
	}
	if c.CinetPay.SiteID == "" {
		return fmt.Errorf("CINETPAY_SITE_ID is required")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
