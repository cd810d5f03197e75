package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Secrets (from .env)
	WebhookURL      string
	BotName         string
	APIKey          string
	CORSAllowOrigin string

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Quote source
	QuoteAPIBaseURL    string
	RequestDelayMillis int
	QuoteTimeoutSecs   int

	// Trading signal
	TradingThreshold float64
	TradingFees      float64

	// Portfolio
	DefaultETF    string
	InvestedValue float64
	// ReferencePrice is the explicit fallback used to derive an initial
	// share count when no live quote is available at startup. 0 disables
	// the fallback and the portfolio stays uninitialized until a quote
	// arrives.
	ReferencePrice float64

	// Instruments
	InstrumentsFile string

	// Timing
	RefreshIntervalMinutes int
	AutoRefresh            bool

	// API
	APIPort int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Secrets
		WebhookURL:      envStr("WEBHOOK_URL", ""),
		BotName:         envStr("BOT_NAME", "EtfRotationBot"),
		APIKey:          envStr("API_KEY", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		// Database
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "etf_rotation"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		// Quote source
		QuoteAPIBaseURL:    envStr("QUOTE_API_BASE_URL", "https://api.boerse-frankfurt.de/v1/data/quote_box/single"),
		RequestDelayMillis: envInt("QUOTE_REQUEST_DELAY_MS", 300),
		QuoteTimeoutSecs:   envInt("QUOTE_TIMEOUT_SECONDS", 10),

		// Trading signal
		TradingThreshold: envFloat("TRADING_THRESHOLD", 0.5),
		TradingFees:      envFloat("TRADING_FEES", 50),

		// Portfolio
		DefaultETF:     envStr("DEFAULT_ETF", "VWCE"),
		InvestedValue:  envFloat("INVESTED_VALUE", 100000),
		ReferencePrice: envFloat("REFERENCE_PRICE", 0),

		// Instruments
		InstrumentsFile: envStr("INSTRUMENTS_FILE", ""),

		// Timing
		RefreshIntervalMinutes: envInt("REFRESH_INTERVAL_MINUTES", 15),
		AutoRefresh:            envBool("AUTO_REFRESH", true),

		// API
		APIPort: envInt("API_PORT", 3001),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.TradingThreshold <= 0 {
		errs = append(errs, "TRADING_THRESHOLD must be positive")
	}
	if c.TradingFees < 0 {
		errs = append(errs, "TRADING_FEES must not be negative")
	}
	if c.InvestedValue <= 0 {
		errs = append(errs, "INVESTED_VALUE must be positive")
	}
	if c.DefaultETF == "" {
		errs = append(errs, "DEFAULT_ETF is required")
	}
	if c.RefreshIntervalMinutes < 1 {
		errs = append(errs, "REFRESH_INTERVAL_MINUTES must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// Print logs the effective non-secret configuration at startup.
func (c *Config) Print() {
	log.Info().
		Str("defaultETF", c.DefaultETF).
		Float64("threshold", c.TradingThreshold).
		Float64("fees", c.TradingFees).
		Float64("investedValue", c.InvestedValue).
		Bool("referencePriceFallback", c.ReferencePrice > 0).
		Int("refreshMinutes", c.RefreshIntervalMinutes).
		Bool("autoRefresh", c.AutoRefresh).
		Str("dbHost", c.DBHost).
		Str("dbName", c.DBName).
		Int("apiPort", c.APIPort).
		Bool("webhook", c.WebhookURL != "").
		Msg("configuration loaded")
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMinutes) * time.Minute
}

func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMillis) * time.Millisecond
}

func (c *Config) QuoteTimeout() time.Duration {
	return time.Duration(c.QuoteTimeoutSecs) * time.Second
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}
