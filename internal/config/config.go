package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	MigrateOnStart bool

	ProductCacheTTL time.Duration
	ReportCacheTTL  time.Duration

	// Closed rate sets enforced on invoice creation. Vouchers accept any
	// tax rate in [0,100].
	InvoiceTaxRates      []float64
	InvoiceDiscountRates []float64

	InvoiceSeriesPrefix string
	VoucherSeriesPrefix string

	LoginRateMax    int
	LoginRateWindow time.Duration

	WorkerConcurrency int
	ReportWarmupCron  string

	SecurityHeadersEnabled bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		JWTSecret:       k.String("JWT_SECRET"),
		JWTIssuer:       valueOrDefault(k.String("JWT_ISSUER"), "sales-accounting"),
		JWTAudience:     valueOrDefault(k.String("JWT_AUDIENCE"), "sales-accounting-admin"),
		AccessTokenTTL:  parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),
		RefreshTokenTTL: parseDuration(k.String("REFRESH_TOKEN_TTL"), "720h"),

		MigrateOnStart: parseBool(valueOrDefault(k.String("DB_MIGRATE_ON_START"), "true")),

		ProductCacheTTL: parseDuration(k.String("PRODUCT_CACHE_TTL"), "5m"),
		ReportCacheTTL:  parseDuration(k.String("REPORT_CACHE_TTL"), "10m"),

		InvoiceTaxRates:      parseRates(k.String("INVOICE_TAX_RATES"), []float64{0, 5, 8, 10}),
		InvoiceDiscountRates: parseRates(k.String("INVOICE_DISCOUNT_RATES"), []float64{0, 5, 10, 15, 20}),

		InvoiceSeriesPrefix: valueOrDefault(k.String("INVOICE_SERIES_PREFIX"), "HD"),
		VoucherSeriesPrefix: valueOrDefault(k.String("VOUCHER_SERIES_PREFIX"), "PG"),

		LoginRateMax:    intOrDefault(k.String("LOGIN_RATE_MAX"), 10),
		LoginRateWindow: parseDuration(k.String("LOGIN_RATE_WINDOW"), "1m"),

		WorkerConcurrency: intOrDefault(k.String("WORKER_CONCURRENCY"), 5),
		ReportWarmupCron:  valueOrDefault(k.String("REPORT_WARMUP_CRON"), "*/30 * * * *"),

		SecurityHeadersEnabled: parseBool(valueOrDefault(k.String("SECURITY_HEADERS_ENABLED"), "true")),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseRates(value string, fallback []float64) []float64 {
	parts := splitAndTrim(value)
	if len(parts) == 0 {
		return fallback
	}
	rates := make([]float64, 0, len(parts))
	for _, part := range parts {
		var rate float64
		if _, err := fmt.Sscanf(part, "%f", &rate); err != nil {
			continue
		}
		if rate < 0 || rate > 100 {
			continue
		}
		rates = append(rates, rate)
	}
	if len(rates) == 0 {
		return fallback
	}
	return rates
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(trimmed, "%d", &parsed); err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(overrides map[string]string) (*Config, error) {
	original := make(map[string]string, len(overrides))
	for key := range overrides {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, overrides[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
