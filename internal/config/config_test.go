package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL": "postgres://sa:sa@localhost:5432/sa?sslmode=disable",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "test-secret",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, []float64{0, 5, 8, 10}, cfg.InvoiceTaxRates)
	require.Equal(t, []float64{0, 5, 10, 15, 20}, cfg.InvoiceDiscountRates)
	require.Equal(t, "HD", cfg.InvoiceSeriesPrefix)
	require.Equal(t, "PG", cfg.VoucherSeriesPrefix)
	require.True(t, cfg.MigrateOnStart)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	env := baseEnv()
	env["DATABASE_URL"] = ""
	_, err := config.LoadForTests(env)
	require.Error(t, err)
}

func TestLoadRejectsGarbageRates(t *testing.T) {
	env := baseEnv()
	env["INVOICE_TAX_RATES"] = "0, 8, nonsense, 120"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 8}, cfg.InvoiceTaxRates)
}

func TestLoadWorkerConcurrency(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, 5, cfg.WorkerConcurrency)

	env := baseEnv()
	env["WORKER_CONCURRENCY"] = "20"
	cfg, err = config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, 20, cfg.WorkerConcurrency)
}

func TestHTTPAddrWithColonPort(t *testing.T) {
	env := baseEnv()
	env["PORT"] = ":9090"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
}
