package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "dev" {
		t.Fatalf("expected App.Env to be dev, got %q", cfg.App.Env)
	}
	if cfg.Storage.Backend != StorageBackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Persistence.Debounce != 500*time.Millisecond {
		t.Fatalf("expected 500ms debounce, got %v", cfg.Persistence.Debounce)
	}
	if cfg.Coupons.Timeout != 5*time.Second {
		t.Fatalf("expected 5s coupon timeout, got %v", cfg.Coupons.Timeout)
	}
	if cfg.Pricing.Currency != "EGP" {
		t.Fatalf("unexpected currency %q", cfg.Pricing.Currency)
	}
}

func TestLoad_PricingOverrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvFreeShipping, "100")
	t.Setenv(EnvTaxRate, "0.14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.Pricing.FreeShippingThreshold.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected threshold %s", cfg.Pricing.FreeShippingThreshold)
	}
	if !cfg.Pricing.TaxRate.Equal(decimal.RequireFromString("0.14")) {
		t.Fatalf("unexpected tax rate %s", cfg.Pricing.TaxRate)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageBackend, "dynamo")

	if _, err := Load(); err == nil {
		t.Fatal("expected unsupported backend error")
	}
}

func TestLoad_RedisBackendRequiresAddress(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageBackend, StorageBackendRedis)

	if _, err := Load(); err == nil {
		t.Fatal("expected redis backend without url to fail")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	if _, err := Load(); err != nil {
		t.Fatalf("unexpected error with redis url: %v", err)
	}
}

func TestLoad_PostgresDSNFromParts(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageBackend, StorageBackendPostgres)
	t.Setenv(EnvDBHost, "db.local")
	t.Setenv(EnvDBUser, "storefront")
	t.Setenv(EnvDBName, "collections")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	want := "postgres://storefront@db.local:5432/collections?sslmode=disable"
	if cfg.DB.DSN != want {
		t.Fatalf("expected dsn %q, got %q", want, cfg.DB.DSN)
	}
	if cfg.DB.Driver != StorageBackendPostgres {
		t.Fatalf("expected postgres driver, got %q", cfg.DB.Driver)
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() || devConfig.IsProd() {
		t.Fatalf("unexpected helpers for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() || prodConfig.IsDev() {
		t.Fatalf("unexpected helpers for %q", prodConfig.Env)
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "dev")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvStorageBackend, StorageBackendMemory)
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvDBDSN, "")
	t.Setenv(EnvFreeShipping, "0")
	t.Setenv(EnvTaxRate, "0")
}
