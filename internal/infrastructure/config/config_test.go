package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"ERP_APP_NAME",
	"ERP_APP_ENV",
	"ERP_DATABASE_DRIVER",
	"ERP_DATABASE_HOST",
	"ERP_DATABASE_PORT",
	"ERP_DATABASE_PASSWORD",
	"ERP_DATABASE_SSLMODE",
	"ERP_DATABASE_MAX_OPEN_CONNS",
	"ERP_DATABASE_MAX_IDLE_CONNS",
	"ERP_LEDGER_ACCOUNTS_PAYABLE",
	"ERP_LEDGER_CURRENCIES",
	"ERP_BATCH_CONCURRENCY",
	"ERP_BATCH_LOCK_TTL",
	"ERP_TELEMETRY_SAMPLING_RATIO",
	"ERP_TELEMETRY_DB_LOG_FULL_SQL",
	"ERP_PAYMENT_REMITTANCE_URL",
	"ERP_PAYMENT_REMITTANCE_API_KEY",
}

// clearEnv unsets every variable the tests touch and restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "ledger-engine", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "ledger", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "2000", cfg.Ledger.AccountsPayable)
		assert.Equal(t, "1000", cfg.Ledger.Bank)
		assert.Empty(t, cfg.Ledger.Currencies)
		assert.Equal(t, 4, cfg.Batch.Concurrency)
		assert.Equal(t, 15*time.Minute, cfg.Batch.LockTTL)
		assert.Equal(t, 200*time.Millisecond, cfg.Telemetry.DBSlowQueryThresh)
		assert.Empty(t, cfg.Payment.RemittanceURL)
		assert.Equal(t, 30*time.Second, cfg.Payment.RemittanceTimeout)
	})

	t.Run("loads values from environment variables with ERP prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_APP_NAME", "ap-worker")
		t.Setenv("ERP_DATABASE_DRIVER", "sqlite")
		t.Setenv("ERP_DATABASE_HOST", "testdb.local")
		t.Setenv("ERP_DATABASE_PORT", "5433")
		t.Setenv("ERP_LEDGER_ACCOUNTS_PAYABLE", "2100")
		t.Setenv("ERP_LEDGER_CURRENCIES", "USD,EUR")
		t.Setenv("ERP_BATCH_CONCURRENCY", "8")
		t.Setenv("ERP_BATCH_LOCK_TTL", "2m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "ap-worker", cfg.App.Name)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "2100", cfg.Ledger.AccountsPayable)
		assert.Equal(t, []string{"USD", "EUR"}, cfg.Ledger.Currencies)
		assert.Equal(t, 8, cfg.Batch.Concurrency)
		assert.Equal(t, 2*time.Minute, cfg.Batch.LockTTL)
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects malformed currency codes", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_LEDGER_CURRENCIES", "USD,DOLLAR")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DOLLAR")
	})

	t.Run("rejects negative batch concurrency", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_BATCH_CONCURRENCY", "-2")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch.concurrency")
	})

	t.Run("remittance gateway needs an API key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_PAYMENT_REMITTANCE_URL", "https://bank.example.com")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "remittance_api_key")

		t.Setenv("ERP_PAYMENT_REMITTANCE_API_KEY", "key")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "https://bank.example.com", cfg.Payment.RemittanceURL)
	})

	t.Run("reports every invalid setting", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_DATABASE_DRIVER", "mysql")
		t.Setenv("ERP_BATCH_CONCURRENCY", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
		assert.Contains(t, err.Error(), "batch.concurrency")
	})

	t.Run("validates sampling ratio range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "ledger.toml")
	content := `
[database]
driver = "sqlite"
sqlite_path = "/tmp/ap.db"

[ledger]
bank = "1010"
currencies = ["USD", "CAD"]

[batch]
concurrency = 1
lock_enabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/ap.db", cfg.Database.SQLitePath)
	assert.Equal(t, "1010", cfg.Ledger.Bank)
	assert.Equal(t, "2000", cfg.Ledger.AccountsPayable)
	assert.Equal(t, []string{"USD", "CAD"}, cfg.Ledger.Currencies)
	assert.Equal(t, 1, cfg.Batch.Concurrency)
	assert.True(t, cfg.Batch.LockEnabled)

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
		require.Error(t, err)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_APP_ENV", "production")
		t.Setenv("ERP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("ERP_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("ERP_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("ERP_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("requires postgres in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("ERP_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be postgres in production")
	})

	t.Run("refuses full SQL logging in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("ERP_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", cfg.Addr())
}
