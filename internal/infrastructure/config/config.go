// Package config loads the ledger engine settings from a TOML file and
// ERP_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Payment   PaymentConfig   `mapstructure:"payment"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// DatabaseConfig selects the driver and, for postgres, the server and pool.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres or sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	LogLevel        string `mapstructure:"log_level"` // silent, error, warn, info
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the host:port address of the Redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout, stderr or a file path
}

// TelemetryConfig controls OTLP export. Nothing is exported unless Enabled.
type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
}

// LedgerConfig holds the chart of accounts used by the ledger synchronizer
type LedgerConfig struct {
	AccountsPayable    string   `mapstructure:"accounts_payable"`
	AccountsReceivable string   `mapstructure:"accounts_receivable"`
	Expense            string   `mapstructure:"expense"`
	Revenue            string   `mapstructure:"revenue"`
	Bank               string   `mapstructure:"bank"`
	VendorPrepayments  string   `mapstructure:"vendor_prepayments"`
	FeeExpense         string   `mapstructure:"fee_expense"`
	Adjustments        string   `mapstructure:"adjustments"`
	Currencies         []string `mapstructure:"currencies"` // empty allows every known currency
}

// BatchConfig holds payment batch run settings
type BatchConfig struct {
	Concurrency int           `mapstructure:"concurrency"` // vendor groups paid in parallel when no checks are printed
	LockEnabled bool          `mapstructure:"lock_enabled"`
	LockTTL     time.Duration `mapstructure:"lock_ttl"`
}

// PaymentConfig holds settings for the ACH remittance gateway.
// The ach method is registered only when RemittanceURL is set.
type PaymentConfig struct {
	RemittanceURL     string        `mapstructure:"remittance_url"`
	RemittanceAPIKey  string        `mapstructure:"remittance_api_key"`
	RemittanceTimeout time.Duration `mapstructure:"remittance_timeout"`
}

// defaults registers every key so environment variables can override keys
// absent from the config file.
var defaults = map[string]any{
	"app.name": "ledger-engine",
	"app.env":  "development",

	"database.driver":             "postgres",
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "ledger",
	"database.sslmode":            "disable",
	"database.sqlite_path":        "ledger.db",
	"database.log_level":          "warn",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "ledger-engine",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_interval":        30 * time.Second,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,

	"ledger.accounts_payable":    "2000",
	"ledger.accounts_receivable": "1200",
	"ledger.expense":             "6000",
	"ledger.revenue":             "4000",
	"ledger.bank":                "1000",
	"ledger.vendor_prepayments":  "1400",
	"ledger.fee_expense":         "6800",
	"ledger.adjustments":         "6900",
	"ledger.currencies":          []string{},

	"batch.concurrency":  4,
	"batch.lock_enabled": false,
	"batch.lock_ttl":     15 * time.Minute,

	"payment.remittance_url":     "",
	"payment.remittance_api_key": "",
	"payment.remittance_timeout": 30 * time.Second,
}

// Load reads config.toml from the working directory or /etc/ledger.
// ERP_ environment variables win over the file, which wins over defaults.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. A missing explicit file is
// an error; a missing config.toml is not.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/ledger")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ERP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate reports every invalid setting at once.
func (c *Config) validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	db := c.Database
	if db.Driver != "postgres" && db.Driver != "sqlite" {
		fail("database.driver must be postgres or sqlite, got %q", db.Driver)
	}
	switch {
	case db.MaxOpenConns <= 0:
		fail("database.max_open_conns must be positive")
	case db.MaxIdleConns < 0:
		fail("database.max_idle_conns cannot be negative")
	case db.MaxIdleConns > db.MaxOpenConns:
		fail("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)
	}

	if c.Batch.Concurrency < 0 {
		fail("batch.concurrency cannot be negative")
	}
	for _, code := range c.Ledger.Currencies {
		if len(code) != 3 {
			fail("ledger.currencies contains invalid currency code %q", code)
		}
	}
	if pay := c.Payment; pay.RemittanceURL != "" {
		if _, err := url.ParseRequestURI(pay.RemittanceURL); err != nil {
			fail("payment.remittance_url is invalid: %w", err)
		}
		if pay.RemittanceAPIKey == "" {
			fail("payment.remittance_api_key is required when payment.remittance_url is set")
		}
	}
	if r := c.Telemetry.SamplingRatio; r < 0 || r > 1 {
		fail("telemetry.sampling_ratio must be between 0.0 and 1.0, got %g", r)
	}

	if c.App.Env == "production" {
		if db.Driver != "postgres" {
			fail("database.driver must be postgres in production")
		}
		if db.Password == "" {
			fail("database.password is required in production")
		}
		if db.SSLMode == "disable" {
			fail("database.sslmode cannot be 'disable' in production")
		}
		if c.Telemetry.DBLogFullSQL {
			fail("telemetry.db_log_full_sql must be false in production")
		}
	}
	return errors.Join(errs...)
}

// DSN returns the postgres connection URL with user info escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
