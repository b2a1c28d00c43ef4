// Package config loads service and CLI settings from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the ledger server configuration
type Config struct {
	GRPCAddr string `env:"GRPC_ADDR" envDefault:":8080"`
	APIToken string `env:"API_TOKEN" envDefault:"dev-token"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Postgres Postgres
	Redis    Redis

	// ReportingCurrency is the currency summaries are expressed in
	ReportingCurrency string `env:"REPORTING_CURRENCY" envDefault:"EUR"`
	// FXRates are units of the reporting currency per unit of each currency, e.g. "EUR:1,USD:0.92"
	FXRates string `env:"FX_RATES" envDefault:"EUR:1"`

	// SeedCashCurrencies get one CASH asset each at startup; empty seeds nothing
	SeedCashCurrencies []string `env:"SEED_CASH_CURRENCIES" envDefault:"EUR" envSeparator:","`

	// ReconcileInterval is how often the projection is checked against storage; 0 disables it
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"15m"`
}

// Postgres holds the database settings.
// ConnStr wins over the individual fields when set.
type Postgres struct {
	ConnStr  string `env:"DB_CONN_STR"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"wealthflow"`
}

// Redis holds the snapshot cache settings. An empty Addr disables the cache.
type Redis struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"10m"`
}

// DSN returns the lib/pq connection string
func (p Postgres) DSN() string {
	if p.ConnStr != "" {
		return p.ConnStr
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.Name)
}

// Load reads the server configuration
func Load() (*Config, error) {
	cfg := &Config{}
	if err := parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Client is the ledgerctl configuration
type Client struct {
	Addr    string        `env:"LEDGER_ADDR" envDefault:"localhost:8080"`
	Token   string        `env:"LEDGER_TOKEN" envDefault:"dev-token"`
	Timeout time.Duration `env:"LEDGER_TIMEOUT" envDefault:"10s"`
}

// LoadClient reads the ledgerctl configuration
func LoadClient() (*Client, error) {
	cfg := &Client{}
	if err := parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(cfg interface{}) error {
	_ = godotenv.Load(".env")

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config error: %w", err)
	}
	return nil
}
