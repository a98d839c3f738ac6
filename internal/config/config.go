package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/punchamoorthee/orionledger/internal/domain"
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port     string `env:"SERVER_PORT" envDefault:"8080"`
	Env      string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"file"`
	StorePath   string `env:"STORE_PATH" envDefault:"users.json"`
	DBSource    string `env:"DB_SOURCE"`

	InitialBalanceRaw string `env:"INITIAL_BALANCE" envDefault:"1000.00"`
	PasswordCost      int    `env:"PASSWORD_COST" envDefault:"10"`

	TokenSecret string        `env:"TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	initialBalance domain.Money
}

const devTokenSecret = "development-only-token-secret"

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverFile, DriverSQLite:
		if strings.TrimSpace(c.StorePath) == "" {
			return fmt.Errorf("STORE_PATH is required for driver %q", c.StoreDriver)
		}
	case DriverPostgres:
		if c.DBSource == "" {
			return fmt.Errorf("DB_SOURCE environment variable is required")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	bal, err := domain.ParseMoney(c.InitialBalanceRaw)
	if err != nil {
		return fmt.Errorf("INITIAL_BALANCE: %w", err)
	}
	if bal.IsNegative() {
		return fmt.Errorf("INITIAL_BALANCE must not be negative")
	}
	c.initialBalance = bal

	if c.PasswordCost < 4 || c.PasswordCost > 31 {
		return fmt.Errorf("PASSWORD_COST must be between 4 and 31")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.TokenSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("TOKEN_SECRET is required in %s", c.Env)
		}
		c.TokenSecret = devTokenSecret
	}
	return nil
}

// InitialBalance is the starting grant credited to every new account.
func (c *Config) InitialBalance() domain.Money { return c.initialBalance }

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
