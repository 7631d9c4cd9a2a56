package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

const (
	DriverFirestore = "firestore"
	DriverMySQL     = "mysql"
	DriverMemory    = "memory"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"firestore"`

	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`

	DBUser                 string `env:"DB_USER"`
	DBPassword             string `env:"DB_PASSWORD"`
	DBHost                 string `env:"DB_HOST"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	WatchPollInterval time.Duration `env:"WATCH_POLL_INTERVAL" envDefault:"2s"`

	RedisURL        string        `env:"REDIS_URL"`
	ExchangeRateURL string        `env:"EXCHANGE_RATE_URL" envDefault:"https://api.exchangerate-api.com/v4/latest"`
	ExchangeRateTTL time.Duration `env:"EXCHANGE_RATE_TTL" envDefault:"1h"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	GitSHA    string `env:"GIT_SHA"`
	BuildTime string `env:"BUILD_TIME"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the selected store driver depends on.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required for the firestore driver")
		}
	case DriverMySQL:
		if c.DBUser == "" || c.DBPassword == "" || c.DBName == "" {
			return errors.New("DB_USER, DB_PASSWORD and DB_NAME are required for the mysql driver")
		}
		if c.DBHost == "" && c.InstanceConnectionName == "" {
			return errors.New("DB_HOST or INSTANCE_CONNECTION_NAME is required for the mysql driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.WatchPollInterval <= 0 {
		return errors.New("WATCH_POLL_INTERVAL must be positive")
	}
	if c.ExchangeRateTTL <= 0 {
		return errors.New("EXCHANGE_RATE_TTL must be positive")
	}
	return nil
}
