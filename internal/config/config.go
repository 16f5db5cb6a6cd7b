package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/taxdesk/internal/profile"
)

type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

type Config struct {
	App struct {
		Name    string `envconfig:"APP_NAME" default:"Taxdesk"`
		Port    int    `envconfig:"PORT" default:"8080"`
		Company string `envconfig:"COMPANY_NAME"`
	}

	Storage struct {
		Backend   Backend       `envconfig:"STORAGE_BACKEND" default:"memory"`
		FlushWait time.Duration `envconfig:"STORAGE_FLUSH_TIMEOUT" default:"5s"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"taxdesk"`
	}

	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
		Prefix   string `envconfig:"REDIS_PREFIX" default:"taxdesk"`
	}

	// Profile is served until a setup profile has been saved.
	Profile struct {
		IsQFZP                  bool   `envconfig:"QFZP" default:"false"`
		QualifyingIncomeCeiling string `envconfig:"QFZP_QUALIFYING_CEILING" default:"0"`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		JWTSecret   string        `envconfig:"JWT_SECRET"`
		RateLimit   int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
		CORSOrigins []string      `envconfig:"CORS_ORIGINS"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// DefaultProfile builds the fallback setup profile.
func (c *Config) DefaultProfile() (profile.Profile, error) {
	ceiling, err := decimal.NewFromString(c.Profile.QualifyingIncomeCeiling)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("parsing QFZP_QUALIFYING_CEILING: %w", err)
	}

	return profile.Profile{
		IsQFZP:         c.Profile.IsQFZP,
		FreeZoneIncome: profile.FreeZoneIncome{Qualifying: ceiling},
	}, nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	switch cfg.Storage.Backend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Storage.Backend)
	}

	return &cfg, nil
}
