package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,   default=168h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	CORSOrigins []string `env:"CORS_ORIGINS"`

	Mongo  MongoConfig
	Redis  RedisConfig
	AMQP   AMQPConfig
	Notify NotifyConfig
	Seed   SeedConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=estimate_system"`
}

// RedisConfig configures the principal cache. An empty Addr disables it.
type RedisConfig struct {
	Addr         string        `env:"REDIS_ADDR"`
	Password     string        `env:"REDIS_PASSWORD"`
	DB           int           `env:"REDIS_DB,            default=0"`
	PrincipalTTL time.Duration `env:"PRINCIPAL_CACHE_TTL, default=1m"`
}

// AMQPConfig configures the estimate notification broker. An empty URL
// logs notifications instead of publishing them.
type AMQPConfig struct {
	URL   string `env:"AMQP_URL"`
	Queue string `env:"AMQP_QUEUE, default=estimate.notifications"`
}

type NotifyConfig struct {
	Workers int `env:"NOTIFY_WORKERS, default=4"`
}

// SeedConfig bootstraps an approved admin on startup when both fields are set.
type SeedConfig struct {
	AdminEmail    string `env:"SEED_ADMIN_EMAIL"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD"`
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Notify.Workers < 1 {
		errs = append(errs, errors.New("NOTIFY_WORKERS must be at least 1"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
