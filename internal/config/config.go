package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort uint16 `env:"REDIS_PORT" envDefault:"6379"   validate:"min=1000,max=65535"`

	// CacheBackend selects where the rate limiter, recent-history cache and
	// presence sets live: "redis" (shared, survives restarts) or "memory"
	// (process-local maps). Both satisfy the same component contracts.
	CacheBackend string `env:"CACHE_BACKEND" envDefault:"redis" validate:"oneof=redis memory"`

	// StoreBackend selects the durable message store.
	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres" validate:"oneof=postgres mongo"`

	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"chat_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"chat_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"chat_db"`

	MongoURL string `env:"MONGO_URL"`
	MongoDb  string `env:"MONGO_DB" envDefault:"chatdb"`

	RateLimitMax    int           `env:"RATE_LIMIT_MAX"    envDefault:"5"   validate:"min=1"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"10s" validate:"min=1s"`

	// HistoryCacheSize bounds the live per-room cache; HistoryPageSize is the
	// page sent on connect and the REST default. The two are distinct knobs.
	HistoryCacheSize int `env:"HISTORY_CACHE_SIZE" envDefault:"50" validate:"min=1"`
	HistoryPageSize  int `env:"HISTORY_PAGE_SIZE"  envDefault:"20" validate:"min=1,max=100"`

	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}

	if cfg.StoreBackend == "mongo" && cfg.MongoURL == "" {
		err = errors.New("MONGO_URL is required when STORE_BACKEND=mongo")
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
