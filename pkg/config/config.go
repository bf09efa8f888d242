package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Backend      BackendConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CORELIA_APP_ENV" default:"dev"`
	Port         string `envconfig:"CORELIA_APP_PORT" default:"8350"`
	LogLevel     string `envconfig:"CORELIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CORELIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Path string `envconfig:"CORELIA_DB_PATH" default:"corelia-cart.db"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CORELIA_REDIS_URL"`
	Address      string        `envconfig:"CORELIA_REDIS_ADDR"`
	Password     string        `envconfig:"CORELIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"CORELIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CORELIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CORELIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CORELIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CORELIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CORELIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint is configured at all. The gateway
// runs without redis; only checkout idempotency replay depends on it.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type BackendConfig struct {
	BaseURL string        `envconfig:"CORELIA_BACKEND_URL" required:"true"`
	Token   string        `envconfig:"CORELIA_BACKEND_TOKEN"`
	Timeout time.Duration `envconfig:"CORELIA_BACKEND_TIMEOUT" default:"15s"`
}

func (b BackendConfig) validate() error {
	base := strings.TrimSpace(b.BaseURL)
	if base == "" {
		return fmt.Errorf("%s is required", EnvBackendURL)
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return fmt.Errorf("%s must be an http(s) URL", EnvBackendURL)
	}
	return nil
}

type CheckoutConfig struct {
	IdempotencyTTL time.Duration `envconfig:"CORELIA_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CORELIA_AUTO_MIGRATE" default:"true"`
}
