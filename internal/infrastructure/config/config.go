package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port          string        `env:"PORT,           default=8080"`
	Env           string        `env:"ENV,            default=development"`
	LogLevel      string        `env:"LOG_LEVEL,      default=info"`
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL,    default=1h"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Login  LoginConfig
	Client ClientConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=flora_shop"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// LoginConfig bounds login attempts per username+IP within a fixed window.
type LoginConfig struct {
	Window      time.Duration `env:"LOGIN_RATE_WINDOW,   default=15m"`
	MaxAttempts int           `env:"LOGIN_RATE_ATTEMPTS, default=10"`
}

// ClientConfig carries the knobs of the client-side auth subsystem. The
// refresh interval drives the periodic session liveness probe.
type ClientConfig struct {
	APIBaseURL      string        `env:"API_BASE_URL,             default=http://localhost:8080/api"`
	RefreshInterval time.Duration `env:"SESSION_REFRESH_INTERVAL, default=25m"`
}

// IsDevelopment reports whether verbose diagnostic logging should be on.
// It never affects a security decision.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
