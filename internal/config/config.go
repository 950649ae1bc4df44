package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"72h"`

	// Optional backing services. Alerts fall back to localhost Redis,
	// events stay disabled without an AMQP URL.
	RedisAddr string `envconfig:"REDIS_ADDR"`
	AMQPURL   string `envconfig:"AMQP_URL"`

	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`

	AuthRateLimit int `envconfig:"AUTH_RATE_LIMIT" default:"20"`
}

func Load() (Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	return c, err
}
