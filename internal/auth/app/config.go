package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is populated from the environment. AUTHD_JWT_SECRET is the only
// required value; everything else has a workable default.
type Config struct {
	// Issuer is the iss claim stamped into every signed token.
	Issuer string `env:"AUTHD_ISSUER" envDefault:"authd"`

	// JWTSecret signs and verifies all tokens. Must be at least 32 bytes.
	JWTSecret string `env:"AUTHD_JWT_SECRET,required,unset"`

	DatabaseFile string `env:"AUTHD_DATABASE_FILE" envDefault:"authd.db"`

	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// LoadConfig parses the environment into a Config.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("app: parse config: %w", err)
	}
	return cfg, nil
}
