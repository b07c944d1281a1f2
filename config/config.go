package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all server configuration
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL"`

	Port          int    `envconfig:"PORT" default:"8080"`
	RedisURL      string `envconfig:"REDIS_URL" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	MaxSessions    int      `envconfig:"MAX_SESSIONS" default:"100"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	MaxTranscript  int      `envconfig:"MAX_TRANSCRIPT" default:"200"`
	TurnsPerMinute int      `envconfig:"TURNS_PER_MINUTE" default:"60"`
	TurnBurst      int      `envconfig:"TURN_BURST" default:"10"`

	// SESSION_TIMEOUT is in minutes, KEEPALIVE_PERIOD and TURN_TIMEOUT in seconds
	SessionTimeout  int `envconfig:"SESSION_TIMEOUT" default:"30"`
	KeepAlivePeriod int `envconfig:"KEEPALIVE_PERIOD" default:"30"`
	TurnTimeout     int `envconfig:"TURN_TIMEOUT" default:"5"`

	RestaurantName string   `envconfig:"RESTAURANT_NAME" default:"La Maison"`
	SeatsPerSlot   int      `envconfig:"SEATS_PER_SLOT" default:"40"`
	ClosedDays     []string `envconfig:"CLOSED_DAYS"`
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid PORT: %d", c.Port)
	case c.MaxSessions <= 0:
		return fmt.Errorf("invalid MAX_SESSIONS: must be positive")
	case c.SessionTimeout <= 0:
		return fmt.Errorf("invalid SESSION_TIMEOUT: must be positive")
	case c.KeepAlivePeriod <= 0:
		return fmt.Errorf("invalid KEEPALIVE_PERIOD: must be positive")
	case c.MaxTranscript <= 0:
		return fmt.Errorf("invalid MAX_TRANSCRIPT: must be positive")
	case c.TurnsPerMinute <= 0 || c.TurnBurst <= 0:
		return fmt.Errorf("invalid TURNS_PER_MINUTE/TURN_BURST: must be positive")
	case c.TurnTimeout <= 0:
		return fmt.Errorf("invalid TURN_TIMEOUT: must be positive")
	case c.SeatsPerSlot <= 0:
		return fmt.Errorf("invalid SEATS_PER_SLOT: must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SessionTTL is the idle time after which a session is closed
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTimeout) * time.Minute
}

// KeepAlive is the interval between WebSocket pings
func (c *Config) KeepAlive() time.Duration {
	return time.Duration(c.KeepAlivePeriod) * time.Second
}

// TurnDeadline bounds one conversation turn, collaborators included
func (c *Config) TurnDeadline() time.Duration {
	return time.Duration(c.TurnTimeout) * time.Second
}
