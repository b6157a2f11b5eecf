package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr       string     `env:"HTTP_ADDR" envDefault:":5000"`
	DBPath         string     `env:"DB_PATH" envDefault:"data/typerace.db"`
	RedisURL       string     `env:"REDIS_URL"`
	LogLevel       slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir         string     `env:"SPA_DIR"`
	AllowedOrigins []string   `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	CountdownFrom     int           `env:"COUNTDOWN_FROM" envDefault:"3"`
	CountdownInterval time.Duration `env:"COUNTDOWN_INTERVAL" envDefault:"1s"`
	RaceDuration      time.Duration `env:"RACE_DURATION" envDefault:"60s"`
	RoomRetention     time.Duration `env:"ROOM_RETENTION" envDefault:"30s"`

	LeaderboardCacheTTL time.Duration `env:"LEADERBOARD_CACHE_TTL" envDefault:"30s"`

	WSMessageRate  float64 `env:"WS_MESSAGE_RATE" envDefault:"20"`
	WSMessageBurst int     `env:"WS_MESSAGE_BURST" envDefault:"40"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.CountdownFrom < 0:
		return fmt.Errorf("COUNTDOWN_FROM must not be negative, got %d", c.CountdownFrom)
	case c.CountdownInterval <= 0:
		return fmt.Errorf("COUNTDOWN_INTERVAL must be positive, got %s", c.CountdownInterval)
	case c.RaceDuration <= 0:
		return fmt.Errorf("RACE_DURATION must be positive, got %s", c.RaceDuration)
	case c.RoomRetention < 0:
		return fmt.Errorf("ROOM_RETENTION must not be negative, got %s", c.RoomRetention)
	case c.WSMessageRate <= 0 || c.WSMessageBurst < 1:
		return fmt.Errorf("WS_MESSAGE_RATE and WS_MESSAGE_BURST must be positive")
	}
	return nil
}
