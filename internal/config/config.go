package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string `env:"TABLETOP_HTTP_ADDR" envDefault:":8080"`
	// DBPath selects SQLite storage; empty keeps everything in memory.
	DBPath string `env:"TABLETOP_DB_PATH" envDefault:"tabletop.db"`

	RoomPassword         string `env:"TABLETOP_ROOM_PASSWORD"`
	FallbackRoomPassword string `env:"TABLETOP_FALLBACK_PASSWORD" envDefault:"tabletop"`
	DMPassword           string `env:"TABLETOP_DM_PASSWORD"`

	LogLevel  string `env:"TABLETOP_LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"TABLETOP_LOG_PRETTY" envDefault:"false"`

	SendBuffer      int           `env:"TABLETOP_SEND_BUFFER" envDefault:"64"`
	MaxMessageBytes int64         `env:"TABLETOP_MAX_MESSAGE_BYTES" envDefault:"1048576"`
	PingInterval    time.Duration `env:"TABLETOP_PING_INTERVAL" envDefault:"25s"`
	PongWait        time.Duration `env:"TABLETOP_PONG_WAIT" envDefault:"60s"`
	WriteWait       time.Duration `env:"TABLETOP_WRITE_WAIT" envDefault:"10s"`

	MaxDiceHistory int `env:"TABLETOP_MAX_DICE_HISTORY" envDefault:"100"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.SendBuffer <= 0 {
		return fmt.Errorf("TABLETOP_SEND_BUFFER must be positive, got %d", c.SendBuffer)
	}
	if c.MaxMessageBytes <= 0 {
		return fmt.Errorf("TABLETOP_MAX_MESSAGE_BYTES must be positive, got %d", c.MaxMessageBytes)
	}
	if c.PingInterval <= 0 || c.PongWait <= c.PingInterval {
		return fmt.Errorf("TABLETOP_PONG_WAIT (%s) must exceed TABLETOP_PING_INTERVAL (%s)", c.PongWait, c.PingInterval)
	}
	if c.WriteWait <= 0 {
		return fmt.Errorf("TABLETOP_WRITE_WAIT must be positive, got %s", c.WriteWait)
	}
	return nil
}
