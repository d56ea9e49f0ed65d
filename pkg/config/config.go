// Package config loads adapter settings from the process environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the adapter and its CLI. Defaults mirror the
// game's expected serving setup: a local static server on port 8000 and a
// 448x700 browser window.
type Config struct {
	GameURL      string `env:"PONG_GAME_URL" envDefault:"http://localhost:8000/index.html"`
	Headless     bool   `env:"PONG_HEADLESS" envDefault:"true"`
	WindowWidth  int    `env:"PONG_WINDOW_WIDTH" envDefault:"448"`
	WindowHeight int    `env:"PONG_WINDOW_HEIGHT" envDefault:"700"`

	// SettleInterval is the press-to-release hold inside a step, one rendered
	// frame at 60 FPS.
	SettleInterval time.Duration `env:"PONG_SETTLE_INTERVAL" envDefault:"16ms"`
	// PageLoadWait is the grace period after navigation before the page is
	// scripted.
	PageLoadWait time.Duration `env:"PONG_PAGE_LOAD_WAIT" envDefault:"2s"`
	// ReadinessTimeout bounds reset's wait for the display flag. Zero waits
	// without bound.
	ReadinessTimeout time.Duration `env:"PONG_READINESS_TIMEOUT" envDefault:"15s"`
	// ReadinessPollInterval is the delay between display-flag polls.
	ReadinessPollInterval time.Duration `env:"PONG_READINESS_POLL" envDefault:"100ms"`

	LogLevel slog.Level `env:"PONG_LOG_LEVEL" envDefault:"info"`
	// RecordPath enables the sqlite step store when set.
	RecordPath string `env:"PONG_RECORD_DB"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
