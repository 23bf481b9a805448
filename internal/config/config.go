package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the server configuration.
type Config struct {
	HTTPAddr string `env:"OLYMPICS_HTTP_ADDR" envDefault:":8080"`
	// DataURL takes precedence over DataFile when set.
	DataURL         string        `env:"OLYMPICS_DATA_URL"`
	DataFile        string        `env:"OLYMPICS_DATA_FILE" envDefault:"assets/mock/olympic.json"`
	AssetsDir       string        `env:"OLYMPICS_ASSETS_DIR" envDefault:"assets"`
	LoadTimeout     time.Duration `env:"OLYMPICS_LOAD_TIMEOUT" envDefault:"10s"`
	ReloadEvery     time.Duration `env:"OLYMPICS_RELOAD_EVERY" envDefault:"10s"`
	ReloadBurst     int           `env:"OLYMPICS_RELOAD_BURST" envDefault:"1"`
	ShutdownTimeout time.Duration `env:"OLYMPICS_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	LogLevel        string        `env:"OLYMPICS_LOG_LEVEL" envDefault:"info"`
}

// Parse loads defaults from the environment and then applies flags.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DataURL, "data-url", cfg.DataURL, "URL of the dataset (overrides -data-file)")
	fs.StringVar(&cfg.DataFile, "data-file", cfg.DataFile, "Path of the dataset JSON file")
	fs.StringVar(&cfg.AssetsDir, "assets-dir", cfg.AssetsDir, "Directory served under /assets")
	fs.DurationVar(&cfg.LoadTimeout, "load-timeout", cfg.LoadTimeout, "Timeout of one dataset load")
	fs.DurationVar(&cfg.ReloadEvery, "reload-every", cfg.ReloadEvery, "Minimum interval between on-demand reloads")
	fs.IntVar(&cfg.ReloadBurst, "reload-burst", cfg.ReloadBurst, "Reloads allowed in a burst")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Grace period for in-flight requests on shutdown")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("http address is required")
	}
	if strings.TrimSpace(c.DataURL) == "" && strings.TrimSpace(c.DataFile) == "" {
		return errors.New("one of data url or data file is required")
	}
	if c.LoadTimeout <= 0 {
		return fmt.Errorf("load timeout must be positive, got %s", c.LoadTimeout)
	}
	if c.ReloadEvery <= 0 || c.ReloadBurst <= 0 {
		return errors.New("reload rate must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured slog level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
