package app

import (
	"errors"
	"fmt"

	"github.com/vk/shadergrid/internal/notify"
	"github.com/vk/shadergrid/internal/platform"
	"github.com/vk/shadergrid/internal/stage"
	"github.com/vk/shadergrid/internal/toolchain"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Stages       []stage.Stage // from --stage, in command-line order
	ManifestPath string        // optional HCL manifest file or directory

	Platform platform.Host
	Tools    toolchain.Tools // explicit overrides, win over the manifest
	DryRun   bool

	LogFormat string
	LogLevel  string

	Notify notify.Config
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Stages) == 0 && cfg.ManifestPath == "" {
		return nil, errors.New("at least one --stage or a --manifest is required")
	}
	if cfg.Platform.OS == "" {
		return nil, errors.New("Platform is a required configuration field and cannot be empty")
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if cfg.Notify.Timeout < 0 {
		return nil, errors.New("notify timeout cannot be negative")
	}

	return &cfg, nil
}
