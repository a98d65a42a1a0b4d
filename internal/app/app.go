package app

import (
	"io"
	"log/slog"

	"github.com/vk/shadergrid/internal/config"
	"github.com/vk/shadergrid/internal/toolchain"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger *slog.Logger
	config *Config
	loader config.Loader
	runner toolchain.Runner
}

// NewApp is the constructor for the main application. Logs go to logW;
// runner executes (or prints) every tool invocation.
func NewApp(logW io.Writer, cfg *Config, loader config.Loader, runner toolchain.Runner) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		logger: logger,
		config: cfg,
		loader: loader,
		runner: runner,
	}
}

// NewRunner picks how tools are invoked: printed to stdout for a dry run,
// executed with their output streamed otherwise.
func NewRunner(cfg *Config, stdout, stderr io.Writer) toolchain.Runner {
	if cfg.DryRun {
		return &toolchain.DryRunner{Out: stdout}
	}
	return toolchain.NewExecRunner(stdout, stderr)
}
