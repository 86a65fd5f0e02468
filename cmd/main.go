package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// configPath resolves the configuration file: $TMX_CONFIG, ./config.toml, then ~/.tmx/config.toml.
func configPath() string {
	if p := os.Getenv("TMX_CONFIG"); p != "" {
		return shared.ExpandHome(p)
	}
	if _, err := os.Stat("config.toml"); err == nil {
		return "config.toml"
	}
	return filepath.Join(shared.ExpandHome("~/.tmx"), "config.toml")
}

// hint returns a user-facing next step for well-known failures.
func hint(err error) string {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrNoAuthCookies):
		return "not logged in, run 'tmx login'"
	case errors.Is(err, shared.ErrSessionExpired):
		return "session expired, run 'tmx login' again"
	case errors.Is(err, shared.ErrWrongPassword):
		return "wrong password"
	case errors.Is(err, shared.ErrAccountNotFound):
		return "no account with this email"
	case errors.Is(err, shared.ErrInvalidDate):
		return "dates use the format YYYY-MM-DD"
	case errors.Is(err, shared.ErrInvalidConfig):
		return "check your config file or run 'tmx setup config --force'"
	default:
		return ""
	}
}

func main() {
	logger := shared.NewLogger(nil)

	path := configPath()
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if loadedConfig, err := shared.LoadConfig(path); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		}
	}
	shared.SetLogLevel(logger, config.Log.Level)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: path,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:                  "tmx",
		Usage:                 "Cookidoo weekplan, shopping list and recipe search from the terminal",
		Version:               "0.1.0",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				logger.SetLevel(log.DebugLevel)
				runner.SetLogger(logger)
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if h := hint(err); h != "" {
			logger.Error(h)
		}
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}
