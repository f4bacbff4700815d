package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/octobees/anycrm/internal/config"
	"github.com/octobees/anycrm/internal/database"
	"github.com/octobees/anycrm/internal/repository"
	"github.com/octobees/anycrm/internal/service"
	"github.com/octobees/anycrm/internal/settings"
)

// newCLIApp creates the CLI application. Running it without a command serves.
func newCLIApp(cfg *config.Config, out io.Writer) *cli.App {
	app := &cli.App{
		Name:    "anycrm",
		Usage:   "Accounts and contacts CRM with agent-driven enrichment",
		Version: Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "settings", Value: cfg.SettingsPath, Usage: "Path of the settings YAML file", EnvVars: []string{"SETTINGS_PATH"}},
		},
		Commands: []*cli.Command{
			serveCmd(cfg),
			migrateCmd(cfg),
			rotateKeyCmd(cfg),
			importCmd(cfg),
		},
	}
	app.Action = serveCmd(cfg).Action
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func serveCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server (default)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Value: cfg.Port, Usage: "Listen port"},
			&cli.BoolFlag{Name: "skip-migrate", Usage: "Do not apply database migrations on start"},
		},
		Action: func(c *cli.Context) error {
			if port := c.String("port"); port != "" {
				cfg.Port = port
			}
			cfg.SettingsPath = c.String("settings")
			logger := newLogger(cfg, os.Stderr)
			return serve(c.Context, cfg, logger, !c.Bool("skip-migrate"))
		},
	}
}

func migrateCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations and exit",
		Action: func(c *cli.Context) error {
			if err := cfg.Validate(); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			version, err := database.Migrate(cfg.DatabaseURL)
			if err != nil {
				return cli.Exit(fmt.Sprintf("migrate: %v", err), 1)
			}
			return outputJSON(c.App.Writer, map[string]any{"version": version})
		},
	}
}

func rotateKeyCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "rotate-key",
		Usage: "Generate a new REST API key and print it",
		Action: func(c *cli.Context) error {
			store, err := openSettings(cfg, c.String("settings"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			key, err := store.RotateAPIKey()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return outputJSON(c.App.Writer, map[string]string{"api_key": key})
		},
	}
}

func importCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "import-accounts",
		Usage:     "Create accounts from a CSV file with name, industry, website and notes columns",
		ArgsUsage: "<file.csv>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one CSV file", 1)
			}
			if err := cfg.Validate(); err != nil {
				return cli.Exit(err.Error(), 1)
			}

			file, err := os.Open(c.Args().First())
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer file.Close()

			ctx, cancel := context.WithTimeout(c.Context, 5*time.Minute)
			defer cancel()

			pool, err := database.Connect(ctx, cfg.DatabaseURL, poolOptions(cfg))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer pool.Close()

			accounts := service.NewAccountsService(
				repository.NewPGXAccountsRepository(pool),
				repository.NewPGXContactsRepository(pool),
				service.NewNormalizer(cfg.DefaultPhoneRegion),
			)
			summary, err := accounts.ImportCSV(ctx, file)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return outputJSON(c.App.Writer, summary)
		},
	}
}

func openSettings(cfg *config.Config, path string) (*settings.Store, error) {
	if path == "" {
		path = cfg.SettingsPath
	}
	return settings.Open(path, settings.Settings{BaseURL: cfg.BaseURL, AgentAPIURL: cfg.AgentAPIURL})
}

func poolOptions(cfg *config.Config) database.PoolOptions {
	return database.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns}
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
