package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/session"
	"github.com/desertthunder/tmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded configuration template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		return fmt.Errorf("%w: --path", shared.ErrMissingArgument)
	}

	if _, err := os.Stat(path); err == nil {
		if !cmd.Bool("force") {
			return fmt.Errorf("%w: %s already exists (use --force to overwrite)", shared.ErrInvalidArgument, path)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to replace config: %w", err)
		}
	}

	r.logger.Info("creating config file from template", "path", path)
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	if _, err := shared.LoadConfig(path); err != nil {
		return fmt.Errorf("written config does not load: %w", err)
	}

	r.writePlain("✓ Config written to %s\n", path)
	return nil
}

// SetupDatabase initializes the database and runs migrations.
//
// With --status it only lists migrations; with --rollback it reverts the latest one.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.config.DatabasePath()
	r.logger.Info("initializing database", "path", path)

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	switch {
	case cmd.Bool("rollback"):
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		r.writePlain("✓ Rolled back the latest migration\n")
	case !cmd.Bool("status"):
		r.logger.Info("running database migrations")
		if err := shared.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		r.logger.Infof("setup complete for database: %v", path)
	}

	statuses, err := shared.MigrationStatuses(db)
	if err != nil {
		return err
	}

	r.writePlainHeader("Migrations: " + path)
	for _, s := range statuses {
		mark := "✗"
		if s.Applied {
			mark = "✓"
		}
		r.writePlain("  %s %04d %s\n", mark, s.Version, s.Name)
	}
	return nil
}

// SetupCookies imports session cookies from a request copied as cURL in the browser's DevTools.
// It is an alternative to 'tmx login' when the scripted handshake is blocked.
func (r *Runner) SetupCookies(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var req *shared.CurlRequest
	var err error
	if curlFile != "" {
		if req, err = shared.ParseCurlFile(curlFile); err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		if req, err = shared.ParseCurlCommand(curlCmd); err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
	}

	domain := r.config.Cookidoo.CookieDomain
	if domain == "" {
		domain = req.Host()
	}

	var cookies []models.Cookie
	for _, c := range req.Cookies() {
		cookies = append(cookies, models.CookieFromHTTP(c, domain))
	}
	if !session.AuthenticatedFor(cookies, r.config.Cookidoo.AuthCookies, domain) {
		return fmt.Errorf("%w: the request carries none of %v", shared.ErrNoAuthCookies, r.config.Cookidoo.AuthCookies)
	}

	if err := r.store.Replace(cookies); err != nil {
		return err
	}
	r.logger.Info("cookies imported", "count", len(cookies), "domain", domain)

	r.writePlain("✓ Imported %d cookies for %s\n", len(cookies), domain)
	r.writePlainln("Next steps:")
	r.writePlain("  tmx plan sync\n")
	return nil
}
