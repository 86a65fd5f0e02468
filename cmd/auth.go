package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/desertthunder/tmx/internal/formatter"
	"github.com/desertthunder/tmx/internal/session"
	"github.com/desertthunder/tmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Login runs the login handshake and replaces the stored cookies on success.
//
// Credentials come from flags or TMX_EMAIL/TMX_PASSWORD and are prompted for otherwise;
// the password prompt does not echo when stdin is a terminal.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")

	var err error
	if email == "" {
		if email, err = r.prompt("Email: "); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = r.promptPassword("Password: "); err != nil {
			return err
		}
	}

	r.logger.Info("logging in", "email", email)
	r.writePlain("Logging in as %s...\n", email)

	result, err := r.login.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	r.writePlain("✓ %s\n", result.Message)
	r.writePlain("  %d cookies saved", result.CookieCount)
	if p, ok := r.store.(interface{ Path() string }); ok {
		r.writePlain(" to %s", p.Path())
	}
	r.writePlain("\n")
	r.writePlainln("Next steps:")
	r.writePlain("  tmx plan sync     fetch the weekplan\n")
	r.writePlain("  tmx today         show today's recipes\n")
	return nil
}

func (r *Runner) prompt(label string) (string, error) {
	r.writePlain("%s", label)
	line, err := r.input.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("%w: %v", shared.ErrMissingCredentials, err)
	}
	return strings.TrimSpace(line), nil
}

func (r *Runner) promptPassword(label string) (string, error) {
	f, ok := r.stdin.(*os.File)
	if !ok || !term.IsTerminal(f.Fd()) {
		return r.prompt(label)
	}

	r.writePlain("%s", label)
	secret, err := term.ReadPassword(f.Fd())
	r.writePlain("\n")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}

// sessionStatus is the JSON form of the status command.
type sessionStatus struct {
	Authenticated bool   `json:"authenticated"`
	Cookies       int    `json:"cookies"`
	WeekplanDays  int    `json:"weekplanDays"`
	Recipes       int    `json:"recipes"`
	LastSync      string `json:"lastSync,omitempty"`
	ConfigPath    string `json:"configPath,omitempty"`
	CookiesPath   string `json:"cookiesPath"`
	WeekplanPath  string `json:"weekplanPath"`
	DatabasePath  string `json:"databasePath"`
}

// Status reports whether a usable session is stored, what the local weekplan holds and where files live.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	sess, err := session.Open(r.store)
	if err != nil {
		return err
	}
	snap, err := r.snapshots.Load()
	if err != nil {
		r.logger.Warn("failed to read local weekplan", "error", err)
	}

	status := sessionStatus{
		Authenticated: sess.IsAuthenticated(r.config.Cookidoo.AuthCookies),
		Cookies:       sess.Len(),
		ConfigPath:    r.configPath,
		CookiesPath:   r.config.CookiesPath(),
		WeekplanPath:  r.snapshots.Path(),
		DatabasePath:  r.config.DatabasePath(),
	}
	if snap != nil {
		status.WeekplanDays = len(snap.Days())
		status.Recipes = snap.RecipeCount()
		status.LastSync = snap.Timestamp
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("tmx status")
	if status.Authenticated {
		r.writePlain("Session:   ✓ logged in (%d cookies)\n", status.Cookies)
	} else {
		r.writePlain("Session:   ✗ not logged in (run 'tmx login')\n")
	}
	if snap != nil {
		r.writePlain("Weekplan:  %d days, %d recipes, synced %s\n", status.WeekplanDays, status.Recipes, formatter.Stamp(snap.Timestamp))
	} else {
		r.writePlain("Weekplan:  not synced yet (run 'tmx plan sync')\n")
	}

	r.writePlainln("Files:")
	if r.configPath != "" {
		r.writePlain("  config    %s\n", r.configPath)
	}
	r.writePlain("  cookies   %s\n", status.CookiesPath)
	r.writePlain("  weekplan  %s\n", status.WeekplanPath)
	r.writePlain("  database  %s\n", status.DatabasePath)
	return nil
}
