package main

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/repositories"
	"github.com/desertthunder/tmx/internal/services"
	"github.com/desertthunder/tmx/internal/session"
	"github.com/desertthunder/tmx/internal/shared"
	"github.com/desertthunder/tmx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	opts       RunnerOpts
	config     *shared.Config
	configPath string
	store      session.Store
	service    services.Service
	login      services.LoginService
	engine     *tasks.WeekplanEngine
	snapshots  *repositories.SnapshotFile
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
	stdin      io.Reader
	open       func(url string) error
	now        func() time.Time
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Store, Service and Login default to the cookie file and the live Cookidoo endpoints described by Config.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      session.Store
	Service    services.Service
	Login      services.LoginService
	HTTPClient *http.Client
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Open       func(url string) error
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := &Runner{opts: opts}
	r.wire()
	return r
}

// wire builds every dependency not supplied through the options from the current config and logger.
func (r *Runner) wire() {
	opts := r.opts

	r.config = opts.Config
	r.configPath = opts.ConfigPath
	r.logger = opts.Logger
	r.output = opts.Output
	r.stdin = opts.Input
	r.input = bufio.NewReader(opts.Input)
	r.open = opts.Open
	r.now = opts.Now
	r.db = opts.DB

	r.httpClient = opts.HTTPClient
	if r.httpClient == nil {
		r.httpClient = services.NewHTTPClient(r.config, nil)
	}

	r.store = opts.Store
	if r.store == nil {
		r.store = session.NewFileStore(r.config.CookiesPath())
	}

	r.service = opts.Service
	if r.service == nil {
		r.service = services.NewCookidooService(services.CookidooOpts{
			Config: r.config,
			Store:  r.store,
			Client: r.httpClient,
			Tokens: &tokenCache{runner: r},
			Logger: r.logger,
			Now:    r.now,
		})
	}

	r.login = opts.Login
	if r.login == nil {
		r.login = services.NewAuthenticator(services.AuthenticatorOpts{
			Config:    r.config,
			Store:     r.store,
			Logger:    r.logger,
			Transport: r.httpClient.Transport,
		})
	}

	r.engine = tasks.NewWeekplanEngine(tasks.EngineOpts{
		Config: r.config,
		Store:  r.store,
		Client: r.httpClient,
		Logger: r.logger,
		Now:    r.now,
	})
	r.snapshots = repositories.NewSnapshotFile(r.config.WeekplanPath())
}

// SetLogger replaces the logger and rebuilds the components that log through it.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.opts.Logger = logger
	r.opts.DB = r.db
	r.wire()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		loginCommand, statusCommand, todayCommand, searchCommand, openCommand,
		planCommand, shoppingCommand, cacheCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database opens the history database on first use and runs pending migrations.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	r.logger.Debug("opening database", "path", r.config.DatabasePath())
	db, err := shared.OpenDatabase(r.config)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

func (r *Runner) history() (*repositories.SnapshotRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewSnapshotRepository(db), nil
}

func (r *Runner) tokens() (*repositories.TokenRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewTokenRepository(db), nil
}

// Close releases the database connection if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// tokenCache backs the search token cache with the history database, opened lazily so that
// commands which never search do not touch it.
type tokenCache struct {
	runner *Runner
}

func (c *tokenCache) Get(name string) (*models.SearchToken, error) {
	repo, err := c.runner.tokens()
	if err != nil {
		return nil, err
	}
	return repo.Get(name)
}

func (c *tokenCache) Put(name string, token *models.SearchToken) error {
	repo, err := c.runner.tokens()
	if err != nil {
		return err
	}
	return repo.Put(name, token)
}

func (r *Runner) today() string {
	return shared.FormatDate(r.now())
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
