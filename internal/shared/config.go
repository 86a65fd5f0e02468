package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Cookidoo CookidooConfig `toml:"cookidoo"`
	Sync     SyncConfig     `toml:"sync"`
	Search   SearchConfig   `toml:"search"`
	Storage  StorageConfig  `toml:"storage"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// CookidooConfig describes the remote service endpoints and the browser profile used to talk to it.
type CookidooConfig struct {
	BaseURL        string   `toml:"base_url"`
	Locale         string   `toml:"locale"`
	Market         string   `toml:"market"`
	LoginURL       string   `toml:"login_url"`
	LoginOrigin    string   `toml:"login_origin"`
	AssetHost      string   `toml:"asset_host"`
	CookieDomain   string   `toml:"cookie_domain"`
	AuthCookies    []string `toml:"auth_cookies"`
	TodayLabels    []string `toml:"today_labels"`
	UserAgent      string   `toml:"user_agent"`
	AcceptLanguage string   `toml:"accept_language"`
}

// SyncConfig controls weekplan synchronization and the login handshake.
type SyncConfig struct {
	Days              int     `toml:"days"`
	MaxRedirects      int     `toml:"max_redirects"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// SearchConfig contains the search backend identifiers.
type SearchConfig struct {
	AlgoliaAppID string `toml:"algolia_app_id"`
	AlgoliaIndex string `toml:"algolia_index"`
	// Endpoint overrides the search host; empty means https://{algolia_app_id}-dsn.algolia.net
	Endpoint string `toml:"endpoint"`
	Limit    int    `toml:"limit"`
}

// StorageConfig contains local file locations.
type StorageConfig struct {
	Dir          string `toml:"dir"`
	CookiesFile  string `toml:"cookies_file"`
	WeekplanFile string `toml:"weekplan_file"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads a TOML configuration file and overlays it on the embedded defaults.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the settings the HTTP components cannot work without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Cookidoo.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: cookidoo.base_url %q", ErrInvalidConfig, c.Cookidoo.BaseURL)
	}
	if c.Cookidoo.Locale == "" {
		return fmt.Errorf("%w: cookidoo.locale is empty", ErrInvalidConfig)
	}
	if len(c.Cookidoo.AuthCookies) == 0 {
		return fmt.Errorf("%w: cookidoo.auth_cookies is empty", ErrInvalidConfig)
	}
	if c.Sync.Days < 0 || c.Sync.MaxRedirects < 0 || c.Sync.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: sync values must not be negative", ErrInvalidConfig)
	}
	return nil
}

// SearchEndpoint returns the search host URL without a trailing slash.
func (c *Config) SearchEndpoint() string {
	if c.Search.Endpoint != "" {
		return strings.TrimRight(c.Search.Endpoint, "/")
	}
	return "https://" + c.Search.AlgoliaAppID + "-dsn.algolia.net"
}

// Timeout returns the per-request HTTP timeout, defaulting to 30 seconds.
func (c *Config) Timeout() time.Duration {
	if c.Sync.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Sync.TimeoutSeconds) * time.Second
}

// CookiesPath returns the absolute location of the cookie file.
func (c *Config) CookiesPath() string {
	return c.storagePath(c.Storage.CookiesFile)
}

// WeekplanPath returns the absolute location of the weekplan snapshot file.
func (c *Config) WeekplanPath() string {
	return c.storagePath(c.Storage.WeekplanFile)
}

// DatabasePath returns the database location with a leading ~ expanded.
func (c *Config) DatabasePath() string {
	if c.Database.Path == ":memory:" {
		return c.Database.Path
	}
	return ExpandHome(c.Database.Path)
}

func (c *Config) storagePath(name string) string {
	name = ExpandHome(name)
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(ExpandHome(c.Storage.Dir), name)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
