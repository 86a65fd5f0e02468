package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Cookidoo.BaseURL != "https://cookidoo.de" {
			t.Errorf("expected base URL https://cookidoo.de, got %s", config.Cookidoo.BaseURL)
		}

		if config.Cookidoo.Locale != "de-DE" {
			t.Errorf("expected locale de-DE, got %s", config.Cookidoo.Locale)
		}

		if len(config.Cookidoo.AuthCookies) != 2 {
			t.Errorf("expected 2 auth cookies, got %v", config.Cookidoo.AuthCookies)
		}

		if config.Sync.Days != 14 {
			t.Errorf("expected 14 sync days, got %d", config.Sync.Days)
		}

		if config.Sync.MaxRedirects != 10 {
			t.Errorf("expected 10 max redirects, got %d", config.Sync.MaxRedirects)
		}

		if config.Timeout() != 30*time.Second {
			t.Errorf("expected 30s timeout, got %v", config.Timeout())
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "nested", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig overlays defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[cookidoo]
base_url = "https://cookidoo.co.uk"
locale = "en-GB"

[sync]
days = 21

[storage]
dir = "/tmp/tmx-test"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Cookidoo.BaseURL != "https://cookidoo.co.uk" {
			t.Errorf("expected overridden base URL, got %s", config.Cookidoo.BaseURL)
		}

		if config.Sync.Days != 21 {
			t.Errorf("expected 21 days, got %d", config.Sync.Days)
		}

		if config.Sync.MaxRedirects != 10 {
			t.Errorf("expected default max redirects to survive, got %d", config.Sync.MaxRedirects)
		}

		if got := config.CookiesPath(); got != "/tmp/tmx-test/cookidoo_cookies.json" {
			t.Errorf("expected cookies path under storage dir, got %s", got)
		}
	})

	t.Run("LoadConfig rejects invalid base URL", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[cookidoo]\nbase_url = \"not a url\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	t.Run("expands tilde prefix", func(t *testing.T) {
		got := ExpandHome("~/.tmx/cookies.json")
		if !strings.HasPrefix(got, home) || !strings.HasSuffix(got, ".tmx/cookies.json") {
			t.Errorf("unexpected expansion %s", got)
		}
	})

	t.Run("leaves other paths alone", func(t *testing.T) {
		for _, p := range []string{"/abs/path", "rel/path", "~user/x"} {
			if got := ExpandHome(p); got != p {
				t.Errorf("ExpandHome(%q) = %q", p, got)
			}
		}
	})

	t.Run("absolute storage files ignore dir", func(t *testing.T) {
		c := DefaultConfig()
		c.Storage.WeekplanFile = "/var/tmp/plan.json"
		if got := c.WeekplanPath(); got != "/var/tmp/plan.json" {
			t.Errorf("WeekplanPath() = %s", got)
		}
	})
}
