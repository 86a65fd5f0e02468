package shared

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestDates(t *testing.T) {
	t.Run("ParseDate", func(t *testing.T) {
		d, err := ParseDate(" 2024-01-31 ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if FormatDate(d) != "2024-01-31" {
			t.Errorf("round trip failed: %s", FormatDate(d))
		}
	})

	t.Run("ParseDate rejects garbage", func(t *testing.T) {
		for _, s := range []string{"", "31.01.2024", "2024-13-01", "tomorrow"} {
			if _, err := ParseDate(s); !errors.Is(err, ErrInvalidDate) {
				t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", s, err)
			}
		}
	})

	t.Run("ParseDateOr falls back to the day of fallback", func(t *testing.T) {
		now := time.Date(2024, 3, 5, 17, 45, 0, 0, time.Local)
		if got := FormatDate(ParseDateOr("not-a-date", now)); got != "2024-03-05" {
			t.Errorf("got %s, want 2024-03-05", got)
		}
		if got := ParseDateOr("not-a-date", now); got.Hour() != 0 {
			t.Errorf("fallback should be truncated to midnight, got %v", got)
		}
		if got := FormatDate(ParseDateOr("2024-01-01", now)); got != "2024-01-01" {
			t.Errorf("got %s, want 2024-01-01", got)
		}
	})
}

func TestFiles(t *testing.T) {
	t.Run("WriteJSONFile replaces content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sub", "data.json")
		if err := WriteJSONFile(path, map[string]int{"a": 1}, 0600); err != nil {
			t.Fatalf("first write failed: %v", err)
		}
		if err := WriteJSONFile(path, map[string]int{"b": 2}, 0600); err != nil {
			t.Fatalf("second write failed: %v", err)
		}

		data, err := VerifyAndReadFile(path)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if strings.Contains(string(data), `"a"`) || !strings.Contains(string(data), `"b": 2`) {
			t.Errorf("unexpected content %s", data)
		}

		entries, _ := os.ReadDir(filepath.Dir(path))
		if len(entries) != 1 {
			t.Errorf("expected temp files to be cleaned up, found %d entries", len(entries))
		}
	})

	t.Run("VerifyAndReadFile rejects directories", func(t *testing.T) {
		if _, err := VerifyAndReadFile(t.TempDir()); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := VerifyAndReadFile(""); !errors.Is(err, ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("RemoveIfExists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "x")
		os.WriteFile(path, []byte("x"), 0644)

		if removed, err := RemoveIfExists(path); err != nil || !removed {
			t.Errorf("first remove = %v, %v", removed, err)
		}
		if removed, err := RemoveIfExists(path); err != nil || removed {
			t.Errorf("second remove = %v, %v", removed, err)
		}
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	SetLogLevel(logger, "warn")

	logger.Info("hidden")
	WithLogger(logger, "component", "sync").Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "component=sync") {
		t.Errorf("unexpected log output %q", out)
	}

	SetLogLevel(logger, "bogus")
	if logger.GetLevel() != log.WarnLevel {
		t.Errorf("unknown level should leave logger unchanged, got %v", logger.GetLevel())
	}
}

func TestBrowserCommand(t *testing.T) {
	for _, goos := range []string{"darwin", "linux", "windows"} {
		cmd, err := browserCommand(goos, "https://cookidoo.de")
		if err != nil {
			t.Errorf("%s: unexpected error %v", goos, err)
			continue
		}
		if cmd.Args[len(cmd.Args)-1] != "https://cookidoo.de" {
			t.Errorf("%s: url should be the last argument, got %v", goos, cmd.Args)
		}
	}

	if _, err := browserCommand("plan9", "https://cookidoo.de"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
