package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantURL     string
		wantHeaders map[string]string
		wantCookie  string
		wantErr     bool
	}{
		{
			name:        "single header with single quotes",
			curlCmd:     `curl 'https://cookidoo.de/planning/de-DE/my-week' -H 'User-Agent: Mozilla/5.0'`,
			wantURL:     "https://cookidoo.de/planning/de-DE/my-week",
			wantHeaders: map[string]string{"User-Agent": "Mozilla/5.0"},
		},
		{
			name:        "single header with double quotes",
			curlCmd:     `curl "https://cookidoo.de/" -H "Accept: text/html"`,
			wantURL:     "https://cookidoo.de/",
			wantHeaders: map[string]string{"Accept": "text/html"},
		},
		{
			name:        "cookie in -b flag",
			curlCmd:     `curl 'https://cookidoo.de/' -b 'v-authenticated=1; _oauth2_proxy=abc'`,
			wantURL:     "https://cookidoo.de/",
			wantHeaders: map[string]string{},
			wantCookie:  "v-authenticated=1; _oauth2_proxy=abc",
		},
		{
			name:        "cookie header is excluded from regular headers",
			curlCmd:     `curl 'https://cookidoo.de/' -H 'Cookie: session=abc123' -H 'Accept-Language: de-DE'`,
			wantURL:     "https://cookidoo.de/",
			wantHeaders: map[string]string{"Accept-Language": "de-DE"},
			wantCookie:  "session=abc123",
		},
		{
			name:        "-b cookie takes precedence over -H cookie",
			curlCmd:     `curl 'https://cookidoo.de/' -H 'Cookie: old=value' -b 'new=value'`,
			wantURL:     "https://cookidoo.de/",
			wantHeaders: map[string]string{},
			wantCookie:  "new=value",
		},
		{
			name: "multiline command with backslashes",
			curlCmd: `curl 'https://cookidoo.de/planning/de-DE/my-week' \
  -H 'accept: text/html' \
  -H 'accept-language: de-DE,de;q=0.9' \
  -H 'cookie: v-authenticated=1; _oauth2_proxy=xyz' \
  --compressed`,
			wantURL: "https://cookidoo.de/planning/de-DE/my-week",
			wantHeaders: map[string]string{
				"accept":          "text/html",
				"accept-language": "de-DE,de;q=0.9",
			},
			wantCookie: "v-authenticated=1; _oauth2_proxy=xyz",
		},
		{name: "no headers or cookies", curlCmd: `curl https://cookidoo.de/`, wantErr: true},
		{name: "empty command", curlCmd: "", wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCurlCommand(tc.curlCmd)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseCurlCommand() error = %v, wantErr %v", err, tc.wantErr)
			}

			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}

			if result.URL != tc.wantURL {
				t.Errorf("URL = %q, want %q", result.URL, tc.wantURL)
			}

			if len(result.Headers) != len(tc.wantHeaders) {
				t.Errorf("headers count = %v, want %v", len(result.Headers), len(tc.wantHeaders))
			}

			for key, want := range tc.wantHeaders {
				if got := result.Headers[key]; got != want {
					t.Errorf("header[%s] = %v, want %v", key, got, want)
				}
			}

			if result.Cookie != tc.wantCookie {
				t.Errorf("cookie = %v, want %v", result.Cookie, tc.wantCookie)
			}
		})
	}
}

func TestCurlRequest(t *testing.T) {
	t.Run("Cookies keeps order and skips malformed pairs", func(t *testing.T) {
		req := &CurlRequest{Cookie: "a=1; broken; b=2;  c=3=4 ; =x"}
		cookies := req.Cookies()
		if len(cookies) != 3 {
			t.Fatalf("expected 3 cookies, got %d", len(cookies))
		}

		want := []struct{ name, value string }{{"a", "1"}, {"b", "2"}, {"c", "3=4"}}
		for i, w := range want {
			if cookies[i].Name != w.name || cookies[i].Value != w.value {
				t.Errorf("cookie %d = %s=%s, want %s=%s", i, cookies[i].Name, cookies[i].Value, w.name, w.value)
			}
		}
	})

	t.Run("Host", func(t *testing.T) {
		req := &CurlRequest{URL: "https://cookidoo.de:443/planning"}
		if got := req.Host(); got != "cookidoo.de" {
			t.Errorf("Host() = %q, want cookidoo.de", got)
		}

		if got := (&CurlRequest{}).Host(); got != "" {
			t.Errorf("Host() for empty URL = %q, want empty", got)
		}
	})
}

func TestParseCurlFile(t *testing.T) {
	t.Run("successful file parse", func(t *testing.T) {
		curlFile := filepath.Join(t.TempDir(), "curl.sh")
		curlCmd := `curl 'https://cookidoo.de/' -H 'Accept: text/html' -b 'v-authenticated=1'`
		if err := os.WriteFile(curlFile, []byte(curlCmd), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		result, err := ParseCurlFile(curlFile)
		if err != nil {
			t.Fatalf("ParseCurlFile() error = %v", err)
		}

		if result.Headers["Accept"] != "text/html" {
			t.Errorf("Accept = %v, want text/html", result.Headers["Accept"])
		}
		if len(result.Cookies()) != 1 {
			t.Errorf("expected 1 cookie, got %d", len(result.Cookies()))
		}
	})

	t.Run("file does not exist", func(t *testing.T) {
		if _, err := ParseCurlFile("/nonexistent/file.sh"); err == nil {
			t.Error("expected error for nonexistent file")
		}
	})
}
