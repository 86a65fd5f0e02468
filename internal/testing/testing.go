// package testing contains shared testing utilities
package testing

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/session"
	"github.com/desertthunder/tmx/internal/shared"
)

// AssetHost is the image host used by [Config] and accepted by the extractor.
const AssetHost = "https://assets.tmecosys.test"

// Config returns the default configuration pointed at a fake server.
//
// The cookie domain is cleared so the host of baseURL scopes the auth cookies, and the
// search endpoint points at the same server.
func Config(baseURL string) *shared.Config {
	config := shared.DefaultConfig()
	config.Cookidoo.BaseURL = baseURL
	config.Cookidoo.LoginURL = baseURL + "/login-srv/login"
	config.Cookidoo.LoginOrigin = baseURL
	config.Cookidoo.AssetHost = AssetHost
	config.Cookidoo.CookieDomain = ""
	config.Search.Endpoint = baseURL
	config.Sync.RequestsPerSecond = 0
	config.Storage.Dir = ""
	return config
}

// AuthedStore returns an in-memory cookie store holding one auth cookie.
func AuthedStore() *session.MemoryStore {
	return session.NewMemoryStore(
		models.Cookie{Name: "_oauth2_proxy", Value: "proxy-token", Domain: "127.0.0.1", Path: "/", Expires: models.NoExpiry, Session: true},
		models.Cookie{Name: "v-authenticated", Value: "true", Domain: "127.0.0.1", Path: "/", Expires: models.NoExpiry, Session: true},
	)
}

// Clock returns a time source fixed at noon of date (YYYY-MM-DD, local time).
func Clock(date string) func() time.Time {
	t, err := time.ParseInLocation(shared.DateLayout, date, time.Local)
	if err != nil {
		panic(err)
	}
	t = t.Add(12 * time.Hour)
	return func() time.Time { return t }
}

// Day describes one plan-week-day block of a fake week page.
type Day struct {
	Date    string
	Name    string
	Number  string
	Today   bool
	Recipes []Recipe
}

// Recipe describes one recipe tile of a fake week page.
type Recipe struct {
	ID    string
	Title string
	Image string
}

// WeekPage renders a week page in the markup the calendar endpoint serves.
func WeekPage(days ...Day) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>Mein Wochenplan</title></head><body><main class=\"my-week\">")
	for _, d := range days {
		class := "my-week__day"
		if d.Today {
			class += " my-week__today"
		}
		fmt.Fprintf(&b, `<plan-week-day date="%s" class="%s">`, d.Date, class)
		fmt.Fprintf(&b, `<span class="my-week__day-short">%s</span><span class="my-week__day-number">%s</span>`, d.Name, d.Number)
		for _, r := range d.Recipes {
			fmt.Fprintf(&b, `<core-tile data-recipe-id="%s">`, r.ID)
			if r.Image != "" {
				fmt.Fprintf(&b, `<img src="%s" alt="">`, r.Image)
			}
			if r.Title != "" {
				fmt.Fprintf(&b, `<span class="core-tile__description-text">%s</span>`, r.Title)
			}
			b.WriteString("</core-tile>")
		}
		b.WriteString("</plan-week-day>")
	}
	b.WriteString("</main></body></html>")
	return b.String()
}

// Week returns seven consecutive days starting at start, each planned with one recipe
// whose id is "r-" followed by the date.
func Week(start string) []Day {
	t, err := time.Parse(shared.DateLayout, start)
	if err != nil {
		panic(err)
	}
	days := make([]Day, 0, 7)
	for i := range 7 {
		d := t.AddDate(0, 0, i)
		date := d.Format(shared.DateLayout)
		days = append(days, Day{
			Date:    date,
			Name:    d.Format("Mon"),
			Number:  fmt.Sprint(d.Day()),
			Recipes: []Recipe{{ID: "r-" + date, Title: "Recipe " + date}},
		})
	}
	return days
}

// LoginPage is the body the service renders for an expired session.
const LoginPage = `<!DOCTYPE html><html><head><title>Login</title></head><body><a href="/oauth2/start">Anmelden</a></body></html>`

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper returns a canned response or error and counts requests.
type MockRoundTripper struct {
	response *http.Response
	err      error
	Calls    int
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.Calls++
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}
