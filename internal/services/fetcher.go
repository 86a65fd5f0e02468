// HTTP fetching with a fixed browser header profile
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/tmx/internal/session"
	"github.com/desertthunder/tmx/internal/shared"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

const (
	acceptHTML     = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptJSON     = "application/json"
	acceptEncoding = "gzip, deflate, br, zstd"
)

// HeaderProfile is the browser signature sent with every request.
type HeaderProfile struct {
	UserAgent      string
	Accept         string
	AcceptLanguage string
}

// ProfileFromConfig builds the header profile from the [cookidoo] section.
func ProfileFromConfig(config *shared.Config) HeaderProfile {
	return HeaderProfile{
		UserAgent:      config.Cookidoo.UserAgent,
		Accept:         acceptHTML,
		AcceptLanguage: config.Cookidoo.AcceptLanguage,
	}
}

// NewHTTPClient creates an [http.Client] with the configured per-request timeout and an optional cookie jar.
func NewHTTPClient(config *shared.Config, jar http.CookieJar) *http.Client {
	return &http.Client{Timeout: config.Timeout(), Jar: jar}
}

// Response is a fully read and decoded HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        string // final URL after any followed redirects
}

// Text returns the body as a string, replacing invalid UTF-8.
func (r *Response) Text() string {
	return strings.ToValidUTF8(string(r.Body), "�")
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Redirect reports a 3xx status.
func (r *Response) Redirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: invalid JSON response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// Fetcher issues single HTTP requests with a fixed header profile and optional session cookies.
//
// The zero redirect policy of the underlying client applies to generic fetches; see [Fetcher.WithoutRedirects].
type Fetcher struct {
	client  *http.Client
	profile HeaderProfile
	cookie  string
	logger  *log.Logger
}

// NewFetcher creates a [Fetcher]. A nil client falls back to a client with a 30 second timeout.
func NewFetcher(client *http.Client, profile HeaderProfile, logger *log.Logger) *Fetcher {
	if client == nil {
		client = NewHTTPClient(shared.DefaultConfig(), nil)
	}
	if profile.Accept == "" {
		profile.Accept = acceptHTML
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Fetcher{client: client, profile: profile, logger: logger}
}

// WithSession returns a copy that sends the session's cookies in the Cookie header.
func (f *Fetcher) WithSession(s session.Session) *Fetcher {
	c := *f
	c.cookie = s.HeaderValue()
	return &c
}

// WithoutRedirects returns a copy whose client hands 3xx responses back instead of following them.
// The copy shares the transport and cookie jar.
func (f *Fetcher) WithoutRedirects() *Fetcher {
	c := *f
	client := *f.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	c.client = &client
	return &c
}

// Get fetches rawURL as a browser page load.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Response, error) {
	return f.Do(ctx, http.MethodGet, rawURL, nil, nil)
}

// GetJSON fetches rawURL asking for JSON.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string) (*Response, error) {
	return f.Do(ctx, http.MethodGet, rawURL, nil, http.Header{"Accept": {acceptJSON}})
}

// SendJSON marshals payload (when non-nil) and sends it with JSON content headers.
func (f *Fetcher) SendJSON(ctx context.Context, method, rawURL string, payload any, header http.Header) (*Response, error) {
	h := http.Header{"Accept": {acceptJSON}}
	for k, v := range header {
		h[k] = v
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
		h.Set("Content-Type", "application/json")
	}
	return f.Do(ctx, method, rawURL, body, h)
}

// Do performs one request. Headers in header override the profile. The response body is read
// completely and decoded according to Content-Encoding.
func (f *Fetcher) Do(ctx context.Context, method, rawURL string, body io.Reader, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.profile.UserAgent)
	req.Header.Set("Accept", f.profile.Accept)
	if f.profile.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", f.profile.AcceptLanguage)
	}
	req.Header.Set("Accept-Encoding", acceptEncoding)
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	decoded, err := decodeBody(raw, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", resp.Header.Get("Content-Encoding"), err)
	}

	f.logger.Debug("fetched", "method", method, "url", rawURL, "status", resp.StatusCode, "bytes", len(decoded))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       decoded,
		URL:        resp.Request.URL.String(),
	}, nil
}

// decodeBody undoes a Content-Encoding. Unknown encodings are returned as-is.
func decodeBody(data []byte, encoding string) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case "br":
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	case "zstd":
		d, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer d.Close()
		return io.ReadAll(d)
	case "deflate":
		// Servers send either zlib-wrapped or raw deflate streams.
		if r, err := zlib.NewReader(bytes.NewReader(data)); err == nil {
			defer r.Close()
			return io.ReadAll(r)
		}
		r := flate.NewReader(bytes.NewReader(data))
		defer r.Close()
		return io.ReadAll(r)
	default:
		return data, nil
	}
}
