// Browser-style login handshake
package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/session"
	"github.com/desertthunder/tmx/internal/shared"
)

// AuthState is a step of the login handshake.
type AuthState int

const (
	StateStart AuthState = iota
	StateOAuthRedirect
	StateFormSubmit
	StateFollowRedirect
	StateAuthenticated
	StateFailed
)

// String returns a human-readable name for the state
func (s AuthState) String() string {
	switch s {
	case StateStart:
		return "Start"
	case StateOAuthRedirect:
		return "OAuthRedirect"
	case StateFormSubmit:
		return "FormSubmit"
	case StateFollowRedirect:
		return "FollowRedirect"
	case StateAuthenticated:
		return "Authenticated"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

var (
	requestIDFieldRe = regexp.MustCompile(`name="requestId"\s+value="([^"]+)"`)
	requestIDQueryRe = regexp.MustCompile(`requestId=([^&"]+)`)
	locationHrefRe   = regexp.MustCompile(`location\.href\s*=\s*["']([^"']+)["']`)
	metaRefreshRe    = regexp.MustCompile(`(?i)<meta[^>]+http-equiv="refresh"[^>]+url=([^"'>\s]+)`)
)

const (
	authenticatedBodyMarker = "is-authenticated"
	authenticatedURLMarker  = "my-week"
	loginStartPath          = "oauth2/start"
)

var (
	wrongPasswordPhrases   = []string{"falsches passwort", "incorrect"}
	accountNotFoundPhrases = []string{"nicht gefunden", "not found"}
)

// LoginResult describes a successful login.
type LoginResult struct {
	CookieCount int
	Hops        int
	Message     string
}

// AuthenticatorOpts configures an [Authenticator].
type AuthenticatorOpts struct {
	Config *shared.Config
	Store  session.Store
	Logger *log.Logger
	// Transport overrides the HTTP transport of the handshake client.
	Transport http.RoundTripper
	// OnTransition is called with every state the handshake enters.
	OnTransition func(AuthState)
}

// Authenticator drives the login handshake as a finite-state machine:
//
//	Start -> OAuthRedirect -> FormSubmit -> FollowRedirect -> Authenticated | Failed
//
// Every state may fall through to Failed. The store is written only when the handshake ends Authenticated.
type Authenticator struct {
	config       *shared.Config
	store        session.Store
	logger       *log.Logger
	transport    http.RoundTripper
	onTransition func(AuthState)
}

// NewAuthenticator creates an [Authenticator].
func NewAuthenticator(opts AuthenticatorOpts) *Authenticator {
	config := opts.Config
	if config == nil {
		config = shared.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Authenticator{
		config:       config,
		store:        opts.Store,
		logger:       shared.WithLogger(logger, "component", "auth"),
		transport:    opts.Transport,
		onTransition: opts.OnTransition,
	}
}

// handshake carries the mutable state of a single login attempt.
type handshake struct {
	state     AuthState
	recorder  *session.Recorder
	follow    *Fetcher
	noFollow  *Fetcher
	requestID string
	loginURL  string
	current   string
	body      string
	hops      int
	done      bool
	err       error
}

// Login authenticates with email and password.
//
// On success the complete set of cookies seen during the handshake replaces the stored session.
// Failures wrap [shared.ErrAuthFailed] together with the specific cause and leave the store untouched.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrMissingCredentials)
	}

	recorder := session.NewRecorder()
	client := NewHTTPClient(a.config, recorder)
	if a.transport != nil {
		client.Transport = a.transport
	}
	fetcher := NewFetcher(client, ProfileFromConfig(a.config), a.logger)

	h := &handshake{
		state:    StateStart,
		recorder: recorder,
		follow:   fetcher,
		noFollow: fetcher.WithoutRedirects(),
	}
	a.enter(h, StateStart)

	for h.state != StateAuthenticated && h.state != StateFailed {
		var next AuthState
		switch h.state {
		case StateStart:
			next = a.start(ctx, h)
		case StateOAuthRedirect:
			next = a.submit(ctx, h, email, password)
		case StateFormSubmit, StateFollowRedirect:
			next = a.followHop(ctx, h)
		}
		a.enter(h, next)
	}

	if h.state == StateFailed {
		a.logger.Warn("login failed", "error", h.err, "hops", h.hops)
		return nil, h.err
	}

	cookies := recorder.Recorded()
	if err := a.store.Replace(cookies); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	a.logger.Info("login succeeded", "cookies", len(cookies), "hops", h.hops)
	return &LoginResult{
		CookieCount: len(cookies),
		Hops:        h.hops,
		Message:     fmt.Sprintf("login successful, %d cookies saved", len(cookies)),
	}, nil
}

// enter moves the handshake to state, reporting only actual changes (and the initial Start).
func (a *Authenticator) enter(h *handshake, state AuthState) {
	changed := h.state != state || state == StateStart
	h.state = state
	if !changed {
		return
	}
	a.logger.Debug("auth state", "state", state, "url", h.current)
	if a.onTransition != nil {
		a.onTransition(state)
	}
}

func (h *handshake) fail(err error) AuthState {
	h.err = err
	return StateFailed
}

// start opens the login-initiation endpoint, following redirects to the login form, and extracts the request token.
func (a *Authenticator) start(ctx context.Context, h *handshake) AuthState {
	resp, err := h.follow.Get(ctx, a.startURL())
	if err != nil {
		return h.fail(fmt.Errorf("%w: oauth start: %v", shared.ErrAuthFailed, err))
	}
	if resp.StatusCode >= 400 {
		return h.fail(fmt.Errorf("%w: oauth start: HTTP %d", shared.ErrAuthFailed, resp.StatusCode))
	}

	h.body = resp.Text()
	h.loginURL = resp.URL
	h.current = resp.URL

	if m := requestIDFieldRe.FindStringSubmatch(h.body); m != nil {
		h.requestID = m[1]
	} else if m := requestIDQueryRe.FindStringSubmatch(h.loginURL); m != nil {
		h.requestID = m[1]
	}

	if h.requestID == "" {
		return h.fail(fmt.Errorf("%w: %w", shared.ErrAuthFailed, shared.ErrTokenNotFound))
	}
	return StateOAuthRedirect
}

// submit posts the credentials. A redirect is expected and is captured, not followed.
func (a *Authenticator) submit(ctx context.Context, h *handshake, email, password string) AuthState {
	form := url.Values{
		"requestId": {h.requestID},
		"username":  {email},
		"password":  {password},
	}
	header := http.Header{
		"Content-Type": {"application/x-www-form-urlencoded"},
		"Origin":       {a.config.Cookidoo.LoginOrigin},
		"Referer":      {h.loginURL},
	}

	loginURL := a.config.Cookidoo.LoginURL
	resp, err := h.noFollow.Do(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()), header)
	if err != nil {
		return h.fail(fmt.Errorf("%w: credential submission: %v", shared.ErrAuthFailed, err))
	}

	h.body = resp.Text()
	h.current = resp.URL

	switch {
	case resp.Redirect():
		next, err := resolve(loginURL, resp.Header.Get("Location"))
		if err != nil {
			return h.fail(fmt.Errorf("%w: credential submission: %v", shared.ErrAuthFailed, err))
		}
		h.current = next
		h.body = ""
	case resp.StatusCode >= 400:
		if cause := failureCause(h.body); cause != nil {
			return h.fail(fmt.Errorf("%w: %w", shared.ErrAuthFailed, cause))
		}
		return h.fail(fmt.Errorf("%w: credential submission: HTTP %d", shared.ErrAuthFailed, resp.StatusCode))
	}
	return StateFormSubmit
}

// followHop performs one iteration of the redirect chain. The chain ends when an authenticated page is reached,
// when no next hop can be found, or when the hop budget is spent; then the final cookie check decides.
func (a *Authenticator) followHop(ctx context.Context, h *handshake) AuthState {
	if h.done || h.hops >= a.maxRedirects() {
		return a.verify(h)
	}

	if a.onServiceHost(h.current) && !strings.Contains(h.current, loginStartPath) {
		if resp, err := h.follow.Get(ctx, h.current); err != nil {
			a.logger.Debug("hop fetch failed", "url", h.current, "error", err)
		} else {
			h.body = resp.Text()
			h.current = resp.URL
			if strings.Contains(h.body, authenticatedBodyMarker) || strings.Contains(h.current, authenticatedURLMarker) {
				h.done = true
				return StateFollowRedirect
			}
		}
	}

	next := nextHop(h.body)
	if next == "" {
		h.done = true
		return StateFollowRedirect
	}

	target, err := resolve(h.current, next)
	if err != nil {
		h.done = true
		return StateFollowRedirect
	}

	resp, err := h.follow.Get(ctx, target)
	if err != nil || resp.StatusCode >= 400 {
		h.done = true
		return StateFollowRedirect
	}

	h.body = resp.Text()
	h.current = resp.URL
	h.hops++
	return StateFollowRedirect
}

// verify inspects the recorded cookies for an auth cookie scoped to the service domain.
func (a *Authenticator) verify(h *handshake) AuthState {
	if session.AuthenticatedFor(h.recorder.Recorded(), a.config.Cookidoo.AuthCookies, a.cookieDomain()) {
		return StateAuthenticated
	}
	if cause := failureCause(h.body); cause != nil {
		return h.fail(fmt.Errorf("%w: %w", shared.ErrAuthFailed, cause))
	}
	return h.fail(fmt.Errorf("%w: %w", shared.ErrAuthFailed, shared.ErrNoAuthCookies))
}

func (a *Authenticator) startURL() string {
	c := a.config.Cookidoo
	q := url.Values{
		"market":     {c.Market},
		"ui_locales": {c.Locale},
		"rd":         {"/planning/" + c.Locale + "/my-week"},
	}
	return strings.TrimRight(c.BaseURL, "/") + "/oauth2/start?" + q.Encode()
}

func (a *Authenticator) maxRedirects() int {
	if a.config.Sync.MaxRedirects <= 0 {
		return 10
	}
	return a.config.Sync.MaxRedirects
}

// cookieDomain is the configured cookie domain, defaulting to the base URL host.
func (a *Authenticator) cookieDomain() string {
	if a.config.Cookidoo.CookieDomain != "" {
		return a.config.Cookidoo.CookieDomain
	}
	u, err := url.Parse(a.config.Cookidoo.BaseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func (a *Authenticator) onServiceHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	return models.Cookie{Domain: u.Hostname()}.MatchesDomain(a.cookieDomain())
}

// nextHop finds a script location assignment or a meta refresh in body.
func nextHop(body string) string {
	if m := locationHrefRe.FindStringSubmatch(body); m != nil {
		return html.UnescapeString(m[1])
	}
	if m := metaRefreshRe.FindStringSubmatch(body); m != nil {
		return html.UnescapeString(m[1])
	}
	return ""
}

// failureCause maps known failure phrases in a login page to a sentinel error.
func failureCause(body string) error {
	lower := strings.ToLower(body)
	for _, p := range wrongPasswordPhrases {
		if strings.Contains(lower, p) {
			return shared.ErrWrongPassword
		}
	}
	for _, p := range accountNotFoundPhrases {
		if strings.Contains(lower, p) {
			return shared.ErrAccountNotFound
		}
	}
	return nil
}

func resolve(base, ref string) (string, error) {
	if ref == "" {
		return "", errors.New("empty redirect location")
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
