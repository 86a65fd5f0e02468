package session

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/tmx/internal/models"
	"golang.org/x/net/publicsuffix"
)

// Recorder is an [http.CookieJar] that also records every cookie it is given, in arrival order.
//
// Requests are served by a standard cookie jar, so cookies are only sent where the domain
// rules allow; the recording keeps the flat set that is persisted after a login.
type Recorder struct {
	mu       sync.Mutex
	jar      *cookiejar.Jar
	recorded []models.Cookie
}

// NewRecorder creates an empty Recorder using the public suffix list for domain matching.
func NewRecorder() *Recorder {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &Recorder{jar: jar}
}

// SetCookies implements [http.CookieJar].
func (r *Recorder) SetCookies(u *url.URL, cookies []*http.Cookie) {
	r.jar.SetCookies(u, cookies)

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, hc := range cookies {
		c := models.CookieFromHTTP(hc, u.Hostname())
		idx := slices.IndexFunc(r.recorded, func(e models.Cookie) bool {
			return e.Name == c.Name && e.Domain == c.Domain && e.Path == c.Path
		})

		deleted := hc.MaxAge < 0 || c.Value == "" || c.Expired(now)
		switch {
		case deleted && idx >= 0:
			r.recorded = slices.Delete(r.recorded, idx, idx+1)
		case deleted:
		case idx >= 0:
			r.recorded[idx] = c
		default:
			r.recorded = append(r.recorded, c)
		}
	}
}

// Cookies implements [http.CookieJar].
func (r *Recorder) Cookies(u *url.URL) []*http.Cookie {
	return r.jar.Cookies(u)
}

// Recorded returns a copy of every live cookie seen so far.
func (r *Recorder) Recorded() []models.Cookie {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.recorded)
}
