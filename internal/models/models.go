// package models defines the data model for the Cookidoo weekplan client
package models

import (
	"net/http"
	"strings"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// NoExpiry is the expires value stored for cookies without an expiry.
const NoExpiry int64 = -1

// Cookie is one persisted session cookie.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Expires  int64  `json:"expires"` // epoch seconds or [NoExpiry]
	HTTPOnly bool   `json:"httpOnly"`
	Secure   bool   `json:"secure"`
	Session  bool   `json:"session"`
}

// CookieFromHTTP converts a cookie received from a server. An empty domain is replaced with host.
func CookieFromHTTP(c *http.Cookie, host string) Cookie {
	cookie := Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  NoExpiry,
		HTTPOnly: c.HttpOnly,
		Secure:   c.Secure,
		Session:  true,
	}
	if cookie.Domain == "" {
		cookie.Domain = host
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	switch {
	case c.MaxAge > 0:
		cookie.Expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second).Unix()
		cookie.Session = false
	case !c.Expires.IsZero():
		cookie.Expires = c.Expires.Unix()
		cookie.Session = false
	}
	return cookie
}

// HTTP converts the cookie into an [http.Cookie].
func (c Cookie) HTTP() *http.Cookie {
	hc := &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
	}
	if !c.Session && c.Expires > 0 {
		hc.Expires = time.Unix(c.Expires, 0)
	}
	return hc
}

// Valid reports whether the cookie has both a name and a value.
func (c Cookie) Valid() bool {
	return c.Name != "" && c.Value != ""
}

// Expired reports whether the cookie has an expiry that lies before now.
func (c Cookie) Expired(now time.Time) bool {
	return !c.Session && c.Expires > 0 && c.Expires < now.Unix()
}

// MatchesDomain reports whether the cookie is scoped to domain or one of its subdomains.
func (c Cookie) MatchesDomain(domain string) bool {
	cd := strings.ToLower(strings.TrimPrefix(c.Domain, "."))
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	if cd == "" || domain == "" {
		return false
	}
	return cd == domain || strings.HasSuffix(cd, "."+domain)
}
