// Package session holds the Cookidoo session cookies.
//
// A [Store] persists the cookie set; it is read once per operation and replaced wholesale
// after a successful login. [Session] is the read-only view handed to HTTP components, and
// [Recorder] is the cookie jar that captures every cookie seen during a login handshake.
package session

import (
	"slices"
	"strings"

	"github.com/desertthunder/tmx/internal/models"
)

// Store persists the session cookie set.
type Store interface {
	// Load returns the stored cookies in insertion order. A store with nothing saved returns an empty slice.
	Load() ([]models.Cookie, error)
	// Replace overwrites the stored set with cookies.
	Replace(cookies []models.Cookie) error
	// Clear removes every stored cookie.
	Clear() error
}

// Session is an immutable view of a loaded cookie set.
type Session struct {
	cookies []models.Cookie
}

// New builds a Session from cookies, dropping entries without a name or value.
func New(cookies []models.Cookie) Session {
	kept := make([]models.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c.Valid() {
			kept = append(kept, c)
		}
	}
	return Session{cookies: kept}
}

// Open loads the current cookie set from store.
func Open(store Store) (Session, error) {
	cookies, err := store.Load()
	if err != nil {
		return Session{}, err
	}
	return New(cookies), nil
}

// Cookies returns a copy of the cookies.
func (s Session) Cookies() []models.Cookie {
	return slices.Clone(s.cookies)
}

// Len returns the number of distinct cookie names.
func (s Session) Len() int {
	return len(s.pairs())
}

// IsAuthenticated reports whether any of the auth cookie names is present.
func (s Session) IsAuthenticated(authNames []string) bool {
	for _, c := range s.cookies {
		if slices.Contains(authNames, c.Name) {
			return true
		}
	}
	return false
}

// Value returns the value of the named cookie. A later duplicate overrides an earlier one.
func (s Session) Value(name string) (string, bool) {
	for _, p := range s.pairs() {
		if p[0] == name {
			return p[1], true
		}
	}
	return "", false
}

// HeaderValue renders the Cookie request header as "name=value; name=value" in insertion order.
func (s Session) HeaderValue() string {
	pairs := s.pairs()
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p[0] + "=" + p[1]
	}
	return strings.Join(parts, "; ")
}

// pairs projects the cookies to name/value pairs. A repeated name keeps its first
// position and takes the last value.
func (s Session) pairs() [][2]string {
	index := make(map[string]int, len(s.cookies))
	var pairs [][2]string
	for _, c := range s.cookies {
		if i, ok := index[c.Name]; ok {
			pairs[i][1] = c.Value
			continue
		}
		index[c.Name] = len(pairs)
		pairs = append(pairs, [2]string{c.Name, c.Value})
	}
	return pairs
}

// AuthenticatedFor reports whether cookies contain an auth cookie scoped to domain.
func AuthenticatedFor(cookies []models.Cookie, authNames []string, domain string) bool {
	for _, c := range cookies {
		if c.Valid() && slices.Contains(authNames, c.Name) && c.MatchesDomain(domain) {
			return true
		}
	}
	return false
}
