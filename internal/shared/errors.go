package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not logged in")
	ErrTokenNotFound    = fmt.Errorf("request token not found")
	ErrWrongPassword    = fmt.Errorf("wrong password")
	ErrAccountNotFound  = fmt.Errorf("account not found")
	ErrNoAuthCookies    = fmt.Errorf("no auth cookies obtained")
	ErrSessionExpired   = fmt.Errorf("session expired or no data")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrSnapshotNotFound   = fmt.Errorf("weekplan snapshot not found")
	ErrSearchUnavailable  = fmt.Errorf("search token unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidDate     = fmt.Errorf("invalid date (expected YYYY-MM-DD)")
)
