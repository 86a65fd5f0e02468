// Package services implements the HTTP side of tmx: the [Fetcher] with its fixed browser header profile,
// the login [Authenticator], the weekplan markup [Extractor] and the [CookidooService] JSON endpoints.
//
// # Fetching
//
// Every request carries the same User-Agent, Accept-Language and Accept-Encoding headers. Response bodies
// are read completely and decoded from gzip, deflate, brotli or zstd before they are handed back, so callers
// only ever see plain text.
//
// # Login Handshake
//
// [Authenticator.Login] walks a small state machine:
//
//	Start -> OAuthRedirect -> FormSubmit -> FollowRedirect -> Authenticated | Failed
//
// Cookies are collected by a [session.Recorder] jar during the handshake. Only when an auth cookie scoped
// to the service domain was seen is the recorded set written to the [session.Store], replacing what was
// there before. A failed login never touches the store.
//
// # Markup Extraction
//
// [Extractor.Extract] reads plan-week-day blocks and their core-tile recipe tiles with goquery.
// It never fails; broken markup yields fewer records.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no auth cookie stored, no request was sent
//   - [shared.ErrSessionExpired] : the service answered 401 or 403
//   - [shared.ErrAPIRequest] : transport failure, unexpected status or malformed JSON
//   - [shared.ErrAuthFailed] : login failed; wraps ErrTokenNotFound, ErrWrongPassword,
//     ErrAccountNotFound or ErrNoAuthCookies
//   - [shared.ErrSearchUnavailable] : no usable search token
package services
