package auth

import "net/http"

const (
	// SessionCookieName carries the session token for browser clients.
	SessionCookieName = "fittrack_session"
	// SessionTokenHeader is the fallback transport for non-browser clients.
	SessionTokenHeader = "X-FITTRACK-TOKEN"
)

// TokenFromRequest reads the session token from the session cookie,
// falling back to the token header. Empty string means no session.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.Header.Get(SessionTokenHeader)
}

// SetSessionCookie binds the token to the client for the session TTL.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(DefaultTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie from the client.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
