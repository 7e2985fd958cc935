package security

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionCookieName is the cookie carrying the session ID
const SessionCookieName = "session_id"

// GenerateSessionID returns a random UUIDv4 session ID
func GenerateSessionID() string {
	return uuid.NewString()
}

// IsSecureRequest reports whether the client reached us over HTTPS, either
// directly or through a TLS terminating proxy
func IsSecureRequest(r *http.Request) bool {
	return r.TLS != nil ||
		strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") ||
		r.URL.Scheme == "https"
}

// authCookie is HttpOnly and Lax, and Secure whenever the request was
func authCookie(r *http.Request, name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateSessionCookie hands the session to the browser until expires
func CreateSessionCookie(r *http.Request, sessionID string, expires time.Time) *http.Cookie {
	c := authCookie(r, SessionCookieName, sessionID)
	c.Expires = expires
	return c
}

// CreateDeleteCookie tells the browser to drop the named cookie
func CreateDeleteCookie(r *http.Request, name string) *http.Cookie {
	c := authCookie(r, name, "")
	c.MaxAge = -1
	return c
}

// BearerToken extracts the token of an "Authorization: Bearer" header
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
