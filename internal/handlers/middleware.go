package handlers

import (
	"log"
	"net/http"
	"time"

	"actuarialhub/internal/appctx"
	"actuarialhub/internal/security"
	"actuarialhub/internal/service"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	appContext *service.AppContextService
	csrf       *security.CSRFGuard
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(appContext *service.AppContextService, csrf *security.CSRFGuard) *Middleware {
	return &Middleware{
		appContext: appContext,
		csrf:       csrf,
	}
}

// RequireAuth resolves the session cookie or bearer token into an AppContext
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			ac  *appctx.AppContext
			err error
		)

		if token := security.BearerToken(r); token != "" {
			ac, err = m.appContext.ResolveToken(token)
		} else {
			cookie, cookieErr := r.Cookie(security.SessionCookieName)
			if cookieErr != nil {
				respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
				return
			}
			ac, err = m.appContext.Resolve(cookie.Value)
			if err != nil {
				// Clear invalid cookie
				http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
			}
		}

		if err != nil {
			respondWithServiceError(w, err, "Error resolving session")
			return
		}

		next(w, r.WithContext(appctx.With(r.Context(), ac)))
	}
}

// RequireStaff allows admins and instructors. It must run inside RequireAuth.
func (m *Middleware) RequireStaff(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !appctx.From(r.Context()).IsStaff() {
			respondWithError(w, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}
		next(w, r)
	}
}

// RequireAdmin allows admins only. It must run inside RequireAuth.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !appctx.From(r.Context()).IsAdmin() {
			respondWithError(w, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}
		next(w, r)
	}
}

// CSRFProtect checks the CSRF header on unsafe methods of cookie
// authenticated requests. Bearer requests are exempt.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next(w, r)
			return
		}

		ac := appctx.From(r.Context())
		if ac == nil || ac.Bearer {
			next(w, r)
			return
		}

		if err := m.csrf.Verify(r, ac.SessionID); err != nil {
			log.Printf("CSRF validation failed for %s %s: %v", r.Method, r.URL.Path, err)
			respondWithError(w, http.StatusForbidden, ErrInvalidCSRFToken, "", nil)
			return
		}
		next(w, r)
	}
}

// RateLimit rejects clients that exceed limiter
func RateLimit(limiter *security.RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(security.GetClientIP(r)) {
			log.Printf("Rate limit exceeded for %s on %s", security.GetClientIP(r), r.URL.Path)
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
