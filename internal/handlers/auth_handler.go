package handlers

import (
	"log"
	"net/http"

	"actuarialhub/internal/appctx"
	"actuarialhub/internal/models"
	"actuarialhub/internal/security"
	"actuarialhub/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService       *service.AuthService
	appContextService *service.AppContextService
	csrf              *security.CSRFGuard
	// exposeResetToken returns reset tokens in the response when email is in debug mode
	exposeResetToken bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, appContextService *service.AppContextService, csrf *security.CSRFGuard, exposeResetToken bool) *AuthHandler {
	return &AuthHandler{
		authService:       authService,
		appContextService: appContextService,
		csrf:              csrf,
		exposeResetToken:  exposeResetToken,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User      *models.User    `json:"user"`
	Profile   *models.Profile `json:"profile"`
	Token     string          `json:"token,omitempty"`
	CSRFToken string          `json:"csrf_token,omitempty"`
}

// Register creates an account and signs it in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name); err != nil {
		respondWithServiceError(w, err, "Error registering user")
		return
	}

	// Auto-login after registration
	result, err := h.appContextService.SignIn(req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err, "Error signing in new user")
		return
	}

	h.writeSession(w, r, http.StatusCreated, result)
}

// Login signs in with email and password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.appContextService.SignIn(req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err, "Error signing in")
		return
	}

	h.writeSession(w, r, http.StatusOK, result)
}

// writeSession sets the session cookie and returns the signed-in state
func (h *AuthHandler) writeSession(w http.ResponseWriter, r *http.Request, status int, result *service.SignInResult) {
	http.SetCookie(w, security.CreateSessionCookie(r, result.Session.ID, result.Session.ExpiresAt))

	csrfToken, err := h.csrf.TokenFor(result.Session.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error generating CSRF token", err)
		return
	}

	respondJSON(w, status, sessionResponse{
		User:      result.AppContext.User,
		Profile:   result.AppContext.Profile,
		Token:     result.Token,
		CSRFToken: csrfToken,
	})
}

// Logout ends the current session. It must run inside RequireAuth.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac := appctx.From(r.Context())
	if err := h.appContextService.SignOut(ac); err != nil {
		log.Printf("Error deleting session: %v", err)
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user, their profile and a fresh CSRF token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac := appctx.From(r.Context())

	resp := sessionResponse{User: ac.User, Profile: ac.Profile}
	if !ac.Bearer {
		token, err := h.csrf.TokenFor(ac.SessionID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error generating CSRF token", err)
			return
		}
		resp.CSRFToken = token
	}
	respondJSON(w, http.StatusOK, resp)
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type passwordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// RequestPasswordReset starts a reset. The response is the same whether or
// not the address has an account.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.authService.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		respondWithServiceError(w, err, "Error requesting password reset")
		return
	}

	resp := map[string]string{"message": "If that address has an account, a reset link is on its way."}
	if h.exposeResetToken && token != "" {
		resp["token"] = token
	}
	respondJSON(w, http.StatusAccepted, resp)
}

// ConfirmPasswordReset sets a new password with a reset token
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(req.Token, req.Password); err != nil {
		respondWithServiceError(w, err, "Error resetting password")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Password updated. Please sign in again."})
}
