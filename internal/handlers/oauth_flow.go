package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"

	"actuarialhub/internal/security"
	"actuarialhub/internal/service"
)

const (
	oauthSessionName = "oauth_flow"
	oauthFlowTTL     = 10 * time.Minute
)

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
}

func (p OAuthProvider) configured() bool {
	return p.Config != nil && p.Config.ClientID != "" && p.Config.ClientSecret != ""
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

// OAuthHandler runs the authorization code flow against external identity providers
type OAuthHandler struct {
	providers         map[string]OAuthProvider
	appContextService *service.AppContextService
	store             sessions.Store
	redirectBaseURL   string
	appBaseURL        string
}

// NewOAuthHandler creates a new OAuth handler. Flow state is kept in a
// signed cookie keyed by secret.
func NewOAuthHandler(providers map[string]OAuthProvider, appContextService *service.AppContextService, secret, redirectBaseURL, appBaseURL string) *OAuthHandler {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/auth",
		MaxAge:   int(oauthFlowTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &OAuthHandler{
		providers:         providers,
		appContextService: appContextService,
		store:             store,
		redirectBaseURL:   redirectBaseURL,
		appBaseURL:        appBaseURL,
	}
}

type providerView struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Providers lists the identity providers that are configured
func (h *OAuthHandler) Providers(w http.ResponseWriter, r *http.Request) {
	views := []providerView{}
	for key, provider := range h.providers {
		if !provider.configured() {
			continue
		}
		views = append(views, providerView{
			Name:  key,
			Label: provider.Label,
			URL:   fmt.Sprintf("/auth/%s/start", key),
		})
	}
	respondJSON(w, http.StatusOK, views)
}

// StartOAuth initiates the OAuth flow for a provider
func (h *OAuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.providers[providerKey]
	if !ok || !provider.configured() {
		respondWithError(w, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return
	}

	state := security.GenerateSessionID()

	flow, _ := h.store.Get(r, oauthSessionName)
	flow.Options.Secure = security.IsSecureRequest(r)
	flow.Values["state"] = state
	flow.Values["provider"] = providerKey
	if err := flow.Save(r, w); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error saving OAuth state", err)
		return
	}

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback handles the OAuth provider callback
func (h *OAuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.providers[providerKey]
	if !ok || !provider.configured() {
		respondWithError(w, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Missing authorization code", "", nil)
		return
	}

	flow, err := h.store.Get(r, oauthSessionName)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}
	savedState, _ := flow.Values["state"].(string)
	savedProvider, _ := flow.Values["provider"].(string)
	if savedState == "" || savedState != state {
		respondWithError(w, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}
	if savedProvider != providerKey {
		respondWithError(w, http.StatusBadRequest, "OAuth provider mismatch", "", nil)
		return
	}

	// Clear the flow cookie so a state is only used once
	flow.Options.MaxAge = -1
	if err := flow.Save(r, w); err != nil {
		log.Printf("Error clearing OAuth state: %v", err)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	token, err := config.Exchange(ctx, code)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to exchange OAuth code", "OAuth exchange failed", err)
		return
	}

	userInfo, err := fetchUserInfo(ctx, provider, token)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	result, err := h.appContextService.SignInOAuth(providerKey, userInfo.Subject, userInfo.Email, userInfo.Name)
	if err != nil {
		respondWithServiceError(w, err, "Error signing in with OAuth")
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, result.Session.ID, result.Session.ExpiresAt))
	http.Redirect(w, r, strings.TrimRight(h.appBaseURL, "/")+"/", http.StatusSeeOther)
}

// fetchUserInfo reads the OpenID userinfo document of the token's owner
func fetchUserInfo(ctx context.Context, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(provider.UserInfoURL)
	if err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch %s user info", provider.Label)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch %s user info", provider.Label)
	}

	var payload struct {
		ID    string `json:"id"`
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to parse %s user info", provider.Label)
	}

	subject := payload.ID
	if subject == "" {
		subject = payload.Sub
	}
	if subject == "" || payload.Email == "" {
		return oauthUserInfo{}, errors.New("identity provider did not return an email address")
	}

	return oauthUserInfo{Subject: subject, Email: payload.Email, Name: payload.Name}, nil
}

func (h *OAuthHandler) oauthRedirectURL(r *http.Request, providerKey string) string {
	baseURL := strings.TrimSpace(h.redirectBaseURL)
	if baseURL == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/auth/%s/callback", strings.TrimRight(baseURL, "/"), providerKey)
}
