package service

import (
	"actuarialhub/internal/appctx"
	"actuarialhub/internal/models"
	"actuarialhub/internal/quest"
)

// SignInResult is the outcome of a successful sign in
type SignInResult struct {
	AppContext *appctx.AppContext
	Session    *models.Session
	Token      string
}

// AppContextService builds and tears down the signed-in application context
type AppContextService struct {
	auth     *AuthService
	profiles *ProfileService
	tracker  *quest.Tracker
}

// NewAppContextService creates a new app context service
func NewAppContextService(auth *AuthService, profiles *ProfileService, tracker *quest.Tracker) *AppContextService {
	return &AppContextService{auth: auth, profiles: profiles, tracker: tracker}
}

// SignIn authenticates with a password and bootstraps the profile
func (s *AppContextService) SignIn(email, password string) (*SignInResult, error) {
	session, user, err := s.auth.Login(email, password)
	if err != nil {
		return nil, err
	}
	return s.establish(session, user)
}

// SignInOAuth authenticates through an identity provider
func (s *AppContextService) SignInOAuth(provider, subject, email, name string) (*SignInResult, error) {
	session, user, err := s.auth.OAuthLogin(provider, subject, email, name)
	if err != nil {
		return nil, err
	}
	return s.establish(session, user)
}

func (s *AppContextService) establish(session *models.Session, user *models.User) (*SignInResult, error) {
	profile, err := s.profiles.EnsureProfile(user)
	if err != nil {
		_ = s.auth.Logout(session.ID)
		return nil, err
	}

	token, err := s.auth.IssueToken(session)
	if err != nil {
		_ = s.auth.Logout(session.ID)
		return nil, err
	}

	return &SignInResult{
		AppContext: &appctx.AppContext{User: user, Profile: profile, SessionID: session.ID},
		Session:    session,
		Token:      token,
	}, nil
}

// Resolve rebuilds the context for a session cookie
func (s *AppContextService) Resolve(sessionID string) (*appctx.AppContext, error) {
	user, err := s.auth.ValidateSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.build(user, sessionID, false)
}

// ResolveToken rebuilds the context for a bearer token
func (s *AppContextService) ResolveToken(token string) (*appctx.AppContext, error) {
	user, sessionID, err := s.auth.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return s.build(user, sessionID, true)
}

func (s *AppContextService) build(user *models.User, sessionID string, bearer bool) (*appctx.AppContext, error) {
	profile, err := s.profiles.EnsureProfile(user)
	if err != nil {
		return nil, err
	}
	return &appctx.AppContext{User: user, Profile: profile, SessionID: sessionID, Bearer: bearer}, nil
}

// SignOut ends the session and discards the quest run it started
func (s *AppContextService) SignOut(ac *appctx.AppContext) error {
	s.tracker.Clear(ac.UserID(), ac.SessionID)
	return s.auth.Logout(ac.SessionID)
}
