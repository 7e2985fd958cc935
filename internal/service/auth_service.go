package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"actuarialhub/internal/database"
	"actuarialhub/internal/models"
	"actuarialhub/internal/repository"
	"actuarialhub/internal/security"
	"actuarialhub/internal/validation"
)

const resetTokenTTL = time.Hour

// AuthService handles accounts, sessions and password resets
type AuthService struct {
	db              *database.DB
	userRepo        *repository.UserRepository
	settingsRepo    *repository.SettingsRepository
	tokens          *security.TokenIssuer
	mailer          Mailer
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service. mailer may be nil.
func NewAuthService(db *database.DB, tokens *security.TokenIssuer, mailer Mailer, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		db:              db,
		userRepo:        repository.NewUserRepository(db),
		settingsRepo:    repository.NewSettingsRepository(db),
		tokens:          tokens,
		mailer:          mailer,
		sessionDuration: sessionDuration,
	}
}

// Register creates a new account. The first account becomes admin.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	if err := s.checkRegistrationOpen(); err != nil {
		return nil, err
	}

	existingUser, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(email, passwordHash, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.mailer != nil && s.mailer.IsEnabled() {
		if err := s.mailer.SendWelcomeEmail(ctx, user.Email, user.Name); err != nil {
			log.Printf("Warning: failed to send welcome email to %s: %v", user.Email, err)
		}
	}

	return user, nil
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(email, password string) (*models.Session, *models.User, error) {
	user, err := s.userRepo.GetUserByEmail(normalizeEmail(email))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.createSession(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *AuthService) createSession(userID int64) (*models.Session, error) {
	expiresAt := time.Now().Add(s.sessionDuration)
	session, err := s.userRepo.CreateSession(security.GenerateSessionID(), userID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// IssueToken signs a bearer token for session
func (s *AuthService) IssueToken(session *models.Session) (string, error) {
	return s.tokens.Issue(session.UserID, session.ID, session.ExpiresAt)
}

// ValidateSession checks if a session is valid and returns the associated user
func (s *AuthService) ValidateSession(sessionID string) (*models.User, error) {
	session, err := s.userRepo.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.userRepo.DeleteSession(sessionID)
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// ValidateToken checks a bearer token. The token is honoured only while
// the session it was issued for still exists.
func (s *AuthService) ValidateToken(token string) (*models.User, string, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, "", ErrSessionNotFound
	}

	user, err := s.ValidateSession(claims.SessionID)
	if err != nil {
		return nil, "", err
	}
	if user.ID != claims.UserID {
		return nil, "", ErrSessionNotFound
	}
	return user, claims.SessionID, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(sessionID string) error {
	if err := s.userRepo.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions and reset tokens
func (s *AuthService) CleanupExpiredSessions() error {
	if err := s.userRepo.DeleteExpiredSessions(); err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	if err := s.userRepo.DeleteExpiredPasswordResetTokens(); err != nil {
		return fmt.Errorf("failed to cleanup reset tokens: %w", err)
	}
	return nil
}

// OAuthLogin authenticates or creates a user using an OAuth provider
func (s *AuthService) OAuthLogin(provider, subject, email, name string) (*models.Session, *models.User, error) {
	if provider == "" || subject == "" {
		return nil, nil, errors.New("missing oauth provider information")
	}
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetUserByOAuth(provider, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil {
		existingUser, err := s.userRepo.GetUserByEmail(email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
		}

		if existingUser != nil {
			if existingUser.OAuthProvider != "" && existingUser.OAuthProvider != provider {
				return nil, nil, ErrEmailTaken
			}
			if err := s.userRepo.LinkOAuthProvider(existingUser.ID, provider, subject); err != nil {
				return nil, nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
			user = existingUser
		} else {
			if err := s.checkRegistrationOpen(); err != nil {
				return nil, nil, err
			}
			if strings.TrimSpace(name) == "" {
				name = strings.Split(email, "@")[0]
			}
			// OAuth accounts get an unguessable password so only the provider can sign in
			randomPasswordHash, err := security.HashPassword(security.GenerateSessionID())
			if err != nil {
				return nil, nil, fmt.Errorf("failed to generate oauth password hash: %w", err)
			}
			newUser, err := s.userRepo.CreateUser(email, randomPasswordHash, name)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create oauth user: %w", err)
			}
			if err := s.userRepo.LinkOAuthProvider(newUser.ID, provider, subject); err != nil {
				return nil, nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
			user = newUser
		}
	}

	session, err := s.createSession(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// RequestPasswordReset creates a reset token and emails it. Unknown
// addresses succeed silently so accounts cannot be enumerated.
// The token is returned for callers that deliver it themselves.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetUserByEmail(normalizeEmail(email))
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", nil
	}

	token, err := generateSecureToken(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	_ = s.userRepo.DeleteUserPasswordResetTokens(user.ID)
	if err := s.userRepo.CreatePasswordResetToken(token, user.ID, time.Now().Add(resetTokenTTL)); err != nil {
		return "", fmt.Errorf("failed to create reset token: %w", err)
	}

	if s.mailer != nil && s.mailer.IsEnabled() {
		if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, user.Name, token); err != nil {
			return "", fmt.Errorf("failed to send reset email: %w", err)
		}
	}
	return token, nil
}

// ResetPassword sets a new password with a valid token and signs the
// user out everywhere
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	resetToken, err := s.userRepo.GetPasswordResetToken(token)
	if err != nil {
		return fmt.Errorf("failed to get reset token: %w", err)
	}
	if resetToken == nil || resetToken.Used || resetToken.IsExpired() {
		return ErrInvalidResetToken
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	users := s.userRepo.WithTx(tx)

	marked, err := users.MarkPasswordResetTokenAsUsed(token)
	if err != nil {
		return err
	}
	if !marked {
		return ErrInvalidResetToken
	}
	if err := users.UpdatePassword(resetToken.UserID, passwordHash); err != nil {
		return err
	}
	if err := users.DeleteUserSessions(resetToken.UserID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit password reset: %w", err)
	}
	return nil
}

// checkRegistrationOpen refuses new accounts while registration is closed.
// The first account can always be created so a fresh install gets an admin.
func (s *AuthService) checkRegistrationOpen() error {
	if s.settingsRepo.IsRegistrationEnabled() {
		return nil
	}
	count, err := s.userRepo.CountUsers()
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return ErrRegistrationClosed
	}
	return nil
}

// IsRegistrationEnabled reports whether new accounts may sign up
func (s *AuthService) IsRegistrationEnabled() bool {
	return s.settingsRepo.IsRegistrationEnabled()
}

// SetRegistrationEnabled opens or closes registration
func (s *AuthService) SetRegistrationEnabled(enabled bool) error {
	return s.settingsRepo.SetRegistrationEnabled(enabled)
}

// ListUsers returns every account
func (s *AuthService) ListUsers() ([]models.User, error) {
	return s.userRepo.GetAllUsers()
}

// SetUserRole changes another user's role
func (s *AuthService) SetUserRole(actorID, userID int64, role string) error {
	if !models.ValidRole(role) {
		return validation.ValidationError{Field: "role", Message: "role must be student, instructor or admin"}
	}
	if actorID == userID {
		return ErrForbidden
	}
	err := s.userRepo.UpdateRole(userID, role)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
