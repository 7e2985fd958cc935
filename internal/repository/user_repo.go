package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"actuarialhub/internal/database"
	"actuarialhub/internal/models"
)

const userColumns = `id, email, password_hash, name, role,
	COALESCE(oauth_provider, '') AS oauth_provider, COALESCE(oauth_subject, '') AS oauth_subject,
	created_at, updated_at`

// UserRepository handles database operations for users, sessions and reset tokens
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *UserRepository) WithTx(tx *database.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

// CreateUser inserts a new user. The first user becomes admin.
func (r *UserRepository) CreateUser(email, passwordHash, name string) (*models.User, error) {
	userCount, err := r.CountUsers()
	if err != nil {
		return nil, err
	}

	role := models.RoleStudent
	if userCount == 0 {
		role = models.RoleAdmin
	}

	query := `
		INSERT INTO users (email, password_hash, name, role)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, email, passwordHash, name, role)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	now := time.Now()
	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CountUsers returns the number of registered users
func (r *UserRepository) CountUsers() (int, error) {
	var count int
	if err := r.db.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) getUser(where string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.Get(user, "SELECT "+userColumns+" FROM users WHERE "+where, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	return r.getUser("email = ?", email)
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(id int64) (*models.User, error) {
	return r.getUser("id = ?", id)
}

// GetUserByOAuth retrieves a user by OAuth provider and subject
func (r *UserRepository) GetUserByOAuth(provider, subject string) (*models.User, error) {
	return r.getUser("oauth_provider = ? AND oauth_subject = ?", provider, subject)
}

// GetAllUsers retrieves all users, newest first
func (r *UserRepository) GetAllUsers() ([]models.User, error) {
	users := []models.User{}
	if err := r.db.Select(&users, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return users, nil
}

// FirstAdminID returns the oldest admin's ID, or 0 when there is none
func (r *UserRepository) FirstAdminID() (int64, error) {
	var id int64
	err := r.db.Get(&id, "SELECT id FROM users WHERE role = ? ORDER BY id LIMIT 1", models.RoleAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find admin: %w", err)
	}
	return id, nil
}

// UpdateRole changes a user's role
func (r *UserRepository) UpdateRole(id int64, role string) error {
	query := `
		UPDATE users
		SET role = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := r.db.Exec(query, role, id)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return expectOneRow(result, "user")
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(id int64, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, passwordHash, id); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// DeleteUser deletes a user and all associated data
func (r *UserRepository) DeleteUser(id int64) error {
	if _, err := r.db.Exec("DELETE FROM users WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// LinkOAuthProvider links an existing user to an OAuth provider
func (r *UserRepository) LinkOAuthProvider(userID int64, provider, subject string) error {
	query := `
		UPDATE users
		SET oauth_provider = ?, oauth_subject = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		AND (oauth_provider IS NULL OR oauth_provider = '')
	`
	result, err := r.db.Exec(query, provider, subject, userID)
	if err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read link result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("oauth provider already linked")
	}
	return nil
}

// CreateSession creates a new session for a user
func (r *UserRepository) CreateSession(sessionID string, userID int64, expiresAt time.Time) (*models.Session, error) {
	query := `
		INSERT INTO sessions (id, user_id, expires_at)
		VALUES (?, ?, ?)
	`
	if _, err := r.db.Exec(query, sessionID, userID, expiresAt.UTC()); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// GetSession retrieves a session by ID
func (r *UserRepository) GetSession(sessionID string) (*models.Session, error) {
	session := &models.Session{}
	err := r.db.Get(session, "SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?", sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session from the database
func (r *UserRepository) DeleteSession(sessionID string) error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteUserSessions removes every session of a user
func (r *UserRepository) DeleteUserSessions(userID int64) error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions
func (r *UserRepository) DeleteExpiredSessions() error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE expires_at < ?", time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}

// CreatePasswordResetToken stores a reset token for a user
func (r *UserRepository) CreatePasswordResetToken(token string, userID int64, expiresAt time.Time) error {
	query := `
		INSERT INTO password_reset_tokens (token, user_id, expires_at, used)
		VALUES (?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, token, userID, expiresAt.UTC(), false); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// GetPasswordResetToken retrieves a reset token
func (r *UserRepository) GetPasswordResetToken(token string) (*models.PasswordResetToken, error) {
	resetToken := &models.PasswordResetToken{}
	err := r.db.Get(resetToken, "SELECT token, user_id, expires_at, created_at, used FROM password_reset_tokens WHERE token = ?", token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}
	return resetToken, nil
}

// MarkPasswordResetTokenAsUsed flags a token so it cannot be replayed.
// It reports false when the token was already used.
func (r *UserRepository) MarkPasswordResetTokenAsUsed(token string) (bool, error) {
	result, err := r.db.Exec("UPDATE password_reset_tokens SET used = ? WHERE token = ? AND used = ?", true, token, false)
	if err != nil {
		return false, fmt.Errorf("failed to mark token as used: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read token update: %w", err)
	}
	return rows == 1, nil
}

// DeleteUserPasswordResetTokens removes every reset token of a user
func (r *UserRepository) DeleteUserPasswordResetTokens(userID int64) error {
	if _, err := r.db.Exec("DELETE FROM password_reset_tokens WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete reset tokens: %w", err)
	}
	return nil
}

// DeleteExpiredPasswordResetTokens removes expired reset tokens
func (r *UserRepository) DeleteExpiredPasswordResetTokens() error {
	if _, err := r.db.Exec("DELETE FROM password_reset_tokens WHERE expires_at < ?", time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}
	return nil
}
