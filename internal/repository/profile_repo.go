package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"actuarialhub/internal/database"
	"actuarialhub/internal/models"
)

const profileSelect = `
	SELECT p.user_id, p.username, p.full_name, p.avatar_url, u.role, p.risk_coins,
		p.current_streak, p.last_active_on, p.total_quests_completed, p.sandbox_score,
		p.community_rank, p.created_at, p.updated_at
	FROM profiles p
	JOIN users u ON u.id = p.user_id
`

// ProfileRepository handles the per-user progress rows
type ProfileRepository struct {
	db database.DBTX
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db database.DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *ProfileRepository) WithTx(tx *database.Tx) *ProfileRepository {
	return &ProfileRepository{db: tx}
}

// Create inserts a profile row
func (r *ProfileRepository) Create(p *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, username, full_name, avatar_url, risk_coins, current_streak,
			last_active_on, total_quests_completed, sandbox_score, community_rank)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, p.UserID, p.Username, p.FullName, p.AvatarURL, p.RiskCoins,
		p.CurrentStreak, p.LastActiveOn, p.TotalQuestsCompleted, p.SandboxScore, p.CommunityRank)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetByUserID retrieves a profile with the owner's role
func (r *ProfileRepository) GetByUserID(userID int64) (*models.Profile, error) {
	profile := &models.Profile{}
	err := r.db.Get(profile, profileSelect+" WHERE p.user_id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// List returns every profile ordered by coins
func (r *ProfileRepository) List() ([]models.Profile, error) {
	profiles := []models.Profile{}
	if err := r.db.Select(&profiles, profileSelect+" ORDER BY p.risk_coins DESC, p.user_id"); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// UsernameTaken reports whether another user already has username
func (r *ProfileRepository) UsernameTaken(username string, exceptUserID int64) (bool, error) {
	var count int
	err := r.db.Get(&count, "SELECT COUNT(*) FROM profiles WHERE username = ? AND user_id <> ?", username, exceptUserID)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

// UpdateDetails saves the user editable profile fields
func (r *ProfileRepository) UpdateDetails(userID int64, username, fullName, avatarURL string) error {
	query := `
		UPDATE profiles
		SET username = ?, full_name = ?, avatar_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`
	result, err := r.db.Exec(query, username, fullName, avatarURL, userID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return expectOneRow(result, "profile")
}

// RaiseSandboxScore stores score only when it beats the stored best.
// It reports whether the row changed.
func (r *ProfileRepository) RaiseSandboxScore(userID int64, score int) (bool, error) {
	query := `
		UPDATE profiles
		SET sandbox_score = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND sandbox_score < ?
	`
	result, err := r.db.Exec(query, score, userID, score)
	if err != nil {
		return false, fmt.Errorf("failed to update sandbox score: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read sandbox score update: %w", err)
	}
	return rows > 0, nil
}

// CreditQuestCompletion adds a quest reward and bumps the completed counter
func (r *ProfileRepository) CreditQuestCompletion(userID int64, coins int) error {
	query := `
		UPDATE profiles
		SET risk_coins = risk_coins + ?, total_quests_completed = total_quests_completed + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`
	result, err := r.db.Exec(query, coins, userID)
	if err != nil {
		return fmt.Errorf("failed to credit quest completion: %w", err)
	}
	return expectOneRow(result, "profile")
}

// AddCoins credits coins to a profile
func (r *ProfileRepository) AddCoins(userID int64, coins int) error {
	query := `
		UPDATE profiles
		SET risk_coins = risk_coins + ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`
	result, err := r.db.Exec(query, coins, userID)
	if err != nil {
		return fmt.Errorf("failed to add coins: %w", err)
	}
	return expectOneRow(result, "profile")
}

// UpdateStreak stores the daily streak and the day it was last extended
func (r *ProfileRepository) UpdateStreak(userID int64, streak int, lastActiveOn string) error {
	query := `
		UPDATE profiles
		SET current_streak = ?, last_active_on = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`
	if _, err := r.db.Exec(query, streak, lastActiveOn, userID); err != nil {
		return fmt.Errorf("failed to update streak: %w", err)
	}
	return nil
}

// UpdateRank stores the community rank
func (r *ProfileRepository) UpdateRank(userID int64, rank string) error {
	query := `
		UPDATE profiles
		SET community_rank = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`
	if _, err := r.db.Exec(query, rank, userID); err != nil {
		return fmt.Errorf("failed to update rank: %w", err)
	}
	return nil
}
