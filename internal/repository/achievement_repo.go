package repository

import (
	"fmt"

	"actuarialhub/internal/database"
	"actuarialhub/internal/models"
)

const achievementColumns = `a.id, a.code, a.name, a.description, a.icon, a.badge_color, a.criteria,
	a.reward_coins, a.is_active, a.created_at`

// AchievementRepository handles achievements, awards and the activity feed
type AchievementRepository struct {
	db database.DBTX
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db database.DBTX) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *AchievementRepository) WithTx(tx *database.Tx) *AchievementRepository {
	return &AchievementRepository{db: tx}
}

// Create inserts an achievement and sets its ID
func (r *AchievementRepository) Create(a *models.Achievement) error {
	criteria := string(a.Criteria)
	if criteria == "" {
		criteria = "{}"
	}
	query := `
		INSERT INTO achievements (code, name, description, icon, badge_color, criteria, reward_coins, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, a.Code, a.Name, a.Description, a.Icon, a.BadgeColor,
		criteria, a.RewardCoins, a.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create achievement: %w", err)
	}
	a.ID = id
	return nil
}

// Count returns the number of achievements
func (r *AchievementRepository) Count() (int, error) {
	var count int
	if err := r.db.Get(&count, "SELECT COUNT(*) FROM achievements"); err != nil {
		return 0, fmt.Errorf("failed to count achievements: %w", err)
	}
	return count, nil
}

// ListUnearned returns active achievements the user does not hold yet
func (r *AchievementRepository) ListUnearned(userID int64) ([]models.Achievement, error) {
	query := `
		SELECT ` + achievementColumns + `
		FROM achievements a
		WHERE a.is_active = ?
		AND NOT EXISTS (
			SELECT 1 FROM user_achievements ua WHERE ua.achievement_id = a.id AND ua.user_id = ?
		)
		ORDER BY a.id
	`
	achievements := []models.Achievement{}
	if err := r.db.Select(&achievements, query, true, userID); err != nil {
		return nil, fmt.Errorf("failed to list unearned achievements: %w", err)
	}
	return achievements, nil
}

// ListForUser returns active achievements with the user's earned state
func (r *AchievementRepository) ListForUser(userID int64) ([]models.UserAchievement, error) {
	query := `
		SELECT ` + achievementColumns + `,
			CASE WHEN ua.id IS NULL THEN 0 ELSE 1 END AS earned, ua.earned_at
		FROM achievements a
		LEFT JOIN user_achievements ua ON ua.achievement_id = a.id AND ua.user_id = ?
		WHERE a.is_active = ?
		ORDER BY a.id
	`
	achievements := []models.UserAchievement{}
	if err := r.db.Select(&achievements, query, userID, true); err != nil {
		return nil, fmt.Errorf("failed to list user achievements: %w", err)
	}
	return achievements, nil
}

// Award records that a user earned an achievement
func (r *AchievementRepository) Award(userID, achievementID int64) error {
	query := "INSERT INTO user_achievements (user_id, achievement_id) VALUES (?, ?)"
	if _, err := r.db.Exec(query, userID, achievementID); err != nil {
		return fmt.Errorf("failed to award achievement: %w", err)
	}
	return nil
}

// RecordActivity appends an entry to the user's activity feed
func (r *AchievementRepository) RecordActivity(userID int64, activityType string, data []byte, coins int) error {
	if len(data) == 0 {
		data = []byte("{}")
	}
	query := `
		INSERT INTO user_activities (user_id, activity_type, activity_data, coins_earned)
		VALUES (?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, userID, activityType, string(data), coins); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// ListActivities returns a user's most recent activities
func (r *AchievementRepository) ListActivities(userID int64, limit int) ([]models.Activity, error) {
	query := `
		SELECT id, user_id, activity_type, activity_data, coins_earned, created_at
		FROM user_activities
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	activities := []models.Activity{}
	if err := r.db.Select(&activities, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}
