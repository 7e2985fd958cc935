package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Activity types recorded in the user feed
const (
	ActivityQuestCompleted    = "quest_completed"
	ActivitySandboxBest       = "sandbox_best"
	ActivityAchievementEarned = "achievement_earned"
	ActivityPostCreated       = "post_created"
)

// Achievement is a badge awarded when its criteria are met
type Achievement struct {
	ID          int64          `db:"id" json:"id"`
	Code        string         `db:"code" json:"code"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	Icon        string         `db:"icon" json:"icon"`
	BadgeColor  string         `db:"badge_color" json:"badge_color"`
	Criteria    types.JSONText `db:"criteria" json:"criteria"`
	RewardCoins int            `db:"reward_coins" json:"reward_coins"`
	IsActive    bool           `db:"is_active" json:"is_active"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// AchievementCriteria are the thresholds an achievement requires.
// Zero fields are not checked.
type AchievementCriteria struct {
	QuestsCompleted int `json:"quests_completed,omitempty" yaml:"quests_completed,omitempty"`
	SandboxScore    int `json:"sandbox_score,omitempty" yaml:"sandbox_score,omitempty"`
	RiskCoins       int `json:"risk_coins,omitempty" yaml:"risk_coins,omitempty"`
	PostsCreated    int `json:"posts_created,omitempty" yaml:"posts_created,omitempty"`
}

// AchievementStats is the user state criteria are evaluated against
type AchievementStats struct {
	QuestsCompleted int
	SandboxScore    int
	RiskCoins       int
	PostsCreated    int
}

// Met reports whether stats satisfy every threshold. Criteria with no
// thresholds are never met.
func (c AchievementCriteria) Met(stats AchievementStats) bool {
	if c == (AchievementCriteria{}) {
		return false
	}
	return stats.QuestsCompleted >= c.QuestsCompleted &&
		stats.SandboxScore >= c.SandboxScore &&
		stats.RiskCoins >= c.RiskCoins &&
		stats.PostsCreated >= c.PostsCreated
}

// UserAchievement is an achievement with the user's earned state
type UserAchievement struct {
	Achievement
	Earned   bool       `db:"earned" json:"earned"`
	EarnedAt *time.Time `db:"earned_at" json:"earned_at,omitempty"`
}

// Activity is an entry in a user's activity feed
type Activity struct {
	ID           int64          `db:"id" json:"id"`
	UserID       int64          `db:"user_id" json:"user_id"`
	ActivityType string         `db:"activity_type" json:"activity_type"`
	ActivityData types.JSONText `db:"activity_data" json:"activity_data"`
	CoinsEarned  int            `db:"coins_earned" json:"coins_earned"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}
